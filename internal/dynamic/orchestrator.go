package dynamic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/llm"
	"github.com/pixil98/go-storyweave/internal/placeholder"
	"github.com/pixil98/go-storyweave/internal/prompt"
	"github.com/pixil98/go-storyweave/internal/render"
	"github.com/pixil98/go-storyweave/internal/response"
	"github.com/pixil98/go-storyweave/internal/story"
)

var ErrInvalidRequest = errors.New("invalid request")

// Stories is the part of the story store the orchestrator reads.
type Stories interface {
	Order() []string
	Block(storyID string, blockID string) *story.Block
	Locate(blockID string, storyIDs ...string) (story.Location, bool)
	Before(storyIDs []string, blockID string) []story.Entry
	Passage(storyID string, blockID string) []*story.Block
	Station(storyID string) int
}

// Ledger is the part of the choice ledger the orchestrator uses.
type Ledger interface {
	Player(ctx context.Context, playerID string) (*ledger.Player, bool)
	RecordChoice(ctx context.Context, playerID string, choice ledger.PlayerChoice) (*ledger.PlayerChoice, error)
	RecordDynamicContent(ctx context.Context, playerID string, dc ledger.DynamicContent) error
}

type Interpreter interface {
	Interpret(ctx context.Context, text string, scope placeholder.Scope) string
}

// Request asks for the content of one dynamic block for one player.
type Request struct {
	Message         string             `json:"message"`
	PlayerID        string             `json:"playerID"`
	BlockID         string             `json:"blockId"`
	ContextRefs     []story.ContextRef `json:"contextRefs"`
	BlockType       story.BlockType    `json:"blockType"`
	GenerateOptions bool               `json:"generateOptions"`
	StoryID         string             `json:"storyId"`
}

func (r Request) validate() error {
	switch {
	case r.PlayerID == "":
		return fmt.Errorf("%w: playerID is required", ErrInvalidRequest)
	case r.BlockID == "":
		return fmt.Errorf("%w: blockId is required", ErrInvalidRequest)
	case r.BlockType != "" && r.BlockType != story.BlockDynamic:
		return fmt.Errorf("%w: block type %q is not generated", ErrInvalidRequest, r.BlockType)
	}
	return nil
}

// Result is the generated content: a text or a list of options. It encodes as
// a bare JSON string or array.
type Result struct {
	Text    string
	Options []string
}

func (r Result) IsList() bool {
	return r.Options != nil
}

func (r Result) MarshalJSON() ([]byte, error) {
	if r.IsList() {
		return json.Marshal(r.Options)
	}
	return json.Marshal(r.Text)
}

func (r Result) content() ledger.Content {
	if r.IsList() {
		return ledger.OptionsContent(r.Options)
	}
	return ledger.TextContent(r.Text)
}

func resultFrom(c ledger.Content) Result {
	if c.IsList() {
		return Result{Options: c.Options}
	}
	return Result{Text: c.Text}
}

// Orchestrator turns a dynamic block request into generated content: it builds
// the instructions, resolves context, assembles the prompt, calls the model,
// parses the reply and records it in the ledger.
type Orchestrator struct {
	stories   Stories
	ledger    Ledger
	interp    Interpreter
	assembler *prompt.Assembler
	client    llm.Client
	publisher Publisher

	inflight singleflight.Group
}

func NewOrchestrator(stories Stories, l Ledger, interp Interpreter, assembler *prompt.Assembler, client llm.Client, opts ...OrchestratorOpt) *Orchestrator {
	o := &Orchestrator{
		stories:   stories,
		ledger:    l,
		interp:    interp,
		assembler: assembler,
		client:    client,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Generate returns the content of a dynamic block for a player. Content that
// was already generated is returned from the ledger without calling the
// model. Concurrent requests for the same player and block share one call.
// Failures are reported as *GenerationError, except for malformed requests.
func (o *Orchestrator) Generate(ctx context.Context, req Request) (Result, error) {
	if err := req.validate(); err != nil {
		return Result{}, err
	}

	// The shared call outlives any one caller giving up on it.
	key := req.PlayerID + "\x00" + req.BlockID
	v, err, _ := o.inflight.Do(key, func() (any, error) {
		return o.generate(context.WithoutCancel(ctx), req)
	})
	if err != nil {
		return Result{}, err
	}
	return v.(Result), nil
}

func (o *Orchestrator) generate(ctx context.Context, req Request) (Result, error) {
	start := time.Now()
	requestID := uuid.NewString()

	player, _ := o.ledger.Player(ctx, req.PlayerID)
	if player != nil {
		if dc, ok := player.DynamicContent[req.BlockID]; ok && dc != nil && !dc.Content.IsZero() {
			res := resultFrom(dc.Content)
			slog.DebugContext(ctx, "returning recorded dynamic content", "player", req.PlayerID, "block", req.BlockID)
			o.publish(ctx, EventGenerated, req.PlayerID, GeneratedEvent{
				RequestID: requestID, PlayerID: req.PlayerID, StoryID: req.StoryID, BlockID: req.BlockID,
				Result: res, Cached: true, At: start,
			})
			return res, nil
		}
	}

	t := newTrail(req.PlayerID, req.BlockID)
	block, storyID := o.resolveBlock(req)
	if block.Type != story.BlockDynamic {
		return Result{}, fmt.Errorf("%w: block %q of type %q is not generated", ErrInvalidRequest, block.ID, block.Type)
	}

	instructions, err := o.assembler.Instructions(block)
	if err != nil {
		return Result{}, t.fail("building instructions", err)
	}
	t.advance(StateInstructionBuilt)

	scope := placeholder.Scope{
		PlayerID: req.PlayerID,
		BlockID:  req.BlockID,
		StoryIDs: o.scopeStories(storyID),
	}
	message := req.Message
	if message == "" {
		message = block.Prompt
	}
	message = o.interp.Interpret(ctx, message, scope)
	contextString := prompt.FormatContext(o.contextEntries(block, player, scope.StoryIDs))
	passage := o.passage(ctx, storyID, block.ID, player, scope)
	t.advance(StateContextResolved)

	text, err := o.assembler.Craft(message, contextString, instructions, passage)
	if err != nil {
		return Result{}, t.fail("assembling prompt", err)
	}
	t.advance(StatePromptAssembled)

	t.advance(StateAwaitingLLM)
	raw, err := o.client.Complete(ctx, text)
	if errors.Is(err, llm.ErrEmptyReply) {
		// An empty reply is parsed like any other and falls back.
		raw, err = "", nil
	}
	if err != nil {
		return Result{}, t.fail("calling language model", err)
	}

	d := response.Parse(raw, response.Options{GenerateOptions: block.GenerateOptions, Count: block.OptionCount})
	res := Result{Text: d.Text, Options: d.Options}
	t.advance(StateResponseParsed)

	res = o.record(ctx, req.PlayerID, block, res)
	t.advance(StateLedgerWritten)

	o.publish(ctx, EventGenerated, req.PlayerID, GeneratedEvent{
		RequestID: requestID, PlayerID: req.PlayerID, StoryID: storyID, BlockID: block.ID,
		Result: res, Duration: time.Since(start).Seconds(), At: start,
	})
	t.advance(StateDone)
	return res, nil
}

// resolveBlock finds the authored block for a request. A block that is not in
// any story is described by the request itself.
func (o *Orchestrator) resolveBlock(req Request) (*story.Block, string) {
	var b *story.Block
	storyID := req.StoryID
	if storyID != "" {
		b = o.stories.Block(storyID, req.BlockID)
	}
	if b == nil {
		if loc, ok := o.stories.Locate(req.BlockID); ok {
			b, storyID = loc.Block, loc.StoryID
		}
	}

	if b == nil {
		b = &story.Block{ID: req.BlockID, Type: story.BlockDynamic}
	}

	// The request may narrow the authored block; the story file stays untouched.
	resolved := *b
	if resolved.Type == "" {
		resolved.Type = story.BlockDynamic
	}
	if req.GenerateOptions {
		resolved.GenerateOptions = true
	}
	if len(req.ContextRefs) > 0 {
		resolved.Context = req.ContextRefs
	}
	if resolved.Prompt == "" {
		resolved.Prompt = req.Message
	}
	return &resolved, storyID
}

func (o *Orchestrator) scopeStories(storyID string) []string {
	order := o.stories.Order()
	for i, id := range order {
		if id == storyID {
			return order[:i+1]
		}
	}
	if storyID != "" {
		return []string{storyID}
	}
	return order
}

// contextEntries turns the block's context references into prompt entries.
// References without a recorded choice are skipped.
func (o *Orchestrator) contextEntries(b *story.Block, player *ledger.Player, storyIDs []string) []prompt.ContextEntry {
	if player == nil {
		return nil
	}

	var entries []prompt.ContextEntry
	for _, ref := range b.Context {
		c, ok := player.Choices[ref.Value]
		if !ok || c == nil {
			continue
		}

		entry := prompt.ContextEntry{Chosen: c.ChosenText, Station: len(o.stories.Order()) + 1}
		if loc, ok := o.stories.Locate(ref.Value, storyIDs...); ok {
			entry.Station = o.stories.Station(loc.StoryID)
		} else if loc, ok := o.stories.Locate(ref.Value); ok {
			entry.Station = o.stories.Station(loc.StoryID)
		}
		if ref.IncludeAll {
			entry.Options = c.AvailableOptions
		}
		entries = append(entries, entry)
	}
	return entries
}

// passage renders the current passage up to the block for the extended prompt.
func (o *Orchestrator) passage(ctx context.Context, storyID string, blockID string, player *ledger.Player, scope placeholder.Scope) *prompt.PassageContext {
	if storyID == "" {
		return nil
	}
	blocks := o.stories.Passage(storyID, blockID)
	if len(blocks) == 0 {
		return nil
	}
	text := render.CompileBlocks(storyID, blocks, player)
	return &prompt.PassageContext{TextBeforeDynamic: o.interp.Interpret(ctx, text, scope)}
}

// record writes the result to the ledger. A write failure is logged and the
// result is still returned. If another request recorded content first, that
// content wins so every caller sees the same thing.
func (o *Orchestrator) record(ctx context.Context, playerID string, b *story.Block, res Result) Result {
	err := o.ledger.RecordDynamicContent(ctx, playerID, ledger.DynamicContent{
		BlockID:   b.ID,
		BlockType: b.Type,
		Content:   res.content(),
	})
	switch {
	case err == nil:
		return res
	case errors.Is(err, ledger.ErrContentRecorded):
		if p, ok := o.ledger.Player(ctx, playerID); ok {
			if dc, ok := p.DynamicContent[b.ID]; ok && dc != nil {
				return resultFrom(dc.Content)
			}
		}
		return res
	default:
		slog.WarnContext(ctx, "recording dynamic content failed", "player", playerID, "block", b.ID, "error", err)
		return res
	}
}
