package placeholder

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/render"
	"github.com/pixil98/go-storyweave/internal/story"
)

// StoryReader is the part of the story store the interpreter reads.
type StoryReader interface {
	Order() []string
	Before(storyIDs []string, blockID string) []story.Entry
	Locate(blockID string, storyIDs ...string) (story.Location, bool)
}

// LedgerReader is the part of the ledger the interpreter reads.
type LedgerReader interface {
	Player(ctx context.Context, playerID string) (*ledger.Player, bool)
	Players(ctx context.Context) []*ledger.Player
}

// Scope is who and where a text is being interpreted for.
type Scope struct {
	PlayerID string
	// BlockID bounds story queries: only blocks before it are considered.
	BlockID  string
	StoryIDs []string
}

type Interpreter struct {
	stories StoryReader
	ledger  LedgerReader
}

func NewInterpreter(stories StoryReader, l LedgerReader) *Interpreter {
	return &Interpreter{stories: stories, ledger: l}
}

type replacement struct {
	start int
	end   int
	text  string
}

// Interpret replaces every recognised {get ...} placeholder in text. Unknown
// placeholders are left as they are. Replacement text is not scanned again.
func (in *Interpreter) Interpret(ctx context.Context, text string, scope Scope) string {
	matches := scan(text)
	if len(matches) == 0 {
		return text
	}

	r := &resolver{in: in, ctx: ctx, scope: scope}

	reps := make([]replacement, 0, len(matches))
	for _, m := range matches {
		out, ok := r.resolve(m.query)
		if !ok {
			slog.WarnContext(ctx, "leaving unknown placeholder", "placeholder", m.raw, "player", scope.PlayerID, "block", scope.BlockID)
			continue
		}
		reps = append(reps, replacement{start: m.start, end: m.end, text: out})
	}

	// Splice from the back so earlier offsets stay valid.
	slices.SortFunc(reps, func(a, b replacement) int { return cmp.Compare(b.start, a.start) })
	for _, rep := range reps {
		text = text[:rep.start] + rep.text + text[rep.end:]
	}
	return text
}

// resolver answers the queries of one Interpret call, reading the ledger at
// most once per kind of lookup.
type resolver struct {
	in    *Interpreter
	ctx   context.Context
	scope Scope

	player       *ledger.Player
	playerLoaded bool

	players       []*ledger.Player
	playersLoaded bool
}

func (r *resolver) resolve(q Query) (string, bool) {
	switch q := q.(type) {
	case CompiledStoryQuery:
		return r.compiledStory(), true
	case DecisionsQuery:
		return r.decisions(q), true
	case AnswerQuery:
		return r.answer(q.QuestionID), true
	case CodenameQuery:
		if p := r.currentPlayer(); p != nil {
			return p.Codename, true
		}
		return "", true
	case UnknownQuery:
		return "", false
	default:
		return "", false
	}
}

func (r *resolver) currentPlayer() *ledger.Player {
	if !r.playerLoaded {
		r.playerLoaded = true
		if p, ok := r.in.ledger.Player(r.ctx, r.scope.PlayerID); ok {
			r.player = p
		}
	}
	return r.player
}

func (r *resolver) allPlayers() []*ledger.Player {
	if !r.playersLoaded {
		r.playersLoaded = true
		r.players = r.in.ledger.Players(r.ctx)
	}
	return r.players
}

func (r *resolver) storyIDs(ids []string) []string {
	if len(ids) > 0 {
		return ids
	}
	if len(r.scope.StoryIDs) > 0 {
		return r.scope.StoryIDs
	}
	return r.in.stories.Order()
}

func (r *resolver) compiledStory() string {
	entries := r.in.stories.Before(r.storyIDs(nil), r.scope.BlockID)
	return render.Compile(entries, r.currentPlayer())
}

func (r *resolver) answer(questionID string) string {
	p := r.currentPlayer()
	if p == nil {
		return ""
	}
	if c, ok := p.Choices[questionID]; ok && c != nil {
		return c.ChosenText
	}
	return ""
}

// questions expands a decisions query to the block ids it covers.
func (r *resolver) questions(q DecisionsQuery) []string {
	if !q.AllQuestions {
		return q.QuestionIDs
	}
	var ids []string
	for _, e := range r.in.stories.Before(r.storyIDs(q.StoryIDs), r.scope.BlockID) {
		if e.Block.ChoiceBearing() {
			ids = append(ids, e.Block.ID)
		}
	}
	return ids
}

func (r *resolver) decisions(q DecisionsQuery) string {
	ids := r.questions(q)
	if len(ids) == 0 {
		return ""
	}

	lines := make([]string, 0, len(ids))
	for _, id := range ids {
		switch q.Target {
		case TargetAll:
			lines = append(lines, r.tally(id))
		default:
			lines = append(lines, r.playerDecision(id, q.StoryIDs))
		}
	}
	return strings.Join(lines, "\n")
}

func (r *resolver) playerDecision(questionID string, storyIDs []string) string {
	var c *ledger.PlayerChoice
	if p := r.currentPlayer(); p != nil {
		c = p.Choices[questionID]
	}

	if c == nil || c.ChosenText == "" {
		return fmt.Sprintf("question#%s: (no answer)", questionID)
	}

	opts := c.AvailableOptions
	if len(opts) == 0 {
		if loc, ok := r.in.stories.Locate(questionID, r.storyIDs(storyIDs)...); ok {
			opts = loc.Block.Options
		}
	}
	if len(opts) == 0 {
		return fmt.Sprintf("question#%s: %s", questionID, c.ChosenText)
	}
	return fmt.Sprintf("question#%s: %s (options: %s)", questionID, c.ChosenText, strings.Join(opts, ", "))
}

type tallyCount struct {
	text  string
	count int
}

// tally counts how many players chose each option, grouped by the literal
// chosen text.
func (r *resolver) tally(questionID string) string {
	counts := map[string]int{}
	total := 0
	for _, p := range r.allPlayers() {
		c, ok := p.Choices[questionID]
		if !ok || c == nil || c.ChosenText == "" {
			continue
		}
		counts[c.ChosenText]++
		total++
	}

	sorted := make([]tallyCount, 0, len(counts))
	for text, n := range counts {
		sorted = append(sorted, tallyCount{text: text, count: n})
	}
	slices.SortFunc(sorted, func(a, b tallyCount) int {
		if a.count != b.count {
			return cmp.Compare(b.count, a.count)
		}
		return strings.Compare(a.text, b.text)
	})

	var sb strings.Builder
	fmt.Fprintf(&sb, "question#%s (%d responses):", questionID, total)
	for _, tc := range sorted {
		fmt.Fprintf(&sb, "\n- %s: %d", tc.text, tc.count)
	}
	return sb.String()
}
