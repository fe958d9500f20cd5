package dynamic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/render"
	"github.com/pixil98/go-storyweave/internal/story"
)

var (
	ErrUnknownBlock = errors.New("unknown block")
	ErrNotChoice    = errors.New("block does not offer a choice")
	ErrNotGenerated = errors.New("options have not been generated")
)

// ChoiceRequest records a player's pick for a static or dynamic block. Index
// selects from the offered options; Text is used when no index is given.
type ChoiceRequest struct {
	PlayerID string `json:"playerID"`
	StoryID  string `json:"storyId"`
	BlockID  string `json:"blockId"`
	Index    *int   `json:"index,omitempty"`
	Text     string `json:"text,omitempty"`
}

// RecordChoice snapshots the options offered for a block and records the
// player's choice against them.
func (o *Orchestrator) RecordChoice(ctx context.Context, req ChoiceRequest) (*ledger.PlayerChoice, error) {
	if req.PlayerID == "" {
		return nil, fmt.Errorf("%w: playerID is required", ErrInvalidRequest)
	}

	var b *story.Block
	storyID := req.StoryID
	if storyID != "" {
		b = o.stories.Block(storyID, req.BlockID)
	} else if loc, ok := o.stories.Locate(req.BlockID); ok {
		b, storyID = loc.Block, loc.StoryID
	}
	if b == nil {
		return nil, fmt.Errorf("block %q: %w", req.BlockID, ErrUnknownBlock)
	}
	if !b.ChoiceBearing() {
		return nil, fmt.Errorf("block %q of type %q: %w", b.ID, b.Type, ErrNotChoice)
	}

	choice := ledger.PlayerChoice{
		BlockID:     b.ID,
		BlockType:   b.Type,
		ChosenIndex: req.Index,
		ChosenText:  req.Text,
	}

	switch b.Type {
	case story.BlockStatic:
		choice.AvailableOptions = b.Options
	case story.BlockDynamic:
		dc, ok := o.dynamicContent(ctx, req.PlayerID, b.ID)
		if !ok || !dc.Content.IsList() {
			return nil, fmt.Errorf("block %q: %w", b.ID, ErrNotGenerated)
		}
		choice.AvailableOptions = dc.Content.Options
		if instructions, err := o.assembler.Instructions(b); err == nil {
			choice.Instruction = instructions
		}
		for _, ref := range b.Context {
			choice.ContextBlocks = append(choice.ContextBlocks, ref.Value)
		}
	}

	stored, err := o.ledger.RecordChoice(ctx, req.PlayerID, choice)
	if err != nil {
		return nil, err
	}

	o.publish(ctx, EventChoice, req.PlayerID, ChoiceEvent{
		PlayerID:   req.PlayerID,
		StoryID:    storyID,
		BlockID:    b.ID,
		ChosenText: stored.ChosenText,
		At:         time.Now(),
	})
	return stored, nil
}

func (o *Orchestrator) dynamicContent(ctx context.Context, playerID string, blockID string) (*ledger.DynamicContent, bool) {
	p, ok := o.ledger.Player(ctx, playerID)
	if !ok {
		return nil, false
	}
	dc, ok := p.DynamicContent[blockID]
	return dc, ok && dc != nil
}

// Story compiles the narrative a player has seen across storyIDs, or across
// every configured story when none are given.
func (o *Orchestrator) Story(ctx context.Context, playerID string, storyIDs []string) string {
	if len(storyIDs) == 0 {
		storyIDs = o.stories.Order()
	}
	player, _ := o.ledger.Player(ctx, playerID)
	return render.Compile(o.stories.Before(storyIDs, ""), player)
}
