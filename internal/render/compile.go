package render

import (
	"strings"

	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/story"
)

// Compile renders blocks in order for one player and concatenates the result.
// A nil player renders every choice as not made.
func Compile(entries []story.Entry, player *ledger.Player) string {
	var sb strings.Builder
	for _, e := range entries {
		if e.Block == nil {
			continue
		}
		sb.WriteString(Render(e.Block, contextFor(e.Block, player, sb.String())))
	}
	return sb.String()
}

// CompileBlocks is Compile for blocks of a single story.
func CompileBlocks(storyID string, blocks []*story.Block, player *ledger.Player) string {
	entries := make([]story.Entry, 0, len(blocks))
	for _, b := range blocks {
		entries = append(entries, story.Entry{StoryID: storyID, Block: b})
	}
	return Compile(entries, player)
}

func contextFor(b *story.Block, player *ledger.Player, prior string) Context {
	c := Context{PriorText: prior}
	if player == nil {
		return c
	}
	c.Choice = player.Choices[b.ID]
	c.Content = player.DynamicContent[b.ID]
	return c
}
