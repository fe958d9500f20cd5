package render

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/story"
)

// Context is what a block is rendered against: the player's record for it, if
// any, and the text rendered so far.
type Context struct {
	Choice    *ledger.PlayerChoice
	Content   *ledger.DynamicContent
	PriorText string
}

// Render converts one block to text. Chosen and unchosen choices render
// differently so prompts built from the output can tell them apart.
func Render(b *story.Block, c Context) string {
	switch b.Type {
	case story.BlockSceneHeader:
		return renderSceneHeader(b, c)
	case story.BlockPlain:
		return b.Text
	case story.BlockStatic:
		return renderStatic(b, c)
	case story.BlockDynamic:
		return renderDynamic(b, c)
	default:
		return fmt.Sprintf("<%s block: %s>", b.Type, b.ShortID())
	}
}

func renderSceneHeader(b *story.Block, c Context) string {
	title := b.TitleName
	if title == "" {
		title = b.Text
	}
	if c.PriorText != "" {
		return "\n" + title + "\n"
	}
	return title + "\n"
}

func renderStatic(b *story.Block, c Context) string {
	if c.Choice != nil && c.Choice.ChosenText != "" {
		return fmt.Sprintf("%s (choices given: %s)", c.Choice.ChosenText, joinOptions(offered(b, c)))
	}
	return fmt.Sprintf("[choice not made; options: %s]", joinOptions(b.Options))
}

func renderDynamic(b *story.Block, c Context) string {
	if b.GenerateOptions && c.Choice != nil && c.Choice.ChosenText != "" {
		return fmt.Sprintf("%s (dynamic choices: %s)", c.Choice.ChosenText, joinOptions(offered(b, c)))
	}
	if c.Content != nil && !c.Content.Content.IsZero() {
		return c.Content.Content.String()
	}
	return fmt.Sprintf("[dynamic content not yet generated: %s]", b.ShortID())
}

// offered returns the options the player actually saw: the snapshot stored with
// the choice, then generated options, then the authored ones.
func offered(b *story.Block, c Context) []string {
	if c.Choice != nil && len(c.Choice.AvailableOptions) > 0 {
		return c.Choice.AvailableOptions
	}
	if c.Content != nil && c.Content.Content.IsList() {
		return c.Content.Content.Options
	}
	return b.Options
}

func joinOptions(opts []string) string {
	return strings.Join(opts, ", ")
}
