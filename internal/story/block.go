package story

import (
	"fmt"
	"strings"

	"github.com/pixil98/go-errors"
)

// BlockType identifies how a block is rendered and whether it carries a choice.
type BlockType string

const (
	BlockPlain       BlockType = "plain"
	BlockStatic      BlockType = "static"
	BlockSceneHeader BlockType = "scene-header"
	BlockDynamic     BlockType = "dynamic"
)

// BlockTypes lists every block type the renderer knows about.
var BlockTypes = []BlockType{BlockPlain, BlockStatic, BlockSceneHeader, BlockDynamic}

func (t BlockType) Known() bool {
	switch t {
	case BlockPlain, BlockStatic, BlockSceneHeader, BlockDynamic:
		return true
	default:
		return false
	}
}

// ContextRef points a dynamic block at an earlier block whose recorded choice
// is folded into its prompt.
type ContextRef struct {
	Value      string `json:"value"`
	IncludeAll bool   `json:"includeAll,omitempty"`
}

// Block is one authored unit of story content. Blocks are immutable once loaded.
type Block struct {
	ID              string       `json:"id"`
	Type            BlockType    `json:"type"`
	Text            string       `json:"text,omitempty"`
	Options         []string     `json:"options,omitempty"`
	TitleName       string       `json:"titleName,omitempty"`
	Prompt          string       `json:"prompt,omitempty"`
	GenerateOptions bool         `json:"generateOptions,omitempty"`
	Context         []ContextRef `json:"context,omitempty"`

	// Authoring parameters used to build the instruction of a dynamic block.
	OptionCount   int    `json:"optionCount,omitempty"`
	SentenceCount int    `json:"sentenceCount,omitempty"`
	Lexicon       string `json:"lexicon,omitempty"`
}

// ChoiceBearing reports whether a player records a choice against this block.
func (b *Block) ChoiceBearing() bool {
	switch b.Type {
	case BlockStatic:
		return true
	case BlockDynamic:
		return b.GenerateOptions
	default:
		return false
	}
}

// ShortID returns the first eight characters of the block id for markers.
func (b *Block) ShortID() string {
	return ShortID(b.ID)
}

func ShortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func (b *Block) Validate() error {
	el := errors.NewErrorList()

	if b.ID == "" {
		el.Add(fmt.Errorf("id must be set"))
	} else if strings.ContainsAny(b.ID, ", {}\t\n") {
		el.Add(fmt.Errorf("id %q must not contain commas, braces or whitespace", b.ID))
	}

	if b.Type == BlockStatic && len(b.Options) == 0 {
		el.Add(fmt.Errorf("static block %q has no options", b.ID))
	}
	if b.OptionCount < 0 {
		el.Add(fmt.Errorf("optionCount must not be negative"))
	}
	if b.SentenceCount < 0 {
		el.Add(fmt.Errorf("sentenceCount must not be negative"))
	}
	for i, ref := range b.Context {
		if ref.Value == "" {
			el.Add(fmt.Errorf("context %d: value is required", i))
		}
	}

	return el.Err()
}
