package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/pixil98/go-storyweave/internal/story"
)

// Database is the single shared document holding every player's record.
type Database struct {
	Players      map[string]*Player `json:"players"`
	Blocks       []json.RawMessage  `json:"blocks"`
	CreationDate time.Time          `json:"creationDate"`
	Cleanup      CleanupState       `json:"cleanup"`
}

// CleanupState tracks archival of the document.
type CleanupState struct {
	LastArchive time.Time `json:"lastArchive,omitzero"`
	Archives    []string  `json:"archives,omitempty"`
}

func newDatabase(now time.Time) *Database {
	return &Database{
		Players:      map[string]*Player{},
		Blocks:       []json.RawMessage{},
		CreationDate: now,
	}
}

// player returns the record for id, creating it on first use.
func (db *Database) player(id string) *Player {
	p, ok := db.Players[id]
	if !ok || p == nil {
		p = &Player{ID: id}
		db.Players[id] = p
	}
	if p.Choices == nil {
		p.Choices = map[string]*PlayerChoice{}
	}
	if p.DynamicContent == nil {
		p.DynamicContent = map[string]*DynamicContent{}
	}
	return p
}

type Player struct {
	ID             string                     `json:"id"`
	Choices        map[string]*PlayerChoice   `json:"choices"`
	DynamicContent map[string]*DynamicContent `json:"dynamicContent"`
	Codename       string                     `json:"codename,omitempty"`
}

// PlayerChoice is the option a player picked for a block. The options offered
// are snapshotted alongside so the choice replays even if the story changes.
type PlayerChoice struct {
	BlockID          string          `json:"blockId"`
	BlockType        story.BlockType `json:"blockType"`
	AvailableOptions []string        `json:"availableOptions"`
	ChosenIndex      *int            `json:"chosenIndex,omitempty"`
	ChosenText       string          `json:"chosenText"`
	Instruction      string          `json:"instruction,omitempty"`
	ContextBlocks    []string        `json:"contextBlocks,omitempty"`
	Timestamp        time.Time       `json:"timestamp"`
}

// Index returns the chosen index, or -1 when only the text was recorded.
func (c *PlayerChoice) Index() int {
	if c.ChosenIndex == nil {
		return -1
	}
	return *c.ChosenIndex
}

func (c *PlayerChoice) sameAs(o *PlayerChoice) bool {
	if c.ChosenIndex != nil && o.ChosenIndex != nil {
		return *c.ChosenIndex == *o.ChosenIndex
	}
	return c.ChosenText == o.ChosenText
}

// DynamicContent is the parsed LLM output generated for a block.
type DynamicContent struct {
	BlockID   string          `json:"blockId"`
	BlockType story.BlockType `json:"blockType"`
	Content   Content         `json:"content"`
	Timestamp time.Time       `json:"timestamp"`
}

// Content is either a single text or an ordered list of option strings. It
// encodes as a JSON string or a JSON array accordingly.
type Content struct {
	Text    string
	Options []string
}

func TextContent(s string) Content {
	return Content{Text: s}
}

func OptionsContent(opts []string) Content {
	if opts == nil {
		opts = []string{}
	}
	return Content{Options: opts}
}

// IsList reports whether the content holds options rather than text.
func (c Content) IsList() bool {
	return c.Options != nil
}

func (c Content) IsZero() bool {
	return c.Options == nil && c.Text == ""
}

// String joins options with ", " or returns the text.
func (c Content) String() string {
	if c.IsList() {
		return strings.Join(c.Options, ", ")
	}
	return c.Text
}

func (c Content) MarshalJSON() ([]byte, error) {
	if c.IsList() {
		return json.Marshal(c.Options)
	}
	return json.Marshal(c.Text)
}

func (c *Content) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	switch {
	case bytes.Equal(data, []byte("null")):
		*c = Content{}
		return nil
	case len(data) > 0 && data[0] == '[':
		var opts []string
		if err := json.Unmarshal(data, &opts); err != nil {
			return fmt.Errorf("decoding option list: %w", err)
		}
		*c = OptionsContent(opts)
		return nil
	default:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("decoding content text: %w", err)
		}
		*c = TextContent(s)
		return nil
	}
}
