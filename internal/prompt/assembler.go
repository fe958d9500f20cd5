package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"

	"github.com/pixil98/go-storyweave/internal/story"
)

const (
	DefaultOptionCount   = 4
	DefaultSentenceCount = 3
)

var ErrNoInstructions = errors.New("block type has no generation instructions")

// templateFuncs provides utility functions for templates.
var templateFuncs = sprig.TxtFuncMap()

// Templates holds the text/template sources the assembler renders. Empty
// fields fall back to the defaults.
type Templates struct {
	Baseline           string `json:"baseline"`
	Extended           string `json:"extended"`
	TextInstruction    string `json:"text_instruction"`
	OptionsInstruction string `json:"options_instruction"`
}

// PassageContext carries the narrative of the current passage up to the block
// being generated.
type PassageContext struct {
	TextBeforeDynamic string
}

type craftData struct {
	Message           string
	Context           string
	Instructions      string
	TextBeforeDynamic string
}

type instructionData struct {
	BlockID       string
	Prompt        string
	OptionCount   int
	SentenceCount int
	Lexicon       string
}

// Assembler builds the final prompt sent to the model.
type Assembler struct {
	baseline           *template.Template
	extended           *template.Template
	textInstruction    *template.Template
	optionsInstruction *template.Template
}

// NewAssembler parses the templates. A template that fails to parse or that
// refers to a field its data does not have is reported here rather than when a
// prompt is built.
func NewAssembler(tmpls Templates) (*Assembler, error) {
	tmpls = tmpls.withDefaults()

	var err error
	a := &Assembler{}
	if a.baseline, err = parse("baseline", tmpls.Baseline, craftData{}); err != nil {
		return nil, err
	}
	if a.extended, err = parse("extended", tmpls.Extended, craftData{}); err != nil {
		return nil, err
	}
	if a.textInstruction, err = parse("text_instruction", tmpls.TextInstruction, instructionData{}); err != nil {
		return nil, err
	}
	if a.optionsInstruction, err = parse("options_instruction", tmpls.OptionsInstruction, instructionData{}); err != nil {
		return nil, err
	}
	return a, nil
}

func (t Templates) withDefaults() Templates {
	if t.Baseline == "" {
		t.Baseline = defaultBaseline
	}
	if t.Extended == "" {
		t.Extended = defaultExtended
	}
	if t.TextInstruction == "" {
		t.TextInstruction = defaultTextInstruction
	}
	if t.OptionsInstruction == "" {
		t.OptionsInstruction = defaultOptionsInstruction
	}
	return t
}

func parse(name string, src string, probe any) (*template.Template, error) {
	tmpl, err := template.New(name).Funcs(templateFuncs).Option("missingkey=error").Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parsing %s template: %w", name, err)
	}
	// Executing against the zero value catches references to unknown fields.
	if err := tmpl.Execute(&bytes.Buffer{}, probe); err != nil {
		return nil, fmt.Errorf("checking %s template: %w", name, err)
	}
	return tmpl, nil
}

func execute(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("executing %s template: %w", tmpl.Name(), err)
	}
	return strings.TrimSpace(buf.String()), nil
}

// Craft combines the message, formatted context and instructions into one
// prompt. Supplying passage context selects the extended template, which also
// embeds the narrative leading up to the block.
func (a *Assembler) Craft(message string, contextString string, instructions string, passage *PassageContext) (string, error) {
	data := craftData{
		Message:      message,
		Context:      contextString,
		Instructions: instructions,
	}
	if passage == nil {
		return execute(a.baseline, data)
	}
	data.TextBeforeDynamic = passage.TextBeforeDynamic
	return execute(a.extended, data)
}

// Instructions derives the generation instructions of a dynamic block from its
// authoring parameters.
func (a *Assembler) Instructions(b *story.Block) (string, error) {
	if b.Type != story.BlockDynamic {
		return "", fmt.Errorf("block %q of type %q: %w", b.ID, b.Type, ErrNoInstructions)
	}

	data := instructionData{
		BlockID:       b.ID,
		Prompt:        b.Prompt,
		OptionCount:   b.OptionCount,
		SentenceCount: b.SentenceCount,
		Lexicon:       b.Lexicon,
	}
	if data.OptionCount <= 0 {
		data.OptionCount = DefaultOptionCount
	}
	if data.SentenceCount <= 0 {
		data.SentenceCount = DefaultSentenceCount
	}

	if b.GenerateOptions {
		return execute(a.optionsInstruction, data)
	}
	return execute(a.textInstruction, data)
}
