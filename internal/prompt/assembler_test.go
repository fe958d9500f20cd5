package prompt

import (
	"errors"
	"strings"
	"testing"

	"github.com/pixil98/go-storyweave/internal/story"
	"github.com/pixil98/go-testutil"
)

func TestNewAssembler(t *testing.T) {
	tests := map[string]struct {
		tmpls  Templates
		expErr string
	}{
		"defaults": {},
		"custom baseline": {
			tmpls: Templates{Baseline: "{{ .Message }} / {{ .Instructions }}"},
		},
		"unknown field": {
			tmpls:  Templates{Baseline: "{{ .Mesage }}"},
			expErr: "checking baseline template",
		},
		"unknown instruction field": {
			tmpls:  Templates{OptionsInstruction: "{{ .Count }} options"},
			expErr: "checking options_instruction template",
		},
		"syntax error": {
			tmpls:  Templates{Extended: "{{ .Message "},
			expErr: "parsing extended template",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := NewAssembler(tt.tmpls)
			if tt.expErr != "" {
				testutil.AssertErrorContains(t, err, tt.expErr)
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestAssembler_Craft(t *testing.T) {
	a, err := NewAssembler(Templates{
		Baseline: "M={{ .Message }}|C={{ .Context }}|I={{ .Instructions }}",
		Extended: "T={{ .TextBeforeDynamic }}|M={{ .Message }}|C={{ .Context }}|I={{ .Instructions }}",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]struct {
		passage *PassageContext
		exp     string
	}{
		"baseline": {
			exp: "M=msg|C=ctx|I=ins",
		},
		"extended": {
			passage: &PassageContext{TextBeforeDynamic: "before"},
			exp:     "T=before|M=msg|C=ctx|I=ins",
		},
		"extended with empty passage text": {
			passage: &PassageContext{},
			exp:     "T=|M=msg|C=ctx|I=ins",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := a.Craft("msg", "ctx", "ins", tt.passage)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			testutil.AssertEqual(t, "prompt", got, tt.exp)
		})
	}
}

func TestAssembler_CraftDefaults(t *testing.T) {
	a, err := NewAssembler(Templates{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := a.Craft("Describe the storm.", "", "Write 2 sentences.", &PassageContext{TextBeforeDynamic: "Rain fell."})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	testutil.AssertEqual(t, "has passage", strings.Contains(got, "Rain fell."), true)
	testutil.AssertEqual(t, "has message", strings.Contains(got, "Describe the storm."), true)
	testutil.AssertEqual(t, "empty context default", strings.Contains(got, "None yet."), true)
	testutil.AssertEqual(t, "no template residue", strings.Contains(got, "{{"), false)
}

func TestAssembler_Instructions(t *testing.T) {
	a, err := NewAssembler(Templates{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tests := map[string]struct {
		block       story.Block
		expContains []string
		expErr      error
	}{
		"options with count": {
			block:       story.Block{ID: "d1", Type: story.BlockDynamic, GenerateOptions: true, OptionCount: 3},
			expContains: []string{"exactly 3 short options", `"deliverable": [`},
		},
		"options default count": {
			block:       story.Block{ID: "d1", Type: story.BlockDynamic, GenerateOptions: true},
			expContains: []string{"exactly 4 short options"},
		},
		"text with lexicon": {
			block:       story.Block{ID: "d2", Type: story.BlockDynamic, SentenceCount: 1, Lexicon: "sailing"},
			expContains: []string{"Write 1 sentence to", "vocabulary from sailing", `"deliverable": "`},
		},
		"text default count": {
			block:       story.Block{ID: "d2", Type: story.BlockDynamic},
			expContains: []string{"Write 3 sentences"},
		},
		"static block": {
			block:  story.Block{ID: "q1", Type: story.BlockStatic},
			expErr: ErrNoInstructions,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := a.Instructions(&tt.block)
			if tt.expErr != nil {
				if !errors.Is(err, tt.expErr) {
					t.Fatalf("expected %v, got %v", tt.expErr, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for _, want := range tt.expContains {
				if !strings.Contains(got, want) {
					t.Errorf("expected %q in %q", want, got)
				}
			}
		})
	}
}

func TestFormatContext(t *testing.T) {
	tests := map[string]struct {
		entries []ContextEntry
		exp     string
	}{
		"empty": {
			exp: "",
		},
		"single station": {
			entries: []ContextEntry{
				{Station: 1, Chosen: "A", Options: []string{"A", "B"}},
				{Station: 1, Chosen: "North"},
			},
			exp: "First station:\n1. A (options: A, B)\n2. North",
		},
		"stations ordered regardless of input": {
			entries: []ContextEntry{
				{Station: 2, Chosen: "Later"},
				{Station: 1, Chosen: "Early", Options: []string{"Early", "Late"}},
				{Station: 2, Chosen: "Last"},
			},
			exp: "First station:\n1. Early (options: Early, Late)\n\nSecond station:\n1. Later\n2. Last",
		},
		"unnamed station": {
			entries: []ContextEntry{{Station: 9}},
			exp:     "Station 9:\n1. (no choice made)",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "formatted", FormatContext(tt.entries), tt.exp)
		})
	}
}
