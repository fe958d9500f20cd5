package render

import (
	"strings"
	"testing"

	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/story"
	"github.com/pixil98/go-testutil"
)

func intPtr(i int) *int { return &i }

func TestRender(t *testing.T) {
	tests := map[string]struct {
		block story.Block
		ctx   Context
		exp   string
	}{
		"scene header first": {
			block: story.Block{ID: "h1", Type: story.BlockSceneHeader, TitleName: "Intro"},
			exp:   "Intro\n",
		},
		"scene header after text": {
			block: story.Block{ID: "h2", Type: story.BlockSceneHeader, TitleName: "Road"},
			ctx:   Context{PriorText: "Hello"},
			exp:   "\nRoad\n",
		},
		"plain": {
			block: story.Block{ID: "p1", Type: story.BlockPlain, Text: "Hello "},
			exp:   "Hello ",
		},
		"static chosen": {
			block: story.Block{ID: "q1", Type: story.BlockStatic, Options: []string{"A", "B"}},
			ctx: Context{Choice: &ledger.PlayerChoice{
				AvailableOptions: []string{"A", "B"},
				ChosenIndex:      intPtr(1),
				ChosenText:       "B",
			}},
			exp: "B (choices given: A, B)",
		},
		"static chosen uses snapshot": {
			block: story.Block{ID: "q1", Type: story.BlockStatic, Options: []string{"A", "B", "C"}},
			ctx: Context{Choice: &ledger.PlayerChoice{
				AvailableOptions: []string{"A", "B"},
				ChosenText:       "A",
			}},
			exp: "A (choices given: A, B)",
		},
		"static not chosen": {
			block: story.Block{ID: "q1", Type: story.BlockStatic, Options: []string{"A", "B"}},
			exp:   "[choice not made; options: A, B]",
		},
		"dynamic chosen": {
			block: story.Block{ID: "d1", Type: story.BlockDynamic, GenerateOptions: true},
			ctx: Context{
				Choice:  &ledger.PlayerChoice{ChosenText: "Left", AvailableOptions: []string{"Left", "Right"}},
				Content: &ledger.DynamicContent{Content: ledger.OptionsContent([]string{"Left", "Right"})},
			},
			exp: "Left (dynamic choices: Left, Right)",
		},
		"dynamic options generated not chosen": {
			block: story.Block{ID: "d1", Type: story.BlockDynamic, GenerateOptions: true},
			ctx:   Context{Content: &ledger.DynamicContent{Content: ledger.OptionsContent([]string{"Left", "Right"})}},
			exp:   "Left, Right",
		},
		"dynamic text": {
			block: story.Block{ID: "d2", Type: story.BlockDynamic},
			ctx:   Context{Content: &ledger.DynamicContent{Content: ledger.TextContent("The rain stops.")}},
			exp:   "The rain stops.",
		},
		"dynamic not generated": {
			block: story.Block{ID: "3f2a9c1e-aaaa-bbbb", Type: story.BlockDynamic},
			exp:   "[dynamic content not yet generated: 3f2a9c1e]",
		},
		"unknown type": {
			block: story.Block{ID: "abcdefghij", Type: story.BlockType("video")},
			exp:   "<video block: abcdefgh>",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "rendered", Render(&tt.block, tt.ctx), tt.exp)
		})
	}
}

func TestRender_KnownTypesAreHandled(t *testing.T) {
	for _, bt := range story.BlockTypes {
		t.Run(string(bt), func(t *testing.T) {
			got := Render(&story.Block{ID: "x", Type: bt, Options: []string{"A"}}, Context{})
			if strings.HasPrefix(got, "<") {
				t.Errorf("block type %q fell through to the unknown marker: %q", bt, got)
			}
		})
	}
}

func TestRender_StaticNeverShowsIndex(t *testing.T) {
	got := Render(
		&story.Block{ID: "q1", Type: story.BlockStatic, Options: []string{"A", "B"}},
		Context{Choice: &ledger.PlayerChoice{AvailableOptions: []string{"A", "B"}, ChosenIndex: intPtr(1), ChosenText: "B"}},
	)
	testutil.AssertEqual(t, "starts with choice", strings.HasPrefix(got, "B "), true)
	testutil.AssertEqual(t, "lists A", strings.Contains(got, "A"), true)
	testutil.AssertEqual(t, "no index", strings.Contains(got, "1"), false)
}

func TestCompile(t *testing.T) {
	blocks := []*story.Block{
		{ID: "h1", Type: story.BlockSceneHeader, TitleName: "Intro"},
		{ID: "p1", Type: story.BlockPlain, Text: "Hello "},
		{ID: "q1", Type: story.BlockStatic, Options: []string{"X", "Y"}},
	}

	tests := map[string]struct {
		player *ledger.Player
		exp    string
	}{
		"choice made": {
			player: &ledger.Player{
				ID: "p1",
				Choices: map[string]*ledger.PlayerChoice{
					"q1": {BlockID: "q1", AvailableOptions: []string{"X", "Y"}, ChosenIndex: intPtr(0), ChosenText: "X"},
				},
			},
			exp: "Intro\nHello X (choices given: X, Y)",
		},
		"no player": {
			exp: "Intro\nHello [choice not made; options: X, Y]",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			testutil.AssertEqual(t, "compiled", CompileBlocks("1", blocks, tt.player), tt.exp)
		})
	}
}

func TestCompile_SecondHeaderGetsBlankLine(t *testing.T) {
	entries := []story.Entry{
		{StoryID: "1", Block: &story.Block{ID: "h1", Type: story.BlockSceneHeader, TitleName: "One"}},
		{StoryID: "1", Block: &story.Block{ID: "p1", Type: story.BlockPlain, Text: "Text."}},
		{StoryID: "2", Block: &story.Block{ID: "h2", Type: story.BlockSceneHeader, TitleName: "Two"}},
	}
	testutil.AssertEqual(t, "compiled", Compile(entries, nil), "One\nText.\nTwo\n")
}
