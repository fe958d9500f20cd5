package response

import (
	"strings"
	"testing"

	"github.com/pixil98/go-testutil"
)

func TestParse_Text(t *testing.T) {
	tests := map[string]struct {
		raw string
		exp string
	}{
		"plain json": {
			raw: `{"deliverable": "Hello world"}`,
			exp: "Hello world",
		},
		"fenced json with tag": {
			raw: "```json\n{\"deliverable\": \"Hello world\"}\n```",
			exp: "Hello world",
		},
		"fence is authoritative": {
			raw: "{\"deliverable\": \"outside\"}\n```\n{\"deliverable\": \"inside\"}\n```",
			exp: "inside",
		},
		"unterminated fence": {
			raw: "```json\n{\"deliverable\": \"Hi\"}",
			exp: "Hi",
		},
		"json inside prose": {
			raw: `Sure! {"deliverable": "The door creaks open.", "notes": "{x}"} Enjoy.`,
			exp: "The door creaks open.",
		},
		"escaped quotes": {
			raw: `{"deliverable": "She said \"run\"."}`,
			exp: `She said "run".`,
		},
		"missing closing brace": {
			raw: `{"deliverable": "Cut short \"mid\" reply", "extra": `,
			exp: `Cut short "mid" reply`,
		},
		"array deliverable": {
			raw: `{"deliverable": ["First line.", "Second line."]}`,
			exp: "First line.\nSecond line.",
		},
		"chinese marker": {
			raw: "好的。\n最终文本：雨停了，天亮了。\n\n其他说明",
			exp: "雨停了，天亮了。",
		},
		"longest paragraph": {
			raw: "Sure!\n\nThe lantern swung in the wind as the ferry left the dock.\n\n{\"broken",
			exp: "The lantern swung in the wind as the ferry left the dock.",
		},
		"only code residue": {
			raw: `{"deliverable": `,
			exp: FallbackText,
		},
		"empty object": {
			raw: `{}`,
			exp: FallbackText,
		},
		"empty": {
			raw: "",
			exp: FallbackText,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Parse(tt.raw, Options{})
			testutil.AssertEqual(t, "is list", got.IsList(), false)
			testutil.AssertEqual(t, "text", got.Text, tt.exp)
		})
	}
}

func TestParse_Options(t *testing.T) {
	fallback := strings.Join(FallbackOptions, "|")

	tests := map[string]struct {
		raw   string
		count int
		exp   string
	}{
		"plain json": {
			raw: `{"deliverable": ["Go north", "Go south"]}`,
			exp: "Go north|Go south",
		},
		"fenced json": {
			raw: "```json\n{\"deliverable\": [\"A\", \"B\", \"C\"]}\n```",
			exp: "A|B|C",
		},
		"count caps list": {
			raw:   `{"deliverable": ["1", "2", "3", "4", "5"]}`,
			count: 3,
			exp:   "1|2|3",
		},
		"string deliverable split on lines": {
			raw: `{"deliverable": "Run\nHide"}`,
			exp: "Run|Hide",
		},
		"broken json with array": {
			raw: `{"deliverable": ["Go north", "Say \"hi\", then leave"], oops`,
			exp: `Go north|Say "hi", then leave`,
		},
		"broken json with bracket inside option": {
			raw: `{"deliverable": ["Open the [red] door", "Leave quietly"]`,
			exp: "Open the [red] door|Leave quietly",
		},
		"numbered list": {
			raw: "Here you go:\n1. Run\n2) Hide\n3. Fight",
			exp: "Run|Hide|Fight",
		},
		"bulleted list": {
			raw: "- Open the chest\n* Leave it\n• Kick it",
			exp: "Open the chest|Leave it|Kick it",
		},
		"short lines": {
			raw: "Climb the tower\nSearch the cellar",
			exp: "Climb the tower|Search the cellar",
		},
		"chinese marker full width": {
			raw: "我建议如下。\n最终选项：逃跑、躲藏，战斗",
			exp: "逃跑|躲藏|战斗",
		},
		"too many short lines": {
			raw: "a\nb\nc\nd\ne\nf",
			exp: fallback,
		},
		"empty": {
			raw: "",
			exp: fallback,
		},
		"plain prose": {
			raw: "The night was dark and the wind howled through the empty streets of the old harbour town.",
			exp: fallback,
		},
		"malformed json": {
			raw: `{"deliverable": ["A", "B"`,
			exp: fallback,
		},
		"fallback capped": {
			raw:   "",
			count: 2,
			exp:   "Continue the story|Take a different path",
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got := Parse(tt.raw, Options{GenerateOptions: true, Count: tt.count})
			testutil.AssertEqual(t, "is list", got.IsList(), true)
			testutil.AssertEqual(t, "options", strings.Join(got.Options, "|"), tt.exp)
		})
	}
}

func TestParse_NeverEmpty(t *testing.T) {
	inputs := []string{"", " ", "```", "{", "}", "[]", `{"deliverable": []}`, `{"deliverable": ""}`, "```json\n```", "\n\n\n"}

	for _, raw := range inputs {
		opts := Parse(raw, Options{GenerateOptions: true})
		if len(opts.Options) == 0 {
			t.Errorf("option mode returned no options for %q", raw)
		}
		text := Parse(raw, Options{})
		if strings.TrimSpace(text.Text) == "" {
			t.Errorf("text mode returned empty text for %q", raw)
		}
	}
}

func TestFirstObject(t *testing.T) {
	tests := map[string]struct {
		in    string
		exp   string
		expOK bool
	}{
		"simple":          {in: `x {"a": 1} y`, exp: `{"a": 1}`, expOK: true},
		"nested":          {in: `{"a": {"b": 2}} {"c": 3}`, exp: `{"a": {"b": 2}}`, expOK: true},
		"brace in string": {in: `{"a": "}{"}`, exp: `{"a": "}{"}`, expOK: true},
		"unbalanced":      {in: `{"a": 1`, expOK: false},
		"none":            {in: `no json`, expOK: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := firstObject(tt.in)
			testutil.AssertEqual(t, "ok", ok, tt.expOK)
			testutil.AssertEqual(t, "object", got, tt.exp)
		})
	}
}

func TestArrayBody(t *testing.T) {
	tests := map[string]struct {
		in    string
		exp   string
		expOK bool
	}{
		"simple":            {in: `["a", "b"] tail`, exp: `"a", "b"`, expOK: true},
		"bracket in string": {in: `["Open the [red] door", "x"]`, exp: `"Open the [red] door", "x"`, expOK: true},
		"escaped quote":     {in: `["say \"]\"", "y"]`, exp: `"say \"]\"", "y"`, expOK: true},
		"nested":            {in: `[["a"], "b"]`, exp: `["a"], "b"`, expOK: true},
		"unbalanced":        {in: `["a", "b"`, expOK: false},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, ok := arrayBody(tt.in, 1)
			testutil.AssertEqual(t, "ok", ok, tt.expOK)
			testutil.AssertEqual(t, "body", got, tt.exp)
		})
	}
}
