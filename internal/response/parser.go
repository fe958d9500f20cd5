package response

import (
	"log/slog"
	"regexp"
	"strings"
)

// FallbackText is returned in text mode when nothing usable is found.
const FallbackText = "The story could not be generated this time. Please try again."

// FallbackOptions is returned in option mode when nothing usable is found.
var FallbackOptions = []string{
	"Continue the story",
	"Take a different path",
	"Wait and observe",
	"Turn back",
}

type Options struct {
	GenerateOptions bool
	// Count caps the number of options returned. Zero keeps them all.
	Count int
}

// Deliverable is the usable payload recovered from a model reply: either a
// text or a list of options.
type Deliverable struct {
	Text    string
	Options []string
}

func (d Deliverable) IsList() bool {
	return d.Options != nil
}

// strategy tries to recover a deliverable. It never fails loudly; it reports
// whether it found anything.
type strategy struct {
	name string
	run  func(reply string, opts Options) (Deliverable, bool)
}

var strategies = []strategy{
	{name: "json", run: parseJSON},
	{name: "field", run: extractField},
	{name: "heuristic", run: heuristic},
}

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z0-9_-]*[ \t]*\r?\n?(.*?)```")

// Parse recovers a deliverable from a raw model reply. It always returns usable
// content: option mode yields at least one option and text mode a non-empty
// text, falling back to fixed content when every strategy fails.
func Parse(raw string, opts Options) Deliverable {
	reply := stripFence(raw)

	for _, s := range strategies {
		d, ok := s.run(reply, opts)
		if !ok {
			continue
		}
		if d, ok = finish(d, opts); ok {
			slog.Debug("parsed model reply", "strategy", s.name, "options", opts.GenerateOptions)
			return d
		}
	}

	slog.Warn("model reply unusable, using fallback", "options", opts.GenerateOptions, "length", len(raw))
	if opts.GenerateOptions {
		d, _ := finish(Deliverable{Options: append([]string(nil), FallbackOptions...)}, opts)
		return d
	}
	return Deliverable{Text: FallbackText}
}

// stripFence returns the body of the first fenced code block, or the reply
// unchanged when there is none. An opening fence without a closing one is
// dropped.
func stripFence(reply string) string {
	if m := fencePattern.FindStringSubmatch(reply); m != nil {
		return strings.TrimSpace(m[1])
	}

	trimmed := strings.TrimSpace(reply)
	if strings.HasPrefix(trimmed, "```") {
		if i := strings.IndexByte(trimmed, '\n'); i >= 0 {
			return strings.TrimSpace(trimmed[i+1:])
		}
		return ""
	}
	return trimmed
}

// finish cleans the recovered content and applies the option cap. Content that
// is empty after cleaning does not count as found.
func finish(d Deliverable, opts Options) (Deliverable, bool) {
	if !opts.GenerateOptions {
		text := strings.TrimSpace(d.Text)
		if text == "" && d.IsList() {
			text = strings.TrimSpace(strings.Join(cleanOptions(d.Options), "\n"))
		}
		return Deliverable{Text: text}, text != ""
	}

	options := d.Options
	if !d.IsList() {
		options = splitLines(d.Text)
	}
	options = cleanOptions(options)
	if len(options) == 0 {
		return Deliverable{}, false
	}
	if opts.Count > 0 && len(options) > opts.Count {
		options = options[:opts.Count]
	}
	return Deliverable{Options: options}, true
}

var listMarkerPattern = regexp.MustCompile(`^\s*(?:\d+[.)、]|[-*•])\s*`)

func cleanOptions(in []string) []string {
	out := make([]string, 0, len(in))
	for _, o := range in {
		o = listMarkerPattern.ReplaceAllString(o, "")
		o = strings.Trim(strings.TrimSpace(o), `"'`)
		o = strings.TrimSpace(o)
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

func splitLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			out = append(out, line)
		}
	}
	return out
}
