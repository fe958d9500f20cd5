package display

import (
	"github.com/muesli/reflow/wordwrap"
	"github.com/muesli/reflow/wrap"
)

const DefaultWidth = 80

// Wrap word-wraps text to width, breaking words longer than a line. A width
// of zero or less returns the text unchanged.
func Wrap(text string, width int) string {
	if width <= 0 {
		return text
	}
	return wrap.String(wordwrap.String(text, width), width)
}
