package response

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/width"
)

const maxShortLine = 80

var (
	listItemPattern      = regexp.MustCompile(`^\s*(?:\d+[.)、]|[-*•])\s+(.+)$`)
	optionsMarkerPattern = regexp.MustCompile(`(?:最终选项|选项|选择)\s*:\s*(.*)$`)
	textMarkerPattern    = regexp.MustCompile(`(?:最终文本|内容|段落)\s*:\s*`)
	optionSeparators     = regexp.MustCompile(`[、,，;；/]`)
	paragraphBreak       = regexp.MustCompile(`\n\s*\n`)
)

// heuristic recovers content from free text. Full-width punctuation is folded
// to its narrow form before markers are matched.
func heuristic(reply string, opts Options) (Deliverable, bool) {
	if opts.GenerateOptions {
		return heuristicOptions(width.Fold.String(reply))
	}
	return heuristicText(reply)
}

func heuristicOptions(reply string) (Deliverable, bool) {
	lines := strings.Split(reply, "\n")

	var items []string
	for _, line := range lines {
		if m := listItemPattern.FindStringSubmatch(line); m != nil {
			items = append(items, m[1])
		}
	}
	if len(items) >= 2 {
		return Deliverable{Options: items}, true
	}

	var short []string
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" || looksLikeCode(line) || optionsMarkerPattern.MatchString(line) || utf8.RuneCountInString(line) > maxShortLine {
			continue
		}
		short = append(short, line)
	}
	if len(short) >= 2 && len(short) <= 5 {
		return Deliverable{Options: short}, true
	}

	for _, line := range lines {
		m := optionsMarkerPattern.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		parts := optionSeparators.Split(m[1], -1)
		if found := cleanOptions(parts); len(found) > 0 {
			return Deliverable{Options: found}, true
		}
	}

	return Deliverable{}, false
}

func heuristicText(reply string) (Deliverable, bool) {
	if text, ok := markedText(reply); ok {
		return Deliverable{Text: text}, true
	}

	longest := ""
	for _, para := range paragraphs(reply) {
		if looksLikeCode(para) {
			continue
		}
		if utf8.RuneCountInString(para) > utf8.RuneCountInString(longest) {
			longest = para
		}
	}
	if longest != "" {
		return Deliverable{Text: longest}, true
	}

	stripped := codeResidue.Replace(reply)
	stripped = strings.TrimSpace(strings.Trim(strings.TrimSpace(stripped), `"`))
	return Deliverable{Text: stripped}, stripped != ""
}

// markedText finds a text marker and returns what follows it up to the end of
// its paragraph. Matching runs on the folded line but the text is cut from
// the unfolded text so full-width punctuation in the story survives.
func markedText(reply string) (string, bool) {
	lines := strings.Split(reply, "\n")
	for i, line := range lines {
		folded := width.Fold.String(line)
		loc := textMarkerPattern.FindStringIndex(folded)
		if loc == nil {
			continue
		}

		rest := []string{dropRunes(line, utf8.RuneCountInString(folded[:loc[1]]))}
		for _, next := range lines[i+1:] {
			if strings.TrimSpace(next) == "" {
				break
			}
			rest = append(rest, next)
		}
		if text := strings.TrimSpace(strings.Join(rest, "\n")); text != "" {
			return text, true
		}
	}
	return "", false
}

func dropRunes(s string, n int) string {
	for i := range s {
		if n == 0 {
			return s[i:]
		}
		n--
	}
	return ""
}

func paragraphs(s string) []string {
	var out []string
	for _, p := range paragraphBreak.Split(s, -1) {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var codeResidue = strings.NewReplacer(
	"```json", "",
	"```", "",
	`"deliverable":`, "",
	`"deliverable"`, "",
	"{", "",
	"}", "",
	"[", "",
	"]", "",
)

func looksLikeCode(s string) bool {
	return strings.ContainsAny(s, "{}[]") ||
		strings.Contains(s, "```") ||
		strings.Contains(s, `"deliverable"`)
}
