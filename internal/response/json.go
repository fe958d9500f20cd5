package response

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// firstObject returns the first balanced {...} span, skipping braces inside
// JSON strings.
func firstObject(s string) (string, bool) {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// parseJSON decodes the first object in the reply and takes its deliverable
// field.
func parseJSON(reply string, opts Options) (Deliverable, bool) {
	obj, ok := firstObject(reply)
	if !ok {
		return Deliverable{}, false
	}

	var envelope struct {
		Deliverable json.RawMessage `json:"deliverable"`
	}
	if err := json.Unmarshal([]byte(obj), &envelope); err != nil || len(envelope.Deliverable) == 0 {
		return Deliverable{}, false
	}

	var text string
	if err := json.Unmarshal(envelope.Deliverable, &text); err == nil {
		return Deliverable{Text: text}, true
	}

	var items []any
	if err := json.Unmarshal(envelope.Deliverable, &items); err == nil {
		options := make([]string, 0, len(items))
		for _, item := range items {
			switch v := item.(type) {
			case string:
				options = append(options, v)
			case nil:
			default:
				options = append(options, fmt.Sprint(v))
			}
		}
		return Deliverable{Options: options}, true
	}

	return Deliverable{}, false
}

var (
	arrayFieldPattern = regexp.MustCompile(`"deliverable"\s*:\s*\[`)
	textFieldPattern  = regexp.MustCompile(`(?s)"deliverable"\s*:\s*"((?:[^"\\]|\\.)*)"`)
)

// extractField pulls the deliverable out of a reply that is not valid JSON,
// such as one with trailing garbage or a missing closing brace.
func extractField(reply string, opts Options) (Deliverable, bool) {
	if opts.GenerateOptions {
		if loc := arrayFieldPattern.FindStringIndex(reply); loc != nil {
			if body, ok := arrayBody(reply, loc[1]); ok {
				return Deliverable{Options: splitArray(body)}, true
			}
		}
	}
	if m := textFieldPattern.FindStringSubmatch(reply); m != nil {
		return Deliverable{Text: unescape(m[1])}, true
	}
	return Deliverable{}, false
}

// arrayBody returns the text between an opening bracket just before start and
// its matching close, skipping brackets inside JSON strings.
func arrayBody(s string, start int) (string, bool) {
	depth := 1
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '[':
			depth++
		case ']':
			depth--
			if depth == 0 {
				return s[start:i], true
			}
		}
	}
	return "", false
}

// splitArray splits the body of an array literal on commas outside quotes and
// unquotes each element.
func splitArray(body string) []string {
	var (
		out      []string
		current  strings.Builder
		inString bool
		escaped  bool
	)
	flush := func() {
		elem := strings.TrimSpace(current.String())
		current.Reset()
		if strings.HasPrefix(elem, `"`) && strings.HasSuffix(elem, `"`) && len(elem) >= 2 {
			elem = unescape(elem[1 : len(elem)-1])
		}
		out = append(out, elem)
	}

	for _, r := range body {
		switch {
		case escaped:
			escaped = false
		case r == '\\' && inString:
			escaped = true
		case r == '"':
			inString = !inString
		case r == ',' && !inString:
			flush()
			continue
		}
		current.WriteRune(r)
	}
	flush()
	return out
}

func unescape(s string) string {
	if u, err := strconv.Unquote(`"` + s + `"`); err == nil {
		return u
	}
	return strings.ReplaceAll(s, `\"`, `"`)
}
