package placeholder

import (
	"regexp"
	"strings"
)

// Target selects whose decisions a DecisionsQuery reports.
type Target int

const (
	TargetThisPlayer Target = iota
	TargetAll
)

func (t Target) String() string {
	if t == TargetAll {
		return "all"
	}
	return "this player"
}

// Query is a classified placeholder. The concrete types are the only
// implementations.
type Query interface {
	isQuery()
}

// CompiledStoryQuery renders the player's story so far.
type CompiledStoryQuery struct{}

// DecisionsQuery reports recorded choices for a set of questions.
type DecisionsQuery struct {
	// QuestionIDs is empty when AllQuestions is set.
	QuestionIDs  []string
	AllQuestions bool
	Target       Target
	StoryIDs     []string
}

// AnswerQuery looks up the chosen text of one question for the player.
type AnswerQuery struct {
	QuestionID string
}

type CodenameQuery struct{}

// UnknownQuery is anything the grammar does not recognise. It is left in the
// text untouched.
type UnknownQuery struct {
	Reason string
}

func (CompiledStoryQuery) isQuery() {}
func (DecisionsQuery) isQuery()     {}
func (AnswerQuery) isQuery()        {}
func (CodenameQuery) isQuery()      {}
func (UnknownQuery) isQuery()       {}

var (
	placeholderPattern = regexp.MustCompile(`\{get ([^{}]*)\}`)

	compiledStoryPattern = regexp.MustCompile(`^(?:compiled story|story so far) for this player$`)
	decisionsPattern     = regexp.MustCompile(`^decisions of question#([A-Za-z0-9_, -]+?) by (this player|all), from story ([A-Za-z0-9_, -]+)$`)
	answerPattern        = regexp.MustCompile(`^answer of question#([A-Za-z0-9_-]+) from this player$`)
	codenamePattern      = regexp.MustCompile(`^codename$`)
)

// Parse classifies the inner text of a {get ...} placeholder.
func Parse(inner string) Query {
	inner = strings.TrimSpace(inner)

	switch {
	case compiledStoryPattern.MatchString(inner):
		return CompiledStoryQuery{}

	case codenamePattern.MatchString(inner):
		return CodenameQuery{}
	}

	if m := answerPattern.FindStringSubmatch(inner); m != nil {
		return AnswerQuery{QuestionID: m[1]}
	}

	if m := decisionsPattern.FindStringSubmatch(inner); m != nil {
		return parseDecisions(m[1], m[2], m[3])
	}

	return UnknownQuery{Reason: "unrecognised query"}
}

func parseDecisions(questions string, target string, stories string) Query {
	q := DecisionsQuery{
		Target:   TargetThisPlayer,
		StoryIDs: splitList(stories),
	}
	if target == "all" {
		q.Target = TargetAll
	}
	if len(q.StoryIDs) == 0 {
		return UnknownQuery{Reason: "no story ids"}
	}

	ids := splitList(questions)
	switch {
	case len(ids) == 0:
		return UnknownQuery{Reason: "no question ids"}
	case len(ids) == 1 && ids[0] == "all":
		q.AllQuestions = true
	default:
		for _, id := range ids {
			if id == "all" {
				return UnknownQuery{Reason: "question#all cannot be combined with ids"}
			}
		}
		q.QuestionIDs = ids
	}
	return q
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// match is one placeholder occurrence in a text.
type match struct {
	start int
	end   int
	raw   string
	query Query
}

// scan finds every placeholder in text. The grammar never nests braces, so a
// single pass is enough.
func scan(text string) []match {
	locs := placeholderPattern.FindAllStringSubmatchIndex(text, -1)
	out := make([]match, 0, len(locs))
	for _, loc := range locs {
		out = append(out, match{
			start: loc[0],
			end:   loc[1],
			raw:   text[loc[0]:loc[1]],
			query: Parse(text[loc[2]:loc[3]]),
		})
	}
	return out
}
