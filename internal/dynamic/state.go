package dynamic

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/pixil98/go-storyweave/internal/llm"
)

// State is a step of one generation request.
type State string

const (
	StateIdle             State = "idle"
	StateInstructionBuilt State = "instruction-built"
	StateContextResolved  State = "context-resolved"
	StatePromptAssembled  State = "prompt-assembled"
	StateAwaitingLLM      State = "awaiting-llm"
	StateResponseParsed   State = "response-parsed"
	StateLedgerWritten    State = "ledger-written"
	StateDone             State = "done"
	StateFailed           State = "failed"
)

var ErrGeneration = errors.New("dynamic block generation failed")

// GenerationError is returned when a request fails. Stack is the list of
// states the request passed through, ending in failed. Detail carries what the
// model provider reported, when the failure came from there.
type GenerationError struct {
	Message string   `json:"message"`
	Stack   []string `json:"stack"`
	Detail  string   `json:"detail,omitempty"`
	Status  int      `json:"status,omitempty"`

	Err error `json:"-"`
}

func (e *GenerationError) Error() string {
	return e.Message + " (" + strings.Join(e.Stack, " > ") + ")"
}

func (e *GenerationError) Unwrap() []error {
	return []error{ErrGeneration, e.Err}
}

// trail tracks the state of one request.
type trail struct {
	playerID string
	blockID  string
	states   []State
}

func newTrail(playerID string, blockID string) *trail {
	return &trail{playerID: playerID, blockID: blockID, states: []State{StateIdle}}
}

func (t *trail) current() State {
	return t.states[len(t.states)-1]
}

func (t *trail) advance(s State) {
	slog.Debug("dynamic block state", "player", t.playerID, "block", t.blockID, "from", t.current(), "to", s)
	t.states = append(t.states, s)
}

// fail moves the request to the failed state and builds the error returned to
// the caller.
func (t *trail) fail(message string, err error) *GenerationError {
	failedAt := t.current()
	t.advance(StateFailed)

	stack := make([]string, 0, len(t.states))
	for _, s := range t.states {
		stack = append(stack, string(s))
	}

	ge := &GenerationError{Message: message, Stack: stack, Err: err}
	var pe *llm.ProviderError
	if errors.As(err, &pe) {
		ge.Detail = pe.Detail
		ge.Status = pe.Status
	} else if err != nil {
		ge.Detail = err.Error()
	}

	slog.Warn("dynamic block failed", "player", t.playerID, "block", t.blockID, "state", failedAt, "error", err)
	return ge
}
