package dynamic

import (
	"context"
	"log/slog"
	"time"
)

const (
	EventGenerated = "dynamic.generated"
	EventChoice    = "choice.recorded"
)

// Publisher delivers events to interested listeners. Delivery is best effort.
type Publisher interface {
	Publish(ctx context.Context, event string, playerID string, payload any) error
}

type GeneratedEvent struct {
	RequestID string    `json:"requestId"`
	PlayerID  string    `json:"playerId"`
	StoryID   string    `json:"storyId"`
	BlockID   string    `json:"blockId"`
	Result    Result    `json:"result"`
	Cached    bool      `json:"cached"`
	Duration  float64   `json:"durationSeconds"`
	At        time.Time `json:"at"`
}

type ChoiceEvent struct {
	PlayerID   string    `json:"playerId"`
	StoryID    string    `json:"storyId"`
	BlockID    string    `json:"blockId"`
	ChosenText string    `json:"chosenText"`
	At         time.Time `json:"at"`
}

func (o *Orchestrator) publish(ctx context.Context, event string, playerID string, payload any) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.Publish(ctx, event, playerID, payload); err != nil {
		slog.WarnContext(ctx, "publishing event failed", "event", event, "player", playerID, "error", err)
	}
}
