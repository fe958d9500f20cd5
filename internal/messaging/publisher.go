package messaging

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// SubjectPrefix is the root of every event subject.
const SubjectPrefix = "storyweave"

var tokenReplacer = strings.NewReplacer(".", "_", " ", "_", "*", "_", ">", "_")

// Subject returns the subject an event for a player is published on. Player
// ids are flattened into a single subject token.
func Subject(event string, playerID string) string {
	if playerID == "" {
		return fmt.Sprintf("%s.%s", SubjectPrefix, event)
	}
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, event, tokenReplacer.Replace(playerID))
}

type rawPublisher interface {
	Publish(subject string, data []byte) error
}

// EventPublisher encodes events as JSON and publishes them per player.
type EventPublisher struct {
	server rawPublisher
}

func NewEventPublisher(server *NatsServer) *EventPublisher {
	return &EventPublisher{server: server}
}

func (p *EventPublisher) Publish(ctx context.Context, event string, playerID string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encoding %s event: %w", event, err)
	}
	if err := p.server.Publish(Subject(event, playerID), data); err != nil {
		return fmt.Errorf("publishing %s event: %w", event, err)
	}
	return nil
}
