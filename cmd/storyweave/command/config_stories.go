package command

import (
	"fmt"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-storyweave/internal/storage"
	"github.com/pixil98/go-storyweave/internal/story"
)

type StoriesConfig struct {
	Path  string   `json:"path"`
	Order []string `json:"order"`
}

func (c *StoriesConfig) validate() error {
	el := errors.NewErrorList()

	if c.Path == "" {
		el.Add(fmt.Errorf("stories: path is required"))
	}
	if len(c.Order) == 0 {
		el.Add(fmt.Errorf("stories: order must list at least one story"))
	}
	for _, id := range c.Order {
		if err := storage.ValidateIdentifier("story", id); err != nil {
			el.Add(fmt.Errorf("stories: %w", err))
		}
	}

	return el.Err()
}

func (c *StoriesConfig) buildStore() (*story.Store, error) {
	s, err := story.NewStore(c.Path, c.Order)
	if err != nil {
		return nil, fmt.Errorf("creating story store: %w", err)
	}
	return s, nil
}
