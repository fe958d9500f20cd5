package command

import (
	"github.com/pixil98/go-errors"
)

type Config struct {
	LogLevel    string            `json:"log_level"`
	Stories     StoriesConfig     `json:"stories"`
	Storage     StorageConfig     `json:"storage"`
	LLM         LLMConfig         `json:"llm"`
	Nats        NatsConfig        `json:"nats"`
	HTTP        HTTPConfig        `json:"http"`
	Maintenance MaintenanceConfig `json:"maintenance"`
}

func (c *Config) Validate() error {
	el := errors.NewErrorList()

	if c.LogLevel != "" {
		_, err := parseLogLevel(c.LogLevel)
		el.Add(err)
	}

	el.Add(c.Stories.validate())
	el.Add(c.Storage.validate())
	el.Add(c.LLM.validate())
	el.Add(c.Nats.validate())
	el.Add(c.HTTP.validate())
	el.Add(c.Maintenance.validate())

	return el.Err()
}
