package command

import (
	"fmt"
	"net"
	"time"

	"github.com/pixil98/go-errors"

	"github.com/pixil98/go-storyweave/internal/listener"
)

type HTTPConfig struct {
	Addr            string   `json:"addr"`
	AllowedOrigins  []string `json:"allowed_origins"`
	ShutdownTimeout string   `json:"shutdown_timeout"`
}

func (c *HTTPConfig) validate() error {
	el := errors.NewErrorList()

	if c.Addr == "" {
		el.Add(fmt.Errorf("http: addr is required"))
	} else if _, _, err := net.SplitHostPort(c.Addr); err != nil {
		el.Add(fmt.Errorf("http: parsing addr: %w", err))
	}
	if c.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(c.ShutdownTimeout); err != nil {
			el.Add(fmt.Errorf("http: parsing shutdown_timeout: %w", err))
		}
	}

	return el.Err()
}

func (c *HTTPConfig) buildListener(svc listener.StoryService, interp listener.Interpreter) (*listener.HTTPListener, error) {
	var opts []listener.HTTPListenerOpt
	if len(c.AllowedOrigins) > 0 {
		opts = append(opts, listener.WithAllowedOrigins(c.AllowedOrigins))
	}
	if c.ShutdownTimeout != "" {
		d, err := time.ParseDuration(c.ShutdownTimeout)
		if err != nil {
			return nil, fmt.Errorf("parsing shutdown_timeout: %w", err)
		}
		opts = append(opts, listener.WithShutdownTimeout(d))
	}
	return listener.NewHTTPListener(c.Addr, svc, interp, opts...), nil
}
