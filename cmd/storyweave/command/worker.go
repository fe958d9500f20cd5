package command

import (
	"context"
	"fmt"

	"github.com/pixil98/go-service"

	"github.com/pixil98/go-storyweave/internal/dynamic"
	"github.com/pixil98/go-storyweave/internal/ledger"
	"github.com/pixil98/go-storyweave/internal/messaging"
	"github.com/pixil98/go-storyweave/internal/placeholder"
)

func BuildWorkers(config interface{}) (service.WorkerList, error) {
	cfg, ok := config.(*Config)
	if !ok {
		return nil, fmt.Errorf("unable to cast config")
	}
	cfg.setupLogging()

	stories, err := cfg.Stories.buildStore()
	if err != nil {
		return nil, err
	}

	docs, err := cfg.Storage.buildDocumentStore()
	if err != nil {
		return nil, err
	}
	choices := ledger.New(docs)

	assembler, err := cfg.LLM.Templates.buildAssembler()
	if err != nil {
		return nil, err
	}
	client, err := cfg.LLM.buildClient(context.Background())
	if err != nil {
		return nil, err
	}

	workers := service.WorkerList{}

	var opts []dynamic.OrchestratorOpt
	if !cfg.Nats.Disabled {
		ns, err := cfg.Nats.buildNatsServer()
		if err != nil {
			return nil, fmt.Errorf("creating nats server: %w", err)
		}
		workers["nats"] = ns
		opts = append(opts, dynamic.WithPublisher(messaging.NewEventPublisher(ns)))
	}

	interp := placeholder.NewInterpreter(stories, choices)
	orch := dynamic.NewOrchestrator(stories, choices, interp, assembler, client, opts...)

	http, err := cfg.HTTP.buildListener(orch, interp)
	if err != nil {
		return nil, fmt.Errorf("creating http listener: %w", err)
	}
	workers["http"] = http

	maintenance, err := cfg.Maintenance.buildDriver(stories, choices)
	if err != nil {
		return nil, fmt.Errorf("creating maintenance driver: %w", err)
	}
	workers["maintenance"] = maintenance

	return workers, nil
}
