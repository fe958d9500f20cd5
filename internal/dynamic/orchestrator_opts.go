package dynamic

type OrchestratorOpt func(*Orchestrator)

// WithPublisher sends generation and choice events to p.
func WithPublisher(p Publisher) OrchestratorOpt {
	return func(o *Orchestrator) {
		o.publisher = p
	}
}
