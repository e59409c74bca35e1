package usecase

import (
	"context"
	"log/slog"

	"github.com/shopsmart/backend/internal/domain"
)

// CapabilityProber checks which model sub-capabilities are usable
type CapabilityProber struct {
	provider domain.AIProvider
	logger   *slog.Logger
}

// NewCapabilityProber creates a prober for provider
func NewCapabilityProber(provider domain.AIProvider, logger *slog.Logger) *CapabilityProber {
	if logger == nil {
		logger = slog.Default()
	}
	return &CapabilityProber{
		provider: provider,
		logger:   logger.With("component", "capability_prober"),
	}
}

// Probe queries every sub-capability independently. A failing endpoint only
// marks its own capability as unavailable.
func (p *CapabilityProber) Probe(ctx context.Context) domain.CapabilityStatus {
	status := domain.CapabilityStatus{
		PromptAPI:     p.probe(ctx, "prompt", p.provider.LanguageModel),
		SummarizerAPI: p.probe(ctx, "summarizer", p.provider.Summarizer),
		WriterAPI:     p.probe(ctx, "writer", p.provider.Writer),
		RewriterAPI:   p.probe(ctx, "rewriter", p.provider.Rewriter),
	}

	p.logger.Info("capabilities probed",
		"prompt", status.PromptAPI,
		"summarizer", status.SummarizerAPI,
		"writer", status.WriterAPI,
		"rewriter", status.RewriterAPI,
	)
	return status
}

// Run probes, publishes the result to runtime and mirrors it into the store as aiStatus
func (p *CapabilityProber) Run(ctx context.Context, runtime *Runtime, store domain.KeyValueStore) domain.CapabilityStatus {
	status := p.Probe(ctx)
	runtime.UpdateCapabilities(status)

	if store != nil {
		if err := setJSON(ctx, store, domain.StoreKeyAIStatus, status); err != nil {
			p.logger.Warn("failed to store capability status", "error", err)
		}
	}
	return status
}

func (p *CapabilityProber) probe(ctx context.Context, name string, endpoint domain.CapabilityEndpoint) (usable bool) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Warn("capability probe panicked", "capability", name, "panic", r)
			usable = false
		}
	}()

	if endpoint == nil {
		p.logger.Debug("capability endpoint missing", "capability", name)
		return false
	}

	availability, err := endpoint.Availability(ctx)
	if err != nil {
		p.logger.Info("capability not available", "capability", name, "error", err)
		return false
	}

	return availability == domain.AvailabilityReadily
}
