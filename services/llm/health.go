package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// ProviderHealth is the probe result for one provider. Ephemeral: recomputed
// on every sweep, never persisted.
type ProviderHealth struct {
	Available    bool   `json:"available"`
	Endpoint     string `json:"endpoint,omitempty"`
	DefaultModel string `json:"default_model,omitempty"`
	Error        string `json:"error,omitempty"`
}

// HealthCheck probes every enabled provider concurrently and returns the
// per-provider status map. Instance acquisition failures and probe failures
// are absorbed into the entry's error detail; the sweep itself never fails.
// The sweep completes when the slowest probe completes or times out.
func (s *Service) HealthCheck(ctx context.Context) map[string]ProviderHealth {
	enabled := s.registry.Enabled()
	results := make(map[string]ProviderHealth, len(enabled))

	var (
		mu sync.Mutex
		wg sync.WaitGroup
	)
	for _, name := range enabled {
		wg.Add(1)
		go func(name string) {
			defer wg.Done()
			record := s.probe(ctx, name)
			mu.Lock()
			results[name] = record
			mu.Unlock()
		}(name)
	}
	wg.Wait()

	return results
}

// probe checks a single provider's reachability
func (s *Service) probe(ctx context.Context, name string) ProviderHealth {
	record := ProviderHealth{}
	if desc, err := s.registry.Get(name); err == nil {
		record.Endpoint = desc.Endpoint
		record.DefaultModel = desc.DefaultModel
	}

	p, err := s.source.Get(name)
	if err != nil {
		s.logger.Debug("health probe could not acquire provider",
			zap.String("provider", name),
			zap.Error(err))
		record.Error = err.Error()
		return record
	}

	record.Available = p.HealthCheck(ctx)
	return record
}

// IsHealthy reports overall health: healthy iff at least one provider is
// reachable.
func IsHealthy(statuses map[string]ProviderHealth) bool {
	for _, st := range statuses {
		if st.Available {
			return true
		}
	}
	return false
}
