package providers

import (
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Factory lazily creates one live Provider instance per registered name and
// caches it for reuse. Instances are shared across concurrent dispatches and
// health probes; construction is deduplicated so concurrent first use of the
// same name builds exactly one instance.
type Factory struct {
	registry *Registry
	builders map[string]Builder
	logger   *zap.Logger

	mu        sync.RWMutex
	instances map[string]Provider
	group     singleflight.Group
}

// NewFactory creates a factory over the registry with the given static
// name->Builder table.
func NewFactory(registry *Registry, builders map[string]Builder, logger *zap.Logger) *Factory {
	return &Factory{
		registry:  registry,
		builders:  builders,
		logger:    logger,
		instances: make(map[string]Provider),
	}
}

// Get returns the cached instance for name, constructing it on first use.
// It returns a *NotConfiguredError when the name has no descriptor and a
// *NotImplementedError when no adapter is registered for it.
func (f *Factory) Get(name string) (Provider, error) {
	f.mu.RLock()
	p, ok := f.instances[name]
	f.mu.RUnlock()
	if ok {
		return p, nil
	}

	v, err, _ := f.group.Do(name, func() (interface{}, error) {
		// An earlier flight may have populated the cache between our read
		// and this call.
		f.mu.RLock()
		p, ok := f.instances[name]
		f.mu.RUnlock()
		if ok {
			return p, nil
		}

		cfg, err := f.registry.Get(name)
		if err != nil {
			return nil, err
		}

		builder, ok := f.builders[name]
		if !ok {
			return nil, &NotImplementedError{Provider: name}
		}

		instance, err := builder(cfg, f.logger)
		if err != nil {
			return nil, err
		}

		f.mu.Lock()
		f.instances[name] = instance
		f.mu.Unlock()

		f.logger.Info("created provider instance", zap.String("provider", name))
		return instance, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(Provider), nil
}

// CloseAll releases every cached instance and clears the cache. It is
// idempotent and runs to completion even when individual closes fail; those
// failures are logged, never propagated.
func (f *Factory) CloseAll() {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, p := range f.instances {
		if err := p.Close(); err != nil {
			f.logger.Warn("failed to close provider",
				zap.String("provider", name),
				zap.Error(err))
		}
	}
	f.instances = make(map[string]Provider)
}

// Count returns the number of live cached instances
func (f *Factory) Count() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.instances)
}
