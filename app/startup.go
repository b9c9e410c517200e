package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// CheckProviderConnectivity runs one health sweep before the server starts
// serving, logs which providers are reachable, and switches the effective
// default provider when the configured one is down but an alternative is up.
// It fails only when no provider at all is reachable.
func (d *Dependencies) CheckProviderConnectivity(ctx context.Context) error {
	statuses := d.LLM.HealthCheck(ctx)

	var available, unavailable []string
	for _, name := range d.Registry.Enabled() {
		if st, ok := statuses[name]; ok && st.Available {
			available = append(available, name)
		} else {
			unavailable = append(unavailable, name)
		}
	}

	d.Logger.Info("provider connectivity check complete",
		zap.Strings("available", available),
		zap.Strings("unavailable", unavailable))

	if len(available) == 0 {
		return fmt.Errorf("no LLM providers are reachable")
	}

	current := d.LLM.DefaultProvider()
	for _, name := range available {
		if name == current {
			return nil
		}
	}

	d.Logger.Warn("default provider unreachable, switching",
		zap.String("configured_default", current),
		zap.String("new_default", available[0]))
	d.LLM.SetDefaultProvider(available[0])

	return nil
}
