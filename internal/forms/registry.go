package forms

import (
	"log/slog"
	"sync"
)

// The registry maps a step's form key to its declarative config. Step
// content providers register here at init; the API layer looks configs up
// when mounting a step.

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Config)
)

// Register associates a form key with its persistence config. The OnComplete
// callback is deliberately not part of the registered template; it is bound
// per mount.
func Register(cfg Config) {
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, exists := registry[cfg.Key]; exists {
		slog.Warn("forms.Register: overwriting config", "key", cfg.Key)
	}
	registry[cfg.Key] = cfg
}

// Lookup retrieves the config registered for a form key. Unregistered keys
// fall back to a plain free-text config, so every catalog step with a form
// key is mountable.
func Lookup(key string) Config {
	registryMu.RLock()
	defer registryMu.RUnlock()
	if cfg, ok := registry[key]; ok {
		return cfg
	}
	return Config{Key: key, Strategy: StrategyUpsert}
}
