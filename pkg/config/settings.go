package config

import "sync/atomic"

// SystemSettings publishes the live system configuration. A reload swaps the
// whole snapshot; readers take one consistent pointer per turn, so a turn in
// flight never sees a half-updated config.
type SystemSettings struct {
	p atomic.Pointer[SystemConfig]
}

// NewSystemSettings wraps an initial config. A nil config falls back to the
// defaults.
func NewSystemSettings(cfg *SystemConfig) *SystemSettings {
	s := &SystemSettings{}
	if cfg == nil {
		cfg = DefaultSystemConfig()
	}
	s.p.Store(cfg)
	return s
}

// Current returns the active snapshot. Callers must not mutate it.
func (s *SystemSettings) Current() *SystemConfig {
	return s.p.Load()
}

// Replace publishes a new snapshot for subsequent turns.
func (s *SystemSettings) Replace(cfg *SystemConfig) {
	if cfg == nil {
		return
	}
	s.p.Store(cfg)
}
