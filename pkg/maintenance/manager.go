package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrymomot/apigate/pkg/flagstore"
)

// Store keys. Both live in the shared flag store so every worker sees the
// same mode.
const (
	flagKey  = "maintenance:enabled"
	stateKey = "maintenance:state"
)

// Manager reads and writes the shared maintenance state.
// The gating middleware only reads; operator surfaces (CLI, scheduler)
// write through Enable, Disable and UpdateProgress.
type Manager struct {
	flags  flagstore.Store[bool]
	states flagstore.Store[State]
}

// NewManager creates a manager over the two backing stores. Both stores
// should share one backend (same Redis client or the same process).
func NewManager(flags flagstore.Store[bool], states flagstore.Store[State]) *Manager {
	return &Manager{flags: flags, states: states}
}

// Enable turns maintenance mode on with the given details. The details are
// normalized and written before the flag so a request never observes the
// flag without details. Entries never expire; only Disable clears them.
func (m *Manager) Enable(ctx context.Context, s State) error {
	s = s.Normalize()
	if s.StartTime.IsZero() {
		s.StartTime = time.Now().UTC()
	}

	if err := m.states.Set(ctx, stateKey, s, -1); err != nil {
		return fmt.Errorf("store maintenance state: %w", err)
	}
	if err := m.flags.Set(ctx, flagKey, true, -1); err != nil {
		return fmt.Errorf("store maintenance flag: %w", err)
	}
	return nil
}

// Disable turns maintenance mode off and clears the stored details.
// The flag is removed first, so from the caller's perspective requests are
// admitted immediately; the details key is cleaned up right after.
func (m *Manager) Disable(ctx context.Context) error {
	if err := m.flags.Delete(ctx, flagKey); err != nil {
		return fmt.Errorf("clear maintenance flag: %w", err)
	}
	if err := m.states.Delete(ctx, stateKey); err != nil {
		return fmt.Errorf("clear maintenance state: %w", err)
	}
	return nil
}

// UpdateProgress merges a clamped progress percentage (and optionally a new
// message) into the existing details. Missing details start from defaults.
func (m *Manager) UpdateProgress(ctx context.Context, percent int, message string) error {
	s, err := m.states.Get(ctx, stateKey)
	if err != nil {
		if !errors.Is(err, flagstore.ErrNotFound) {
			return fmt.Errorf("load maintenance state: %w", err)
		}
		s = DefaultState()
	}

	s.Progress = percent
	if message != "" {
		s.Message = message
	}

	if err := m.states.Set(ctx, stateKey, s.Normalize(), -1); err != nil {
		return fmt.Errorf("store maintenance state: %w", err)
	}
	return nil
}

// Enabled reports whether the maintenance flag is set.
func (m *Manager) Enabled(ctx context.Context) (bool, error) {
	enabled, err := m.flags.Get(ctx, flagKey)
	if err != nil {
		if errors.Is(err, flagstore.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("load maintenance flag: %w", err)
	}
	return enabled, nil
}

// Status returns the flag together with the stored details. Missing details
// fall back to the defaults table.
func (m *Manager) Status(ctx context.Context) (Status, error) {
	enabled, err := m.Enabled(ctx)
	if err != nil {
		return Status{}, err
	}

	s, err := m.states.Get(ctx, stateKey)
	if err != nil {
		if !errors.Is(err, flagstore.ErrNotFound) {
			return Status{}, fmt.Errorf("load maintenance state: %w", err)
		}
		s = DefaultState()
	}

	return Status{Enabled: enabled, State: s.Normalize()}, nil
}
