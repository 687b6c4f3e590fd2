// Package org models the read-only organization settings collaborator.
// The compliance engine never writes these; each market context supplies
// its own values.
package org

import (
	"context"
	"sync"
)

// Settings are the per-organization compliance knobs.
type Settings struct {
	BlockOnPII      bool
	RequireConsent  bool
	NotifyGuardians bool
	RetentionDays   int
}

// Provider supplies settings per organization. Implementations must be
// safe for concurrent use.
type Provider interface {
	Settings(ctx context.Context, orgID string) Settings
}

// StaticProvider serves a fixed default with optional per-org overrides.
// It stands in for the platform's organization service in deployments that
// configure compliance through the environment.
type StaticProvider struct {
	mu        sync.RWMutex
	defaults  Settings
	overrides map[string]Settings
}

// NewStaticProvider constructs a provider returning defaults for every org.
func NewStaticProvider(defaults Settings) *StaticProvider {
	return &StaticProvider{
		defaults:  defaults,
		overrides: make(map[string]Settings),
	}
}

// SetOverride pins settings for one organization.
func (p *StaticProvider) SetOverride(orgID string, s Settings) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.overrides[orgID] = s
}

// Settings returns the org's settings, falling back to the defaults.
func (p *StaticProvider) Settings(_ context.Context, orgID string) Settings {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if s, ok := p.overrides[orgID]; ok {
		return s
	}
	return p.defaults
}
