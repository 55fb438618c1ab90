// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"fmt"
	"strings"
	"time"
)

// Validator validates configuration against schema rules.
type Validator struct{}

// NewValidator creates a new config validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidationError aggregates every field failure found by one Validate
// call, rather than failing fast on the first.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single field validation failure.
type FieldError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	var msgs []string
	for _, fe := range e.Errors {
		msgs = append(msgs, fmt.Sprintf("%s: %s", fe.Field, fe.Message))
	}
	return strings.Join(msgs, "; ")
}

// IsEmpty returns true if there are no validation errors.
func (e *ValidationError) IsEmpty() bool {
	return len(e.Errors) == 0
}

// Add adds a field error.
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// Validate checks configuration validity.
func (v *Validator) Validate(cfg *Config) error {
	errs := &ValidationError{}

	v.validateServer(cfg, errs)
	v.validateCLI(cfg, errs)
	v.validateDurations(cfg, errs)
	v.validateCache(cfg, errs)

	if errs.IsEmpty() {
		return nil
	}
	return errs
}

func (v *Validator) validateServer(cfg *Config, errs *ValidationError) {
	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		errs.Add("server.port", "must be between 1 and 65535")
	}
}

func (v *Validator) validateCLI(cfg *Config, errs *ValidationError) {
	if cfg.CLI.MaxOutputTokens < 0 {
		errs.Add("cli.max_output_tokens", "must not be negative")
	}
}

func (v *Validator) validateDurations(cfg *Config, errs *ValidationError) {
	durations := map[string]string{
		"session.idle_timeout":   cfg.Session.IdleTimeout,
		"session.sweep_interval": cfg.Session.SweepInterval,
		"cache.l1_ttl":           cfg.Cache.L1TTL,
		"cache.l2_ttl":           cfg.Cache.L2TTL,
	}
	for field, raw := range durations {
		if raw == "" {
			continue
		}
		if _, err := time.ParseDuration(raw); err != nil {
			errs.Add(field, fmt.Sprintf("invalid duration %q: %v", raw, err))
		}
	}
}

func (v *Validator) validateCache(cfg *Config, errs *ValidationError) {
	if cfg.Cache.L1MaxEntries < 0 {
		errs.Add("cache.l1_max_entries", "must not be negative")
	}
	if cfg.Session.MaxConcurrentSpawns < 0 {
		errs.Add("session.max_concurrent_spawns", "must not be negative")
	}
}

// ParseDuration is a small helper kept alongside the validator so
// callers (main.go) parse the same validated strings the same way.
func ParseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}
	return d
}
