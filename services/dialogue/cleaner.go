// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package dialogue

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// CleanerConfig configures the background session expiry loop.
type CleanerConfig struct {
	// TTL is the inactivity threshold after which a session expires.
	TTL time.Duration

	// Interval is how often to run a cleanup cycle.
	Interval time.Duration
}

// DefaultCleanerConfig expires sessions idle for 24 hours, checking
// every 10 minutes.
func DefaultCleanerConfig() CleanerConfig {
	return CleanerConfig{
		TTL:      24 * time.Hour,
		Interval: 10 * time.Minute,
	}
}

// Cleaner removes sessions whose last activity is older than the TTL.
// Expiry removes the record from reachability; it never rewrites a live
// session's history.
type Cleaner struct {
	store  SessionStore
	cfg    CleanerConfig
	logger *slog.Logger

	started  bool
	stopOnce sync.Once
	stopCh   chan struct{}
	doneCh   chan struct{}
}

// NewCleaner builds a cleaner. Zero config fields fall back to
// DefaultCleanerConfig values.
func NewCleaner(store SessionStore, cfg CleanerConfig, logger *slog.Logger) *Cleaner {
	defaults := DefaultCleanerConfig()
	if cfg.TTL <= 0 {
		cfg.TTL = defaults.TTL
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaults.Interval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cleaner{
		store:  store,
		cfg:    cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start launches the background loop. Call Stop for a graceful
// shutdown.
func (c *Cleaner) Start() {
	c.started = true
	go func() {
		defer close(c.doneCh)
		ticker := time.NewTicker(c.cfg.Interval)
		defer ticker.Stop()
		c.logger.Info("Session cleaner started", "ttl", c.cfg.TTL, "interval", c.cfg.Interval)
		for {
			select {
			case <-ticker.C:
				c.RunOnce(context.Background())
			case <-c.stopCh:
				return
			}
		}
	}()
}

// RunOnce performs a single cleanup cycle.
func (c *Cleaner) RunOnce(ctx context.Context) {
	cutoff := time.Now().UTC().Add(-c.cfg.TTL)
	removed, err := c.store.ExpireBefore(ctx, cutoff)
	if err != nil {
		c.logger.Error("Session cleanup failed", "error", err)
		return
	}
	if removed > 0 {
		c.logger.Info("Expired idle sessions", "count", removed, "cutoff", cutoff)
	}
}

// Stop halts the loop and waits for it to exit.
func (c *Cleaner) Stop() {
	if !c.started {
		return
	}
	c.stopOnce.Do(func() { close(c.stopCh) })
	<-c.doneCh
}
