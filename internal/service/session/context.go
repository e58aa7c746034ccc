package session

import (
	"context"
	"sync"
	"time"

	"eppdetect/internal/logger"
	"eppdetect/internal/model"
)

const mirrorTimeout = 2 * time.Second

// Mirror persists the last verdict outside the process.
type Mirror interface {
	Store(ctx context.Context, verdict model.ComplianceVerdict) error
	Load(ctx context.Context) (model.ComplianceVerdict, bool, error)
}

// Context holds the most recent image verdict. Concurrent writers race and
// the last Set to take the lock wins; there is no history. The mirror sees
// writes in the same order as the in-memory slot.
type Context struct {
	writeMu sync.Mutex // serializes Set, including the mirror write
	mu      sync.RWMutex
	verdict *model.ComplianceVerdict

	mirror Mirror
	logger *logger.Logger
}

// New creates an empty session context.
func New() *Context {
	return &Context{logger: logger.Nop()}
}

// WithMirror copies every verdict to m. Mirror failures are logged and never
// affect the in-memory slot.
func (c *Context) WithMirror(m Mirror, l *logger.Logger) *Context {
	c.mirror = m
	if l != nil {
		c.logger = l
	}
	return c
}

// Set overwrites the current verdict.
func (c *Context) Set(verdict model.ComplianceVerdict) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	c.mu.Lock()
	c.verdict = &verdict
	c.mu.Unlock()

	if c.mirror == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
	defer cancel()
	if err := c.mirror.Store(ctx, verdict); err != nil {
		c.logger.Warning("Failed to mirror last analysis: %v", err)
	}
}

// Get returns the current verdict, or false when no analysis ran yet.
func (c *Context) Get() (model.ComplianceVerdict, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.verdict == nil {
		return model.ComplianceVerdict{}, false
	}
	return *c.verdict, true
}

// Restore loads the mirrored verdict into an empty slot, e.g. after a restart.
func (c *Context) Restore(ctx context.Context) error {
	if c.mirror == nil {
		return nil
	}
	verdict, ok, err := c.mirror.Load(ctx)
	if err != nil || !ok {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.verdict == nil {
		c.verdict = &verdict
		c.logger.Info("Restored last analysis of %s from mirror", verdict.Source)
	}
	return nil
}
