// Package model holds the shared application model the command layer
// mutates through applied updates. The command layer itself never interprets
// paths or values; this package is the consuming collaborator.
package model

import (
	"context"
	"sync"

	"github.com/phrazzld/subtext/internal/command"
)

// Document is a path-addressed view of the working document. It satisfies
// command.ModelApplier, consuming updates in order.
type Document struct {
	mu     sync.RWMutex
	values map[string]any
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		values: make(map[string]any),
	}
}

// Apply consumes model updates in append order.
func (d *Document) Apply(_ context.Context, updates []*command.ModelUpdate) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, update := range updates {
		for _, op := range update.Ops() {
			switch op.Kind {
			case command.OpPut:
				d.values[op.Path] = op.Value
			case command.OpRemove:
				delete(d.values, op.Path)
			}
		}
	}
	return nil
}

// Get returns the value at the given path, if present.
func (d *Document) Get(path string) (any, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	value, ok := d.values[path]
	return value, ok
}

// Snapshot returns a copy of the document's current contents.
func (d *Document) Snapshot() map[string]any {
	d.mu.RLock()
	defer d.mu.RUnlock()

	snapshot := make(map[string]any, len(d.values))
	for path, value := range d.values {
		snapshot[path] = value
	}
	return snapshot
}

// Len returns the number of populated paths.
func (d *Document) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.values)
}
