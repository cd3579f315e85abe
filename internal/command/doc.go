// Package command implements the application command layer: undoable,
// cancellable units of work executed asynchronously by a bounded worker
// pool, with blocking-command serialization and undo/redo history.
package command
