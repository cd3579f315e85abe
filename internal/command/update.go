package command

import "context"

// OpKind identifies the kind of mutation an update op describes
type OpKind string

// Possible update op kinds
const (
	OpPut    OpKind = "put"
	OpRemove OpKind = "remove"
)

// UpdateOp is a single intended mutation of the application model. The
// command layer never interprets paths or values; both are opaque to it.
type UpdateOp struct {
	Kind  OpKind
	Path  string
	Value any
}

// ModelUpdate is an ordered, append-only record of state changes a command
// intends to apply to the shared application model. It is owned exclusively
// by its command until the executor consumes it after a successful run.
type ModelUpdate struct {
	ops []UpdateOp
}

// Put records a value to be written at the given path.
func (u *ModelUpdate) Put(path string, value any) {
	u.ops = append(u.ops, UpdateOp{Kind: OpPut, Path: path, Value: value})
}

// Remove records a deletion of the value at the given path.
func (u *ModelUpdate) Remove(path string) {
	u.ops = append(u.ops, UpdateOp{Kind: OpRemove, Path: path})
}

// Empty reports whether the update records no ops.
func (u *ModelUpdate) Empty() bool {
	return len(u.ops) == 0
}

// Ops returns a copy of the recorded ops in append order.
func (u *ModelUpdate) Ops() []UpdateOp {
	ops := make([]UpdateOp, len(u.ops))
	copy(ops, u.ops)
	return ops
}

// ModelApplier is the collaborator that applies model updates to the shared
// application model. The executor calls it after a command succeeds; the
// command layer only produces updates and hands them off.
type ModelApplier interface {
	Apply(ctx context.Context, updates []*ModelUpdate) error
}
