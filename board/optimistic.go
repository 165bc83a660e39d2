package board

// Tx is a minimal optimistic transaction: it retains a snapshot of the value
// as it was before a local mutation, so the caller can apply the mutation
// immediately, then either Commit after remote confirmation or take Revert's
// snapshot back when the remote side fails.
type Tx[T any] struct {
	snapshot T
	settled  bool
}

// Begin snapshots the current value.
func Begin[T any](current T) *Tx[T] {
	return &Tx[T]{snapshot: current}
}

// Snapshot returns the retained pre-mutation value.
func (t *Tx[T]) Snapshot() T {
	return t.snapshot
}

// Commit marks the optimistic mutation as confirmed.
func (t *Tx[T]) Commit() {
	t.settled = true
}

// Revert marks the transaction as rolled back and returns the snapshot.
func (t *Tx[T]) Revert() T {
	t.settled = true
	return t.snapshot
}

// Settled reports whether the transaction reached a terminal outcome.
func (t *Tx[T]) Settled() bool {
	return t.settled
}
