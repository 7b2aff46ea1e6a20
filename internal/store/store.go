// Package store abstracts persistence of the two signal collections so
// the lifecycle manager never knows whether it is talking to JSON files
// or a database.
package store

import (
	"context"
	"errors"
	"fmt"

	"claws/internal/types"
)

// State is the persisted pair of collections. Active holds at most one
// signal per (symbol, strategy) key; Closed is append-only with bounded
// retention.
type State struct {
	Active []types.Signal `json:"active_signals"`
	Closed []types.Signal `json:"closed_signals"`
}

// Store owns the load-merge-save cycle. Update runs fn with exclusive
// access to the state: implementations must guarantee mutual exclusion
// against overlapping runs (file lock, transaction) and atomic writes so
// a crash never corrupts prior state.
type Store interface {
	Update(ctx context.Context, fn func(*State) error) (State, error)
	Load(ctx context.Context) (State, error)
	Close() error
}

// ErrLocked reports that another run currently holds the state.
var ErrLocked = errors.New("signal state is locked by another run")

// PersistenceError wraps any read/write failure. It is fatal for the run;
// the prior on-disk state stays intact.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }
