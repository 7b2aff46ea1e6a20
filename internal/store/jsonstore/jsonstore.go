// Package jsonstore persists the signal collections as two JSON files.
// Writes are atomic (write-then-rename) and the load-merge-save cycle is
// guarded by an exclusive lock file so overlapping scheduler invocations
// cannot lose updates.
package jsonstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"claws/internal/logger"
	"claws/internal/store"
	"claws/internal/types"
)

const (
	activeFile = "active_signals.json"
	closedFile = "closed_signals.json"
	lockFile   = ".signals.lock"

	lockRetryInterval = 100 * time.Millisecond
	lockWaitBudget    = 5 * time.Second
	// A lock older than this belongs to a crashed run and is taken over.
	lockStaleAfter = 10 * time.Minute
)

type Store struct {
	dir string
}

func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, &store.PersistenceError{Op: "init", Err: fmt.Errorf("state directory is required")}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, &store.PersistenceError{Op: "init", Err: err}
	}
	return &Store{dir: dir}, nil
}

// Load reads both collections without taking the lock. Missing files mean
// a fresh state, not an error.
func (s *Store) Load(ctx context.Context) (store.State, error) {
	var st store.State
	active, err := s.readSignals(activeFile)
	if err != nil {
		return st, err
	}
	closed, err := s.readSignals(closedFile)
	if err != nil {
		return st, err
	}
	st.Active = active
	st.Closed = closed
	return st, nil
}

// Update locks, loads, applies fn, and atomically persists the result.
// On fn error nothing is written and the prior state stays intact.
func (s *Store) Update(ctx context.Context, fn func(*store.State) error) (store.State, error) {
	release, err := s.acquireLock(ctx)
	if err != nil {
		return store.State{}, err
	}
	defer release()

	st, err := s.Load(ctx)
	if err != nil {
		return store.State{}, err
	}
	if err := fn(&st); err != nil {
		return store.State{}, err
	}
	if err := s.writeSignals(activeFile, st.Active); err != nil {
		return store.State{}, err
	}
	if err := s.writeSignals(closedFile, st.Closed); err != nil {
		return store.State{}, err
	}
	return st, nil
}

func (s *Store) Close() error { return nil }

func (s *Store) readSignals(name string) ([]types.Signal, error) {
	path := filepath.Join(s.dir, name)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &store.PersistenceError{Op: "read " + name, Err: err}
	}
	if err := validateSignalsDoc(data); err != nil {
		return nil, &store.PersistenceError{Op: "validate " + name, Err: err}
	}
	var signals []types.Signal
	if err := json.Unmarshal(data, &signals); err != nil {
		return nil, &store.PersistenceError{Op: "decode " + name, Err: err}
	}
	return signals, nil
}

func (s *Store) writeSignals(name string, signals []types.Signal) error {
	if signals == nil {
		signals = []types.Signal{}
	}
	data, err := json.MarshalIndent(signals, "", "  ")
	if err != nil {
		return &store.PersistenceError{Op: "encode " + name, Err: err}
	}
	path := filepath.Join(s.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return &store.PersistenceError{Op: "write " + name, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &store.PersistenceError{Op: "rename " + name, Err: err}
	}
	return nil
}

// acquireLock creates the lock file with O_EXCL, retrying briefly. A lock
// left behind by a crashed process is detected by age and taken over.
func (s *Store) acquireLock(ctx context.Context) (func(), error) {
	path := filepath.Join(s.dir, lockFile)
	deadline := time.Now().Add(lockWaitBudget)
	for {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err == nil {
			fmt.Fprintf(f, "%d %s\n", os.Getpid(), time.Now().UTC().Format(time.RFC3339))
			f.Close()
			return func() { os.Remove(path) }, nil
		}
		if !os.IsExist(err) {
			return nil, &store.PersistenceError{Op: "lock", Err: err}
		}
		if info, statErr := os.Stat(path); statErr == nil && time.Since(info.ModTime()) > lockStaleAfter {
			logger.Warnf("taking over stale signal lock %s (age %s)", path, time.Since(info.ModTime()).Truncate(time.Second))
			os.Remove(path)
			continue
		}
		if time.Now().After(deadline) {
			return nil, store.ErrLocked
		}
		select {
		case <-ctx.Done():
			return nil, &store.PersistenceError{Op: "lock", Err: ctx.Err()}
		case <-time.After(lockRetryInterval):
		}
	}
}
