// Package model provides state management, shared interfaces and
// persistence for learners and transformers.
package model

import (
	"sync"

	"github.com/YuminosukeSato/linreg/pkg/errors"
)

// ModelState は学習状態のスナップショットです。
type ModelState struct {
	Fitted bool `json:"fitted"`
	// Features is the number of columns the model was fitted on.
	Features int `json:"n_features,omitempty"`
	// Rows is the number of rows that entered the fit.
	Rows int `json:"n_rows,omitempty"`
	// Generation counts successful fits since creation.
	Generation uint64 `json:"generation,omitempty"`
}

// StateManager は学習済みかどうかと、学習時の列数・行数を保持します。
// 学習結果そのものは呼び出し側が持ち、Commit と Read を通して状態と
// 一緒に公開・参照します。並行に使用しても安全です。
type StateManager struct {
	mu    sync.RWMutex
	state ModelState
}

// NewStateManager creates an unfitted state.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted reports whether a fit has been committed since the last Reset.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Fitted
}

// Commit runs publish under the write lock and marks the model fitted on
// features columns and rows rows. A reader inside Read sees either the old
// state and value or both new ones. publish may be nil.
func (s *StateManager) Commit(features, rows int, publish func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if publish != nil {
		publish()
	}
	s.state.Fitted = true
	s.state.Features = features
	s.state.Rows = rows
	s.state.Generation++
}

// Read runs fn under the read lock.
func (s *StateManager) Read(fn func(ModelState)) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	fn(s.state)
}

// Reset marks the model unfitted. clear, if not nil, runs under the write
// lock so that the caller can drop its result at the same time. The
// generation counter is kept.
func (s *StateManager) Reset(clear func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if clear != nil {
		clear()
	}
	s.state = ModelState{Generation: s.state.Generation}
}

// State returns a snapshot of the state.
func (s *StateManager) State() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// RequireFitted returns a NotFittedError naming modelName and method if no
// fit has been committed.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}
