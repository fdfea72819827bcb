package jobs

import (
	"encoding/json"
	"errors"
	"sync"
)

// Status is the state of the speed-test job. It is a closed set: Idle,
// Running, Succeeded and Failed are the only implementations, and only
// Failed carries a message.
type Status interface {
	// Tag is the serialized name of the variant.
	Tag() string
	isStatus()
}

// Idle means no run has been started since the process came up.
type Idle struct{}

// Running means a run has been admitted and has not finished yet.
type Running struct{}

// Succeeded means the last run exited successfully. The results are read
// separately from the output artifact.
type Succeeded struct{}

// Failed means the last run could not complete; Message is the
// human-readable cause.
type Failed struct {
	Message string
}

func (Idle) Tag() string      { return "Idle" }
func (Running) Tag() string   { return "Running" }
func (Succeeded) Tag() string { return "Succeeded" }
func (Failed) Tag() string    { return "Failed" }

func (Idle) isStatus()      {}
func (Running) isStatus()   {}
func (Succeeded) isStatus() {}
func (Failed) isStatus()    {}

func (Idle) MarshalJSON() ([]byte, error)      { return json.Marshal("Idle") }
func (Running) MarshalJSON() ([]byte, error)   { return json.Marshal("Running") }
func (Succeeded) MarshalJSON() ([]byte, error) { return json.Marshal("Succeeded") }
func (Failed) MarshalJSON() ([]byte, error)    { return json.Marshal("Failed") }

// IsTerminal reports whether s is a state a run ends in.
func IsTerminal(s Status) bool {
	switch s.(type) {
	case Succeeded, Failed:
		return true
	case Idle, Running:
		return false
	default:
		return false
	}
}

var ErrNotTerminal = errors.New("status is not terminal")

// StatusStore is the single shared status cell. Readers take the read
// lock; admission and completion take the write lock. The lock is never
// held while a run executes.
type StatusStore struct {
	mu     sync.RWMutex
	status Status
}

// NewStatusStore returns a store holding Idle.
func NewStatusStore() *StatusStore {
	return &StatusStore{status: Idle{}}
}

// Load returns the current status.
func (s *StatusStore) Load() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// TryBegin moves the store to Running unless it already is. The check and
// the write happen under one lock so at most one caller wins.
func (s *StatusStore) TryBegin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, running := s.status.(Running); running {
		return false
	}
	s.status = Running{}
	return true
}

// Finish stores the terminal status of a run.
func (s *StatusStore) Finish(status Status) error {
	if status == nil || !IsTerminal(status) {
		return ErrNotTerminal
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	return nil
}
