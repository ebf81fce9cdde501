package pipeline

import (
	"sync"
	"time"
)

// Status is the overall run status.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Step identifiers, in execution order. The two model steps run
// concurrently between split and combine.
const (
	StepFetchData  = "fetch_data"
	StepFeatures   = "feature_engineering"
	StepSplit      = "temporal_split"
	StepRegression = "regression_model"
	StepSeasonal   = "seasonal_model"
	StepCombine    = "combine"
	StepScore      = "score"
)

// StepState is the runtime state of a single pipeline step.
type StepState struct {
	mu        sync.RWMutex
	ID        string     `json:"id"`
	Status    Status     `json:"status"`
	StartTime *time.Time `json:"start_time,omitempty"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Message   string     `json:"message,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// NewStepState creates a pending step state.
func NewStepState(id string) *StepState {
	return &StepState{ID: id, Status: StatusPending}
}

// Start marks the step as running.
func (s *StepState) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.StartTime = &now
	s.Status = StatusRunning
}

// Complete marks the step as completed.
func (s *StepState) Complete(message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StatusCompleted
	s.Message = message
}

// Fail marks the step as failed.
func (s *StepState) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now()
	s.EndTime = &now
	s.Status = StatusFailed
	if err != nil {
		s.Error = err.Error()
	}
}

// Duration returns how long the step ran.
func (s *StepState) Duration() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.StartTime == nil {
		return 0
	}
	if s.EndTime != nil {
		return s.EndTime.Sub(*s.StartTime)
	}
	return time.Since(*s.StartTime)
}

// RunState is the complete state of one forecast run. A run walks
// pending → running → completed, with failed reachable from any
// non-terminal point; a failure aborts the remaining steps and discards
// partial results.
type RunState struct {
	mu sync.RWMutex

	ID        string     `json:"id"`
	Symbol    string     `json:"symbol"`
	Status    Status     `json:"status"`
	StartTime time.Time  `json:"start_time"`
	EndTime   *time.Time `json:"end_time,omitempty"`
	Error     string     `json:"error,omitempty"`

	Steps map[string]*StepState `json:"steps"`
}

// NewRunState creates a pending run with all step slots registered.
func NewRunState(id, symbol string) *RunState {
	steps := make(map[string]*StepState)
	for _, stepID := range []string{
		StepFetchData, StepFeatures, StepSplit,
		StepRegression, StepSeasonal, StepCombine, StepScore,
	} {
		steps[stepID] = NewStepState(stepID)
	}
	return &RunState{
		ID:        id,
		Symbol:    symbol,
		Status:    StatusPending,
		StartTime: time.Now(),
		Steps:     steps,
	}
}

// Start marks the run as running.
func (r *RunState) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Status = StatusRunning
	r.StartTime = time.Now()
}

// Complete marks the run as completed.
func (r *RunState) Complete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = StatusCompleted
}

// Fail marks the run as failed.
func (r *RunState) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	r.EndTime = &now
	r.Status = StatusFailed
	if err != nil {
		r.Error = err.Error()
	}
}

// Step returns the state of a specific step.
func (r *RunState) Step(id string) *StepState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.Steps[id]
}

// Duration returns the run duration.
func (r *RunState) Duration() time.Duration {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.EndTime != nil {
		return r.EndTime.Sub(r.StartTime)
	}
	return time.Since(r.StartTime)
}

// Snapshot returns a copy safe to serialize while the run progresses.
func (r *RunState) Snapshot() RunSnapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	snap := RunSnapshot{
		ID:        r.ID,
		Symbol:    r.Symbol,
		Status:    r.Status,
		StartTime: r.StartTime,
		Error:     r.Error,
		Steps:     make([]StepSnapshot, 0, len(r.Steps)),
	}
	if r.EndTime != nil {
		end := *r.EndTime
		snap.EndTime = &end
	}
	for _, id := range []string{
		StepFetchData, StepFeatures, StepSplit,
		StepRegression, StepSeasonal, StepCombine, StepScore,
	} {
		s := r.Steps[id]
		s.mu.RLock()
		snap.Steps = append(snap.Steps, StepSnapshot{
			ID:      s.ID,
			Status:  s.Status,
			Message: s.Message,
			Error:   s.Error,
		})
		s.mu.RUnlock()
	}
	return snap
}

// RunSnapshot is an immutable view of a run.
type RunSnapshot struct {
	ID        string         `json:"id"`
	Symbol    string         `json:"symbol"`
	Status    Status         `json:"status"`
	StartTime time.Time      `json:"start_time"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Error     string         `json:"error,omitempty"`
	Steps     []StepSnapshot `json:"steps"`
}

// StepSnapshot is an immutable view of a step.
type StepSnapshot struct {
	ID      string `json:"id"`
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
