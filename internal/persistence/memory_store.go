package persistence

import (
	"sort"
	"sync"
	"time"

	"github.com/petrijr/ritmo/pkg/api"
)

// InMemoryStore is a simple, goroutine-safe implementation of
// PatternStore and ExecutionStore backed by maps.
type InMemoryStore struct {
	mu         sync.RWMutex
	patterns   map[string]*api.Pattern
	executions map[string]*api.WorkflowExecution

	// seq orders executions with identical timestamps so that
	// "newest first" stays deterministic.
	seq    int64
	seqFor map[string]int64
}

// NewInMemoryStore creates a new InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		patterns:   make(map[string]*api.Pattern),
		executions: make(map[string]*api.WorkflowExecution),
		seqFor:     make(map[string]int64),
	}
}

// Ensure InMemoryStore implements the interfaces.
var _ PatternStore = (*InMemoryStore)(nil)

var _ ExecutionStore = (*InMemoryStore)(nil)

func (s *InMemoryStore) SavePattern(p *api.Pattern) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Store a copy so callers can't mutate shared state afterwards.
	cp := clonePattern(p)
	s.patterns[p.ID] = cp
	return nil
}

func (s *InMemoryStore) GetPattern(id string) (*api.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.patterns[id]
	if !ok {
		return nil, ErrPatternNotFound
	}
	return clonePattern(p), nil
}

func (s *InMemoryStore) ListPatterns(filter PatternFilter) ([]*api.Pattern, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.Pattern
	for _, p := range s.patterns {
		if filter.Status != "" && p.Status != filter.Status {
			continue
		}
		result = append(result, clonePattern(p))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

func (s *InMemoryStore) UpdatePatternStatus(id string, status api.PatternStatus, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patterns[id]
	if !ok {
		return ErrPatternNotFound
	}
	p.Status = status
	p.SuspendReason = reason
	return nil
}

func (s *InMemoryStore) SaveExecution(exec *api.WorkflowExecution) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seq++
	s.seqFor[exec.ID] = s.seq
	s.executions[exec.ID] = cloneExecution(exec)
	return nil
}

func (s *InMemoryStore) GetExecution(id string) (*api.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	exec, ok := s.executions[id]
	if !ok {
		return nil, ErrExecutionNotFound
	}
	return cloneExecution(exec), nil
}

func (s *InMemoryStore) ListExecutions(patternID string, onlyWithFeedback bool, limit int) ([]*api.WorkflowExecution, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*api.WorkflowExecution
	for _, exec := range s.executions {
		if exec.PatternID != patternID {
			continue
		}
		if onlyWithFeedback && exec.WasCorrect == nil {
			continue
		}
		result = append(result, cloneExecution(exec))
	}

	// Newest first.
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return s.seqFor[result[i].ID] > s.seqFor[result[j].ID]
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *InMemoryStore) CountExecutionsSince(since time.Time) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, exec := range s.executions {
		if !exec.CreatedAt.Before(since) {
			n++
		}
	}
	return n, nil
}

func (s *InMemoryStore) RecordFeedback(executionID string, wasCorrect bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	exec, ok := s.executions[executionID]
	if !ok {
		return ErrExecutionNotFound
	}
	if exec.WasCorrect != nil {
		return ErrFeedbackAlreadySet
	}
	v := wasCorrect
	exec.WasCorrect = &v
	return nil
}

func clonePattern(p *api.Pattern) *api.Pattern {
	cp := *p
	cp.Actions = make([]api.Action, len(p.Actions))
	for i, a := range p.Actions {
		ca := a
		if a.Params != nil {
			ca.Params = make(map[string]string, len(a.Params))
			for k, v := range a.Params {
				ca.Params[k] = v
			}
		}
		cp.Actions[i] = ca
	}
	return &cp
}

func cloneExecution(exec *api.WorkflowExecution) *api.WorkflowExecution {
	cp := *exec
	if exec.WasCorrect != nil {
		v := *exec.WasCorrect
		cp.WasCorrect = &v
	}
	return &cp
}
