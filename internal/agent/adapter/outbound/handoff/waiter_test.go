package handoff

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/google/uuid"
)

type scriptedSource struct {
	mu     sync.Mutex
	states []domain.ClusterState
	errs   []error
	calls  int
}

func (s *scriptedSource) ClusterState(ctx context.Context) (domain.ClusterState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i := min(s.calls, len(s.states)-1)
	s.calls++
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.states[i], err
}

func primaryState(host string, id uuid.UUID) domain.NodeState {
	return domain.NewNodeState(host, domain.Manifestation{Dataset: domain.Dataset{DatasetID: id}, Primary: true})
}

func TestWaiter_ReturnsOnceReleased(t *testing.T) {
	id := uuid.New()
	held := domain.ClusterState{Nodes: []domain.NodeState{primaryState("h1", id)}}
	released := domain.ClusterState{Nodes: []domain.NodeState{domain.NewNodeState("h1")}}
	src := &scriptedSource{
		states: []domain.ClusterState{held, held, {}, released},
		errs:   []error{nil, nil, errors.New("transient"), nil},
	}

	w := NewWaiter("h2", src, time.Millisecond)
	if err := w.WaitForRelease(context.Background(), id); err != nil {
		t.Fatalf("expected release, got %v", err)
	}
	if src.calls != 4 {
		t.Fatalf("expected 4 polls, got %d", src.calls)
	}
}

func TestWaiter_IgnoresOwnPrimary(t *testing.T) {
	id := uuid.New()
	src := &scriptedSource{states: []domain.ClusterState{{Nodes: []domain.NodeState{primaryState("h2", id)}}}}

	w := NewWaiter("h2", src, time.Millisecond)
	if err := w.WaitForRelease(context.Background(), id); err != nil {
		t.Fatalf("expected no wait on own primary, got %v", err)
	}
}

func TestWaiter_TimesOut(t *testing.T) {
	id := uuid.New()
	src := &scriptedSource{states: []domain.ClusterState{{Nodes: []domain.NodeState{primaryState("h1", id)}}}}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := NewWaiter("h2", src, 2*time.Millisecond).WaitForRelease(ctx, id)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}
