package idgen

import (
	"testing"
	"time"
)

type MockClock struct {
	CurrentTime int64
}

func (m *MockClock) Now() int64 {
	return m.CurrentTime
}

func TestSnowflake_Next(t *testing.T) {
	clock := &MockClock{CurrentTime: Epoch + 1000}
	sf, err := New(1, clock)
	if err != nil {
		t.Fatalf("Failed to create Snowflake: %v", err)
	}

	id1, err := sf.Next()
	if err != nil {
		t.Fatalf("Failed to generate ID: %v", err)
	}
	id2, err := sf.Next()
	if err != nil {
		t.Fatalf("Failed to generate ID: %v", err)
	}

	if id1 >= id2 {
		t.Errorf("IDs must be monotonic increasing, got %d then %d", id1, id2)
	}
	if got := (id1 >> nodeShift) & maxNodeID; got != 1 {
		t.Errorf("expected node id 1 encoded in id, got %d", got)
	}
}

func TestSnowflake_NodeIDTooLarge(t *testing.T) {
	if _, err := New(1024, nil); err != ErrNodeIDTooLarge {
		t.Errorf("Expected ErrNodeIDTooLarge, got %v", err)
	}
}

func TestSnowflake_ClockMovedBack(t *testing.T) {
	clock := &MockClock{CurrentTime: Epoch + 2000}
	sf, _ := New(1, clock)

	_, _ = sf.Next()

	clock.CurrentTime = Epoch + 1000
	if _, err := sf.Next(); err != ErrClockMovedBack {
		t.Errorf("Expected ErrClockMovedBack, got %v", err)
	}
}

func TestNodeIDFromHostname(t *testing.T) {
	a := NodeIDFromHostname("node-a")
	if a != NodeIDFromHostname("node-a") {
		t.Fatalf("expected stable node id")
	}
	if a < 0 || a > maxNodeID {
		t.Fatalf("node id out of range: %d", a)
	}
	if _, err := New(a, nil); err != nil {
		t.Fatalf("derived node id rejected: %v", err)
	}
}

func TestSnowflake_Concurrency(t *testing.T) {
	sf, _ := New(1, &SystemClock{})
	numGoroutines := 20
	numIDs := 500
	ids := make(chan int64, numGoroutines*numIDs)

	for i := 0; i < numGoroutines; i++ {
		go func() {
			for j := 0; j < numIDs; j++ {
				id, err := sf.Next()
				if err != nil {
					t.Errorf("Concurrent generation failed: %v", err)
				}
				ids <- id
			}
		}()
	}

	seen := make(map[int64]bool)
	for i := 0; i < numGoroutines*numIDs; i++ {
		select {
		case id := <-ids:
			if seen[id] {
				t.Errorf("Duplicate ID generated: %d", id)
			}
			seen[id] = true
		case <-time.After(5 * time.Second):
			t.Fatalf("Timeout waiting for IDs")
		}
	}
}
