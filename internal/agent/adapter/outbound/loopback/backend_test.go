package loopback

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/service/mocks"
	"github.com/google/uuid"
	"go.uber.org/mock/gomock"
)

func TestLoopback_CreateResizeDiscover(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBackend("h1", dir, nil)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	ctx := context.Background()
	d := domain.Dataset{DatasetID: uuid.New(), MaximumSize: 4096, Metadata: map[string]string{"name": "db"}}

	if _, err := b.CreateDataset(ctx, d); err != nil {
		t.Fatalf("CreateDataset: %v", err)
	}
	if _, err := b.ResizeDataset(ctx, d.WithMaximumSize(8192)); err != nil {
		t.Fatalf("ResizeDataset: %v", err)
	}

	info, err := os.Stat(filepath.Join(dir, d.DatasetID.String()+ImageSuffix))
	if err != nil {
		t.Fatalf("expected image file: %v", err)
	}
	if info.Size() != 8192 {
		t.Fatalf("expected image size 8192, got %d", info.Size())
	}

	// A fresh backend over the same directory rediscovers the dataset.
	again, _ := NewBackend("h1", dir, nil)
	state, err := again.DiscoverState(ctx)
	if err != nil {
		t.Fatalf("DiscoverState: %v", err)
	}
	m, ok := state.Manifestation(d.DatasetID)
	if !ok || !m.Primary {
		t.Fatalf("expected primary manifestation, got %+v (found=%v)", m, ok)
	}
	if m.Dataset.MaximumSize != 8192 || m.Dataset.Metadata["name"] != "db" {
		t.Fatalf("unexpected dataset %+v", m.Dataset)
	}
}

func TestLoopback_HandoffAndDelete(t *testing.T) {
	b, _ := NewBackend("h1", t.TempDir(), nil)
	ctx := context.Background()
	d := domain.Dataset{DatasetID: uuid.New(), MaximumSize: 1024}

	if err := b.HandoffDataset(ctx, d, "h2"); err == nil {
		t.Fatalf("expected handoff of unknown dataset to fail")
	}

	_, _ = b.CreateDataset(ctx, d)
	if err := b.HandoffDataset(ctx, d, "h2"); err != nil {
		t.Fatalf("HandoffDataset: %v", err)
	}
	state, _ := b.DiscoverState(ctx)
	if m := state.Manifestations[d.DatasetID]; m.Primary {
		t.Fatalf("expected replica after handoff")
	}

	for i := 0; i < 2; i++ {
		if err := b.DeleteDataset(ctx, d.DatasetID); err != nil {
			t.Fatalf("DeleteDataset attempt %d: %v", i, err)
		}
	}
	state, _ = b.DiscoverState(ctx)
	if len(state.Manifestations) != 0 {
		t.Fatalf("expected no manifestations, got %d", len(state.Manifestations))
	}
}

func TestLoopback_CorruptManifestFailsDiscovery(t *testing.T) {
	dir := t.TempDir()
	b, _ := NewBackend("h1", dir, nil)
	id := uuid.New()
	if err := os.WriteFile(filepath.Join(dir, id.String()+ManifestSuffix), []byte("{"), 0640); err != nil {
		t.Fatal(err)
	}

	if _, err := b.DiscoverState(context.Background()); err == nil {
		t.Fatalf("expected discovery error for corrupt manifest")
	}
}

func TestLoopback_WaitDelegatesToWaiter(t *testing.T) {
	ctrl := gomock.NewController(t)
	waiter := mocks.NewMockReleaseWaiter(ctrl)
	d := domain.Dataset{DatasetID: uuid.New()}
	waiter.EXPECT().WaitForRelease(gomock.Any(), d.DatasetID).Return(nil)

	b, _ := NewBackend("h1", t.TempDir(), waiter)
	if err := b.WaitForDataset(context.Background(), d); err != nil {
		t.Fatalf("WaitForDataset: %v", err)
	}
}

func TestLoopback_RejectsOversizedImage(t *testing.T) {
	dir := t.TempDir()
	b, err := NewBackend("h1", dir, nil)
	if err != nil {
		t.Fatalf("NewBackend: %v", err)
	}
	d := domain.Dataset{DatasetID: uuid.New(), MaximumSize: math.MaxInt64 + 1}

	if _, err := b.CreateDataset(context.Background(), d); !errors.Is(err, ErrSizeTooLarge) {
		t.Fatalf("expected ErrSizeTooLarge, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, d.DatasetID.String()+ImageSuffix)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected no image file, got %v", err)
	}
}
