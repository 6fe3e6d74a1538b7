package filecfg

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/anthanhphan/go-dataset-agent/internal/agent/domain"
	"github.com/anthanhphan/go-dataset-agent/internal/agent/port"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	idA = "5f3a7c1e-1b1a-4c8e-9d2a-0c1f6a1b2c3d"
	idB = "a0e1b2c3-d4e5-4f60-8a71-b2c3d4e5f607"
)

func writeDoc(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestSource_ParsesYAML(t *testing.T) {
	path := writeDoc(t, "desired.yaml", `
datasets:
  - id: `+idA+`
    primary_hostname: h1
    maximum_size: 1073741824
    metadata:
      app: postgres
deleted:
  - `+idB+`
leases:
  `+idA+`: h1
`)

	cfg, err := NewSource(path).DesiredConfiguration(context.Background())
	require.NoError(t, err)

	a := uuid.MustParse(idA)
	desired, ok := cfg.Desired(a)
	require.True(t, ok)
	assert.Equal(t, "h1", desired.PrimaryHostname)
	assert.Equal(t, uint64(1<<30), desired.MaximumSize)
	assert.Equal(t, "postgres", desired.Metadata["app"])
	assert.Equal(t, []uuid.UUID{uuid.MustParse(idB)}, cfg.Deleted)
	assert.True(t, cfg.IsLeasedOn(a, "h1"))
}

func TestSource_MissingFile(t *testing.T) {
	_, err := NewSource(filepath.Join(t.TempDir(), "absent.yaml")).DesiredConfiguration(context.Background())
	assert.ErrorIs(t, err, port.ErrNoDesiredConfiguration)
}

func TestDocument_ToDesiredRejects(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
	}{
		{"bad id", Document{Datasets: []DatasetEntry{{ID: "nope", PrimaryHostname: "h1"}}}},
		{"duplicate id", Document{Datasets: []DatasetEntry{{ID: idA, PrimaryHostname: "h1"}, {ID: idA, PrimaryHostname: "h2"}}}},
		{"no primary", Document{Datasets: []DatasetEntry{{ID: idA}}}},
		{"desired and deleted", Document{Datasets: []DatasetEntry{{ID: idA, PrimaryHostname: "h1"}}, Deleted: []string{idA}}},
		{"bad lease id", Document{Leases: map[string]string{"x": "h1"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.doc.ToDesired()
			assert.ErrorIs(t, err, domain.ErrInvalidConfiguration)
		})
	}
}
