package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/carefind/ai/mock"
	"github.com/poiesic/carefind/core"
	"github.com/poiesic/carefind/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const header = "hospital_name,address,city,latitude,longitude,specialties,insurers,rating,phone,website\n"

func writeTable(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "hospitals.csv")
	require.NoError(t, os.WriteFile(path, []byte(header+body), 0644))
	return path
}

func setupIndex(t *testing.T, opts ...badger.Option) (*badger.Index, *mock.MockEmbedder) {
	t.Helper()
	embedder := mock.NewMockEmbedder()
	index, backend, err := badger.NewMemoryIndex(embedder, opts...)
	require.NoError(t, err)
	t.Cleanup(func() {
		index.Close()
		backend.Close()
	})
	return index, embedder
}

func TestNewPipeline(t *testing.T) {
	index, _ := setupIndex(t)

	t.Run("valid", func(t *testing.T) {
		p, err := NewPipeline(index)
		require.NoError(t, err)
		assert.NotNil(t, p)
	})

	t.Run("nil index", func(t *testing.T) {
		_, err := NewPipeline(nil)
		assert.ErrorIs(t, err, ErrIndexRequired)
	})

	t.Run("with logger", func(t *testing.T) {
		p, err := NewPipeline(index, WithLogger(slog.Default()), WithLogger(nil))
		require.NoError(t, err)
		assert.NotNil(t, p.logger)
	})
}

func TestIngestFile(t *testing.T) {
	index, _ := setupIndex(t)
	ctx := context.Background()

	path := writeTable(t,
		"Apollo,1 MI Road,Jaipur,26.9,75.8,cardiology|neurology,StarHealth,4.5,,\n"+
			"Fortis,2 Ring Road,Delhi,,,oncology,,,,\n")

	p, err := NewPipeline(index)
	require.NoError(t, err)

	result, err := p.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, path, result.Path)
	assert.Equal(t, 2, result.Rows)
	assert.Equal(t, 2, result.Ingested)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	apollo := core.HospitalRecord{Name: "Apollo", City: "Jaipur", Address: "1 MI Road"}
	doc, err := index.GetDocument(ctx, apollo.Key())
	require.NoError(t, err)
	assert.Equal(t, "cardiology|neurology", doc.Metadata[core.FieldSpecialties])
	assert.Equal(t, 4.5, doc.Metadata[core.FieldRating])
}

func TestIngestFile_Twice(t *testing.T) {
	index, _ := setupIndex(t)
	ctx := context.Background()

	path := writeTable(t,
		"Apollo,1 MI Road,Jaipur,,,cardiology,,,,\n"+
			"Fortis,2 Ring Road,Delhi,,,oncology,,,,\n"+
			"Rainbow,3 Park St,Delhi,,,pediatrics,,,,\n")

	p, err := NewPipeline(index)
	require.NoError(t, err)

	for range 2 {
		_, err := p.IngestFile(ctx, path)
		require.NoError(t, err)
	}

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)
}

func TestIngestFile_NotFound(t *testing.T) {
	index, embedder := setupIndex(t)
	p, err := NewPipeline(index)
	require.NoError(t, err)

	missing := filepath.Join(t.TempDir(), "data", "hospitals.csv")
	_, err = p.IngestFile(context.Background(), missing)
	require.ErrorIs(t, err, core.ErrNotFound)
	assert.Contains(t, err.Error(), missing)
	assert.Zero(t, embedder.CallCount())
}

func TestIngestFile_RelativePath(t *testing.T) {
	index, _ := setupIndex(t)
	p, err := NewPipeline(index)
	require.NoError(t, err)

	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile("hospitals.csv", []byte(header+"Apollo,,Jaipur,,,,,,,\n"), 0644))

	result, err := p.IngestFile(context.Background(), "hospitals.csv")
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(result.Path))
	assert.Equal(t, "hospitals.csv", filepath.Base(result.Path))
	assert.Equal(t, 1, result.Ingested)
}

func TestIngestFile_EmptyTable(t *testing.T) {
	index, embedder := setupIndex(t)
	p, err := NewPipeline(index)
	require.NoError(t, err)

	result, err := p.IngestFile(context.Background(), writeTable(t, ""))
	require.NoError(t, err)
	assert.Equal(t, 0, result.Rows)
	assert.Equal(t, 0, result.Ingested)
	assert.Zero(t, embedder.CallCount())
}

func TestIngestFile_MalformedRowsUseDefaults(t *testing.T) {
	index, _ := setupIndex(t)
	ctx := context.Background()
	p, err := NewPipeline(index)
	require.NoError(t, err)

	result, err := p.IngestFile(ctx, writeTable(t, "Max,4 Saket,Delhi,north,,,,excellent,,\n"))
	require.NoError(t, err)
	assert.Equal(t, 1, result.Ingested)

	record := core.HospitalRecord{Name: "Max", City: "Delhi", Address: "4 Saket"}
	doc, err := index.GetDocument(ctx, record.Key())
	require.NoError(t, err)
	assert.Equal(t, 0.0, doc.Metadata[core.FieldLat])
	assert.Equal(t, 0.0, doc.Metadata[core.FieldRating])
}

func TestIngestFile_BareQuoteRow(t *testing.T) {
	index, _ := setupIndex(t)
	ctx := context.Background()
	p, err := NewPipeline(index)
	require.NoError(t, err)

	path := writeTable(t,
		"Apollo,1 MI Road,Jaipur,,,cardiology,,,,\n"+
			"Fortis \"Escorts\",2 JLN Marg,Jaipur,,,oncology,,,,\n"+
			"Rainbow,3 Park St,Delhi,,,pediatrics,,,,\n")

	result, err := p.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Rows)
	assert.Equal(t, 3, result.Ingested)

	record := core.HospitalRecord{Name: `Fortis "Escorts"`, City: "Jaipur", Address: "2 JLN Marg"}
	doc, err := index.GetDocument(ctx, record.Key())
	require.NoError(t, err)
	assert.Equal(t, "oncology", doc.Metadata[core.FieldSpecialties])
}

func TestIngestFile_DuplicateKeys(t *testing.T) {
	index, _ := setupIndex(t)
	ctx := context.Background()
	p, err := NewPipeline(index)
	require.NoError(t, err)

	path := writeTable(t,
		",,,,,,,,,\n"+
			",,,,,,,,,\n"+
			"Apollo,1 MI Road,Jaipur,,,cardiology,,,,\n"+
			"Apollo,1 MI Road,Jaipur,,,neurology,,,,\n")

	result, err := p.IngestFile(ctx, path)
	require.NoError(t, err)
	assert.Equal(t, 4, result.Rows)
	assert.Equal(t, 2, result.Ingested)

	count, err := index.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Ingested, count)

	apollo := core.HospitalRecord{Name: "Apollo", City: "Jaipur", Address: "1 MI Road"}
	doc, err := index.GetDocument(ctx, apollo.Key())
	require.NoError(t, err)
	assert.Equal(t, "neurology", doc.Metadata[core.FieldSpecialties])
}

func TestIngestFile_Batches(t *testing.T) {
	var mu sync.Mutex
	var batches []int
	index, embedder := setupIndex(t,
		badger.WithMaxBatchSize(4),
		badger.WithBatchObserver(func(size int) {
			mu.Lock()
			batches = append(batches, size)
			mu.Unlock()
		}))

	var b strings.Builder
	for i := range 10 {
		fmt.Fprintf(&b, "Hospital %d,%d Main St,Pune,,,general,,,,\n", i, i)
	}

	p, err := NewPipeline(index)
	require.NoError(t, err)
	result, err := p.IngestFile(context.Background(), writeTable(t, b.String()))
	require.NoError(t, err)

	assert.Equal(t, 10, result.Ingested)
	assert.Equal(t, []int{4, 4, 2}, batches)
	assert.Len(t, embedder.BatchSizes(), 3)
}

func TestIngestRows_EmbedderFailure(t *testing.T) {
	index, embedder := setupIndex(t)
	embedder.EmbedTextsFunc = func(context.Context, []string) ([][]float32, error) {
		return nil, assert.AnError
	}

	p, err := NewPipeline(index)
	require.NoError(t, err)

	_, err = p.IngestFile(context.Background(), writeTable(t, "Apollo,,Jaipur,,,,,,,\n"))
	assert.ErrorIs(t, err, core.ErrConfiguration)
}
