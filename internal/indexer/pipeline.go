package indexer

import (
	"context"
	"fmt"
	"os"

	"bankassist/internal/contextutil"
	"bankassist/internal/corpus"
	"bankassist/internal/storage"
)

// RecordIndex is the similarity index the pipeline rebuilds.
type RecordIndex interface {
	Build(ctx context.Context, records []corpus.Record) (int, error)
	K() int
}

// RunRecorder persists a summary of each completed ingestion.
type RunRecorder interface {
	Record(ctx context.Context, run *storage.IngestRun) error
}

// Pipeline ingests the corpus: scan, segment, embed and index.
type Pipeline struct {
	index          RecordIndex
	runs           RunRecorder
	backend        string
	embeddingModel string
}

// NewPipeline creates a new ingestion pipeline. runs may be nil.
func NewPipeline(index RecordIndex, runs RunRecorder, backend, embeddingModel string) *Pipeline {
	return &Pipeline{
		index:          index,
		runs:           runs,
		backend:        backend,
		embeddingModel: embeddingModel,
	}
}

// Run rebuilds the index from every source document under dataPath.
// Blocks without an owner are dropped and counted, never indexed.
func (p *Pipeline) Run(ctx context.Context, dataPath string) (*Stats, error) {
	logger := contextutil.LoggerFromContext(ctx)

	files, err := Scan(ctx, dataPath)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no %s source documents under %s", SourceExt, dataPath)
	}

	logger.InfoContext(ctx, "starting ingestion", "data_path", dataPath, "total_files", len(files))

	stats := &Stats{
		FilesScanned:     len(files),
		SegmenterVersion: corpus.SegmenterVersion,
		IndexVersion:     IndexVersion(p.embeddingModel, p.index.K()),
	}

	var records []corpus.Record
	for _, file := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		seg, err := p.segment(file)
		if err != nil {
			return nil, err
		}

		stats.BlocksSeen += seg.Blocks
		stats.BlocksDropped += seg.Dropped
		records = append(records, seg.Records...)

		if seg.Dropped > 0 {
			logger.DebugContext(ctx, "dropped blocks without customer id", "rel_path", file.RelPath, "dropped", seg.Dropped)
		}
		logger.DebugContext(ctx, "segmented file", "rel_path", file.RelPath, "blocks", seg.Blocks, "records", len(seg.Records))
	}

	indexed, err := p.index.Build(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("failed to build index: %w", err)
	}
	stats.RecordsIndexed = indexed
	stats.PerCustomer, stats.RecordTokenStats = recordStats(records)

	if p.runs != nil {
		run := &storage.IngestRun{
			IndexVersion:   stats.IndexVersion,
			Backend:        p.backend,
			FilesScanned:   stats.FilesScanned,
			BlocksSeen:     stats.BlocksSeen,
			BlocksDropped:  stats.BlocksDropped,
			RecordsIndexed: stats.RecordsIndexed,
		}
		if err := p.runs.Record(ctx, run); err != nil {
			return nil, fmt.Errorf("failed to record ingest run: %w", err)
		}
	}

	logger.InfoContext(ctx, "ingestion completed",
		"files", stats.FilesScanned,
		"blocks", stats.BlocksSeen,
		"dropped", stats.BlocksDropped,
		"records", stats.RecordsIndexed,
		"customers", len(stats.PerCustomer),
		"index_version", stats.IndexVersion,
	)
	return stats, nil
}

// segment names records after their path relative to the data root so that
// equal file names in different folders keep distinct point IDs.
func (p *Pipeline) segment(file ScannedFile) (corpus.Segmentation, error) {
	content, err := os.ReadFile(file.AbsPath)
	if err != nil {
		return corpus.Segmentation{}, fmt.Errorf("failed to read file %s: %w", file.AbsPath, err)
	}
	return corpus.Segment(file.RelPath, string(content)), nil
}
