package s3blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/cyclebot/internal/domain"
)

// ArchiveImpl implements domain.Archiver by querying the cycle store for old
// records, serializing them to JSONL, uploading the result to S3, and then
// pruning the archived rows from the primary store.
//
// The upload happens before the delete, so a failed upload leaves the rows
// in place to be retried on the next archival run.
type ArchiveImpl struct {
	writer domain.BlobWriter
	store  domain.CycleStore
	logger *slog.Logger
}

// NewArchiver creates a new ArchiveImpl.
func NewArchiver(writer domain.BlobWriter, store domain.CycleStore, logger *slog.Logger) *ArchiveImpl {
	return &ArchiveImpl{
		writer: writer,
		store:  store,
		logger: logger.With(slog.String("component", "archiver")),
	}
}

// ArchiveCycleHistory collects all cycle records detected before the cutoff,
// serializes them to JSONL, uploads the file to S3 at
// archive/cycle_history/YYYY-MM.jsonl, deletes the archived rows, and
// returns the count of archived records.
func (a *ArchiveImpl) ArchiveCycleHistory(ctx context.Context, before time.Time) (int64, error) {
	records, err := a.store.ListBefore(ctx, before, 0)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive cycle history query: %w", err)
	}
	if len(records) == 0 {
		return 0, nil
	}

	buf, err := marshalJSONL(records)
	if err != nil {
		return 0, fmt.Errorf("s3blob: archive cycle history marshal: %w", err)
	}

	path := archivePath("cycle_history", before)
	if err := a.writer.Put(ctx, path, bytes.NewReader(buf), "application/x-ndjson"); err != nil {
		return 0, fmt.Errorf("s3blob: archive cycle history upload: %w", err)
	}

	deleted, err := a.store.DeleteBefore(ctx, before)
	if err != nil {
		return int64(len(records)), fmt.Errorf("s3blob: archive cycle history prune: %w", err)
	}

	a.logger.Info("archived cycle history",
		slog.String("path", path),
		slog.Int("records", len(records)),
		slog.Int64("deleted", deleted),
		slog.Time("before", before),
	)

	return int64(len(records)), nil
}

// archivePath builds the S3 key for an archive file, partitioned by the
// year-month of the cutoff time.
//
//	archive/cycle_history/2025-01.jsonl
func archivePath(kind string, before time.Time) string {
	return fmt.Sprintf("archive/%s/%s.jsonl", kind, before.Format("2006-01"))
}

// marshalJSONL serialises a slice of values as newline-delimited JSON.
func marshalJSONL[T any](records []T) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	for i, rec := range records {
		if err := enc.Encode(rec); err != nil {
			return nil, fmt.Errorf("jsonl encode record %d: %w", i, err)
		}
	}
	return buf.Bytes(), nil
}

var _ domain.Archiver = (*ArchiveImpl)(nil)
