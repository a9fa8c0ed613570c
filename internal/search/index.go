package search

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/blevesearch/bleve/v2"

	"github.com/inkwell/inkwell-server/internal/errors"
)

// ErrDocumentNotFound is returned by Get for an id with no indexed document.
var ErrDocumentNotFound = errors.NotFound("document not found in search index")

// Index wraps a Bleve index with novel-specific operations.
//
// All public methods are safe for concurrent use. The mutex guards the
// underlying index handle against Rebuild.
type Index struct {
	index  bleve.Index
	path   string
	logger *slog.Logger
	mu     sync.RWMutex
}

// Options configures the search index.
type Options struct {
	DataPath string       // Directory for index storage
	Logger   *slog.Logger // Logger for operations (uses discard if nil)
}

// mappingVersion is bumped whenever buildIndexMapping changes; a mismatch
// on open triggers a rebuild, and the synchronizer's bulk load refills it.
const mappingVersion = "1"

// batchChunk bounds the size of a single Bleve batch.
const batchChunk = 500

// NewIndex creates or opens the search index under opts.DataPath.
// A corrupt index or one written with an older mapping is removed and
// recreated empty.
func NewIndex(opts Options) (*Index, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	indexPath := filepath.Join(opts.DataPath, "search.bleve")
	versionPath := filepath.Join(opts.DataPath, "search.version")

	var index bleve.Index
	var err error
	needsRebuild := false

	indexExists := false
	if _, statErr := os.Stat(indexPath); statErr == nil {
		indexExists = true
	}

	if indexExists {
		existingVersion, readErr := os.ReadFile(versionPath)
		switch {
		case readErr != nil:
			logger.Info("search index has no version file, will rebuild", "new_version", mappingVersion)
			needsRebuild = true
		case string(existingVersion) != mappingVersion:
			logger.Info("search index mapping version changed, will rebuild",
				"old_version", string(existingVersion),
				"new_version", mappingVersion,
			)
			needsRebuild = true
		}
	}

	if !needsRebuild && indexExists {
		index, err = bleve.Open(indexPath)
		if err != nil {
			logger.Warn("failed to open existing index, will recreate", "path", indexPath, "error", err)
			needsRebuild = true
		}
	}

	if needsRebuild {
		if removeErr := os.RemoveAll(indexPath); removeErr != nil {
			return nil, fmt.Errorf("remove old index: %w", removeErr)
		}
		index = nil
	}

	if index == nil {
		if err := os.MkdirAll(opts.DataPath, 0o755); err != nil {
			return nil, fmt.Errorf("create index dir: %w", err)
		}
		index, err = bleve.New(indexPath, buildIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("create index: %w", err)
		}
		if writeErr := os.WriteFile(versionPath, []byte(mappingVersion), 0o644); writeErr != nil {
			logger.Warn("failed to write search version file", "error", writeErr)
		}
		logger.Info("created new search index", "path", indexPath, "mapping_version", mappingVersion)
	} else {
		logger.Info("opened existing search index", "path", indexPath)
	}

	return &Index{
		index:  index,
		path:   indexPath,
		logger: logger,
	}, nil
}

// Close closes the index and releases resources.
func (s *Index) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.index.Close()
}

// unavailable marks an index failure as transient for callers that retry.
func unavailable(op string, err error) error {
	return errors.Unavailable("search index "+op+" failed", err)
}

// Upsert writes doc, replacing any existing document with the same id.
func (s *Index) Upsert(ctx context.Context, doc *NovelDocument) error {
	if doc.ID == "" {
		return errors.Validation("document id is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.index.Index(doc.ID, doc.ToMap()); err != nil {
		return unavailable("upsert", err)
	}
	return nil
}

// UpsertBatch writes docs in chunks.
func (s *Index) UpsertBatch(ctx context.Context, docs []*NovelDocument) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for i := 0; i < len(docs); i += batchChunk {
		if err := ctx.Err(); err != nil {
			return err
		}
		end := min(i+batchChunk, len(docs))

		batch := s.index.NewBatch()
		for _, doc := range docs[i:end] {
			if err := batch.Index(doc.ID, doc.ToMap()); err != nil {
				return fmt.Errorf("batch index %s: %w", doc.ID, err)
			}
		}
		if err := s.index.Batch(batch); err != nil {
			return unavailable(fmt.Sprintf("commit batch %d-%d", i, end), err)
		}
	}
	return nil
}

// Delete removes a document. Deleting an absent id is not an error.
func (s *Index) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.index.Delete(id); err != nil {
		return unavailable("delete", err)
	}
	return nil
}

// DeleteBatch removes documents in one batch.
func (s *Index) DeleteBatch(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	batch := s.index.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}
	if err := s.index.Batch(batch); err != nil {
		return unavailable("delete batch", err)
	}
	return nil
}

// Get returns the stored document for id, or ErrDocumentNotFound.
func (s *Index) Get(ctx context.Context, id string) (*NovelDocument, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(bleve.NewDocIDQuery([]string{id}), 1, 0, false)
	req.Fields = []string{"*"}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, unavailable("get", err)
	}
	if len(res.Hits) == 0 {
		return nil, ErrDocumentNotFound
	}
	hit := res.Hits[0]
	return documentFromFields(hit.ID, hit.Fields), nil
}

// ListIDs returns up to limit document ids in ascending order, starting
// strictly after the given id. An empty after starts from the beginning.
func (s *Index) ListIDs(ctx context.Context, after string, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	req := bleve.NewSearchRequestOptions(bleve.NewMatchAllQuery(), limit, 0, false)
	req.SortBy([]string{"_id"})
	if after != "" {
		req.SearchAfter = []string{after}
	}

	res, err := s.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, unavailable("list ids", err)
	}

	ids := make([]string, 0, len(res.Hits))
	for _, hit := range res.Hits {
		ids = append(ids, hit.ID)
	}
	return ids, nil
}

// DocumentCount returns the total number of indexed documents.
func (s *Index) DocumentCount() (uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.DocCount()
}

// Rebuild drops the index and creates an empty one. Callers refill it with a
// bulk load. Blocks every other operation while it runs.
func (s *Index) Rebuild() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Close(); err != nil {
		return fmt.Errorf("close index: %w", err)
	}
	if err := os.RemoveAll(s.path); err != nil {
		return fmt.Errorf("remove index: %w", err)
	}

	index, err := bleve.New(s.path, buildIndexMapping())
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}

	s.index = index
	s.logger.Info("rebuilt search index", "path", s.path)
	return nil
}
