// Package indexer fills the semantic indices from the trusted sites.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/pkg/config"
	"github.com/xhad/civis/pkg/logger"
)

// Crawler returns one document per page reachable from a start URL.
type Crawler interface {
	Crawl(ctx context.Context, startURL string) ([]models.Document, error)
}

// Chunker splits documents for embedding.
type Chunker interface {
	Process(docs []models.Document) ([]models.ProcessedDocument, error)
}

type Store interface {
	Store(ctx context.Context, docs []models.ProcessedDocument) error
}

// NamedStore labels a store in logs and errors.
type NamedStore struct {
	Name  string
	Store Store
}

type Config struct {
	BatchSize int
	Logger    *logger.Logger
	// OnStored is called after each batch with the number of chunks written.
	OnStored func(chunks int)
}

type Indexer struct {
	crawler   Crawler
	chunker   Chunker
	stores    []NamedStore
	batchSize int
	onStored  func(int)
	log       *logger.Logger
}

// Stats summarises an indexing run.
type Stats struct {
	Sites       int
	Documents   int
	Chunks      int
	FailedSites []string
}

func New(crawler Crawler, chunker Chunker, stores []NamedStore, config Config) *Indexer {
	if config.BatchSize <= 0 {
		config.BatchSize = 100
	}
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}
	if config.OnStored == nil {
		config.OnStored = func(int) {}
	}
	return &Indexer{
		crawler:   crawler,
		chunker:   chunker,
		stores:    stores,
		batchSize: config.BatchSize,
		onStored:  config.OnStored,
		log:       config.Logger,
	}
}

// Index crawls each site in order and writes its chunks to every store.
// A site that cannot be crawled is skipped; a store failure stops that
// store from receiving further batches and is returned at the end.
func (ix *Indexer) Index(ctx context.Context, sites []config.TrustedSite) (Stats, error) {
	var stats Stats
	storeErrs := make(map[string]error)

	for _, site := range sites {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		log := ix.log.With("site", site.Name)

		docs, err := ix.crawler.Crawl(ctx, site.URL)
		if err != nil {
			log.Warn("crawl failed", "url", site.URL, "error", err)
			stats.FailedSites = append(stats.FailedSites, site.Name)
			continue
		}
		stats.Sites++
		stats.Documents += len(docs)

		for i := range docs {
			if docs[i].Metadata == nil {
				docs[i].Metadata = make(map[string]interface{})
			}
			docs[i].Metadata["site"] = site.Name
		}

		processed, err := ix.chunker.Process(docs)
		if err != nil {
			return stats, fmt.Errorf("failed to chunk documents from %s: %w", site.Name, err)
		}

		chunks := 0
		for _, doc := range processed {
			chunks += len(doc.Chunks)
		}
		stats.Chunks += chunks
		log.Info("crawled site", "documents", len(docs), "chunks", chunks)

		for start := 0; start < len(processed); start += ix.batchSize {
			end := min(start+ix.batchSize, len(processed))
			batch := processed[start:end]

			for _, s := range ix.stores {
				if storeErrs[s.Name] != nil {
					continue
				}
				if err := s.Store.Store(ctx, batch); err != nil {
					log.Error("store failed", "store", s.Name, "error", err)
					storeErrs[s.Name] = fmt.Errorf("%s: %w", s.Name, err)
				}
			}

			n := 0
			for _, doc := range batch {
				n += len(doc.Chunks)
			}
			ix.onStored(n)
		}
	}

	var errs []error
	for _, s := range ix.stores {
		if err := storeErrs[s.Name]; err != nil {
			errs = append(errs, err)
		}
	}
	return stats, errors.Join(errs...)
}
