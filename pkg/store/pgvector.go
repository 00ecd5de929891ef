package store

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/internal/types"
	"github.com/xhad/civis/pkg/logger"
)

type VectorStoreConfig struct {
	ConnString  string
	TableName   string
	VectorDim   int
	BatchSize   int
	SearchLimit int
	Embedder    types.Embedder
	Logger      *logger.Logger
}

// VectorStore is a pgvector-backed semantic index of document chunks.
type VectorStore struct {
	config   VectorStoreConfig
	pool     *pgxpool.Pool
	embedder types.Embedder
	log      *logger.Logger
}

var _ types.VectorStore = (*VectorStore)(nil)

func NewWithConfig(ctx context.Context, config VectorStoreConfig) (*VectorStore, error) {
	if config.Embedder == nil {
		return nil, errors.New("vector store requires an embedder")
	}
	if config.TableName == "" {
		config.TableName = "documents"
	}
	if config.VectorDim == 0 {
		config.VectorDim = 768 // nomic-embed-text
	}
	if config.BatchSize == 0 {
		config.BatchSize = 100
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}

	pool, err := pgxpool.New(ctx, config.ConnString)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	vs := &VectorStore{
		config:   config,
		pool:     pool,
		embedder: config.Embedder,
		log:      config.Logger.With("index", "pgvector", "table", config.TableName),
	}

	if err := vs.initialize(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return vs, nil
}

// schema lists the statements run on connect; %[1]s is the table name
// and %[2]d the vector dimension.
var schema = []string{
	`CREATE EXTENSION IF NOT EXISTS vector`,
	`CREATE TABLE IF NOT EXISTS %[1]s (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT,
		content TEXT,
		chunk_index INTEGER,
		embedding vector(%[2]d),
		metadata JSONB
	)`,
	`CREATE INDEX IF NOT EXISTS %[1]s_embedding_idx ON %[1]s
		USING ivfflat (embedding vector_cosine_ops) WITH (lists = 100)`,
}

func (vs *VectorStore) initialize(ctx context.Context) error {
	for _, stmt := range schema {
		sql := stmt
		if strings.Contains(stmt, "%[1]s") {
			sql = fmt.Sprintf(stmt, vs.config.TableName, vs.config.VectorDim)
		}
		if _, err := vs.pool.Exec(ctx, sql); err != nil {
			return fmt.Errorf("failed to prepare schema: %w", err)
		}
	}
	return nil
}

// Store embeds every chunk and upserts it as one row keyed "<docID>_<chunk>".
// Each embedding batch is sent as one pgx batch inside a single transaction.
func (vs *VectorStore) Store(ctx context.Context, docs []models.ProcessedDocument) error {
	upsert := fmt.Sprintf(`INSERT INTO %s (id, url, title, content, chunk_index, embedding, metadata)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			content = EXCLUDED.content,
			embedding = EXCLUDED.embedding,
			metadata = EXCLUDED.metadata`, vs.config.TableName)

	return pgx.BeginFunc(ctx, vs.pool, func(tx pgx.Tx) error {
		rows := 0
		for _, doc := range docs {
			title := strings.ToValidUTF8(doc.Title, "")
			chunks := make([]string, len(doc.Chunks))
			for i, chunk := range doc.Chunks {
				chunks[i] = strings.ToValidUTF8(chunk, "")
			}

			for start := 0; start < len(chunks); start += vs.config.BatchSize {
				end := min(start+vs.config.BatchSize, len(chunks))

				vectors, err := vs.embedder.CreateEmbedding(ctx, chunks[start:end])
				if err != nil {
					return fmt.Errorf("failed to create embeddings for %s: %w", doc.SourceName(), err)
				}
				if len(vectors) != end-start {
					return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), end-start)
				}

				batch := &pgx.Batch{}
				for j, vec := range vectors {
					i := start + j
					batch.Queue(upsert, fmt.Sprintf("%s_%d", doc.ID, i), doc.URL, title,
						chunks[i], i, pgvector.NewVector(vec), doc.Metadata)
				}
				if err := tx.SendBatch(ctx, batch).Close(); err != nil {
					return fmt.Errorf("failed to upsert chunks of %s: %w", doc.SourceName(), err)
				}
				rows += len(vectors)
			}
		}

		vs.log.Debug("stored chunks", "documents", len(docs), "rows", rows)
		return nil
	})
}

// Query returns the rows nearest to embedding by cosine distance.
func (vs *VectorStore) Query(ctx context.Context, embedding []float32, limit int) ([]models.Document, error) {
	if limit == 0 {
		limit = vs.config.SearchLimit
	}

	rows, err := vs.pool.Query(ctx, fmt.Sprintf(
		`SELECT id, url, title, content, metadata FROM %s ORDER BY embedding <=> $1 LIMIT $2`,
		vs.config.TableName), pgvector.NewVector(embedding), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}

	docs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.Document, error) {
		var doc models.Document
		var title, content *string
		err := row.Scan(&doc.ID, &doc.URL, &title, &content, &doc.Metadata)
		if title != nil {
			doc.Title = *title
		}
		if content != nil {
			doc.Content = *content
		}
		return doc, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan documents: %w", err)
	}
	return docs, nil
}

// Retrieve embeds the query text and returns the closest SearchLimit rows.
func (vs *VectorStore) Retrieve(ctx context.Context, query string) ([]models.Document, error) {
	embeddings, err := vs.embedder.CreateEmbedding(ctx, []string{query})
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}
	return vs.Query(ctx, types.FlattenEmbeddings(embeddings), vs.config.SearchLimit)
}

func (vs *VectorStore) Close() {
	if vs.pool != nil {
		vs.pool.Close()
	}
}
