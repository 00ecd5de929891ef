package store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/xhad/civis/internal/models"
	"github.com/xhad/civis/internal/types"
	"github.com/xhad/civis/pkg/logger"
)

// ChromaConfig holds configuration for a Chroma collection.
type ChromaConfig struct {
	Host        string
	Port        int
	BaseURL     string // overrides Host/Port, e.g. "http://chroma:8000/api/v2"
	Collection  string
	SearchLimit int
	Embedder    types.Embedder
	HTTPClient  *http.Client
	Logger      *logger.Logger
}

// Chroma is a semantic index backed by the Chroma v2 REST API. Embeddings
// are computed client-side and sent with every add and query.
type Chroma struct {
	baseURL      string
	tenant       string
	database     string
	collection   string
	collectionID string
	searchLimit  int
	httpClient   *http.Client
	embedder     types.Embedder
	log          *logger.Logger
}

// ChromaDocument is a single record added to the collection.
type ChromaDocument struct {
	ID       string
	Content  string
	Metadata map[string]interface{}
}

// QueryResults mirrors the query response; the outer slices are per query.
type QueryResults struct {
	IDs       [][]string                 `json:"ids"`
	Distances [][]float32                `json:"distances"`
	Metadatas [][]map[string]interface{} `json:"metadatas"`
	Documents [][]string                 `json:"documents"`
}

var _ types.VectorStore = (*Chroma)(nil)

func NewChroma(ctx context.Context, config ChromaConfig) (*Chroma, error) {
	if config.Embedder == nil {
		return nil, errors.New("chroma requires an embedder")
	}
	baseURL := config.BaseURL
	if baseURL == "" {
		if config.Host == "" {
			return nil, errors.New("chroma host is not configured")
		}
		baseURL = fmt.Sprintf("http://%s:%d/api/v2", config.Host, config.Port)
	}
	if config.Collection == "" {
		config.Collection = "documents"
	}
	if config.SearchLimit == 0 {
		config.SearchLimit = 5
	}
	if config.HTTPClient == nil {
		config.HTTPClient = &http.Client{Timeout: 30 * time.Second}
	}
	if config.Logger == nil {
		config.Logger = logger.Discard()
	}

	c := &Chroma{
		baseURL:     baseURL,
		tenant:      "default_tenant",
		database:    "default_database",
		collection:  config.Collection,
		searchLimit: config.SearchLimit,
		httpClient:  config.HTTPClient,
		embedder:    config.Embedder,
		log:         config.Logger.With("index", "chroma", "collection", config.Collection),
	}

	id, err := c.getOrCreateCollection(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get or create collection: %w", err)
	}
	c.collectionID = id

	return c, nil
}

func (c *Chroma) collectionsURL() string {
	return fmt.Sprintf("%s/tenants/%s/databases/%s/collections", c.baseURL, c.tenant, c.database)
}

func (c *Chroma) collectionURL() string {
	return fmt.Sprintf("%s/%s", c.collectionsURL(), c.collectionID)
}

func (c *Chroma) getOrCreateCollection(ctx context.Context) (string, error) {
	var existing struct {
		ID string `json:"id"`
	}
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.collectionsURL(), c.collection), nil, &existing)
	if err == nil && existing.ID != "" {
		c.log.Debug("using existing collection", "id", existing.ID)
		return existing.ID, nil
	}

	c.log.Info("creating collection")
	payload := map[string]interface{}{
		"name": c.collection,
		"metadata": map[string]interface{}{
			"description": "civis trusted source chunks",
		},
		"get_or_create": true,
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := c.do(ctx, http.MethodPost, c.collectionsURL(), payload, &created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("create collection response has no id")
	}
	return created.ID, nil
}

// UpsertDocuments embeds docs and writes them in one request. Existing
// ids are overwritten, so re-indexing replaces stale chunks.
func (c *Chroma) UpsertDocuments(ctx context.Context, docs []ChromaDocument) error {
	if len(docs) == 0 {
		return nil
	}

	documents := make([]string, len(docs))
	metadatas := make([]map[string]interface{}, len(docs))
	ids := make([]string, len(docs))
	for i, doc := range docs {
		documents[i] = doc.Content
		metadatas[i] = doc.Metadata
		ids[i] = doc.ID
	}

	embeddings, err := c.embedder.CreateEmbedding(ctx, documents)
	if err != nil {
		return fmt.Errorf("failed to generate embeddings: %w", err)
	}

	payload := map[string]interface{}{
		"ids":        ids,
		"documents":  documents,
		"metadatas":  metadatas,
		"embeddings": embeddings,
	}
	if err := c.do(ctx, http.MethodPost, c.collectionURL()+"/upsert", payload, nil); err != nil {
		return fmt.Errorf("failed to upsert documents: %w", err)
	}

	c.log.Debug("upserted documents", "count", len(docs))
	return nil
}

// Store flattens processed documents into one Chroma record per chunk.
func (c *Chroma) Store(ctx context.Context, docs []models.ProcessedDocument) error {
	var records []ChromaDocument
	for _, doc := range docs {
		for i, chunk := range doc.Chunks {
			metadata := map[string]interface{}{
				"url":         doc.URL,
				"title":       doc.Title,
				"chunk_index": i,
			}
			for k, v := range doc.Metadata {
				if isScalar(v) {
					metadata[k] = v
				}
			}
			records = append(records, ChromaDocument{
				ID:       fmt.Sprintf("%s_%d", doc.ID, i),
				Content:  chunk,
				Metadata: metadata,
			})
		}
	}
	return c.UpsertDocuments(ctx, records)
}

// QuerySimilar returns the nResults records nearest to queryText.
func (c *Chroma) QuerySimilar(ctx context.Context, queryText string, nResults int) (*QueryResults, error) {
	embeddings, err := c.embedder.CreateEmbedding(ctx, []string{queryText})
	if err != nil {
		return nil, fmt.Errorf("failed to generate query embeddings: %w", err)
	}

	payload := map[string]interface{}{
		"query_embeddings": embeddings,
		"n_results":        nResults,
		"include":          []string{"metadatas", "documents", "distances"},
	}

	var result QueryResults
	if err := c.do(ctx, http.MethodPost, c.collectionURL()+"/query", payload, &result); err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}
	return &result, nil
}

// Retrieve maps the first query's hits to documents in distance order.
func (c *Chroma) Retrieve(ctx context.Context, query string) ([]models.Document, error) {
	result, err := c.QuerySimilar(ctx, query, c.searchLimit)
	if err != nil {
		return nil, err
	}
	if len(result.IDs) == 0 {
		return nil, nil
	}

	ids := result.IDs[0]
	docs := make([]models.Document, 0, len(ids))
	for i, id := range ids {
		doc := models.Document{ID: id}
		if len(result.Documents) > 0 && i < len(result.Documents[0]) {
			doc.Content = result.Documents[0][i]
		}
		if len(result.Metadatas) > 0 && i < len(result.Metadatas[0]) {
			doc.Metadata = result.Metadatas[0][i]
			doc.URL, _ = doc.Metadata["url"].(string)
			doc.Title, _ = doc.Metadata["title"].(string)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// Count returns the number of records in the collection.
func (c *Chroma) Count(ctx context.Context) (int, error) {
	var count int
	if err := c.do(ctx, http.MethodGet, c.collectionURL()+"/count", nil, &count); err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

func (c *Chroma) Close() {}

func (c *Chroma) do(ctx context.Context, method, url string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<10))
		return fmt.Errorf("chroma returned status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

func isScalar(v interface{}) bool {
	switch v.(type) {
	case string, bool, int, int32, int64, float32, float64:
		return true
	}
	return false
}
