package main

import (
	"context"
	"fmt"

	"github.com/xhad/civis/internal/types"
	"github.com/xhad/civis/pkg/bias"
	cfgPkg "github.com/xhad/civis/pkg/config"
	"github.com/xhad/civis/pkg/evaluator"
	"github.com/xhad/civis/pkg/evidence"
	"github.com/xhad/civis/pkg/indexer"
	"github.com/xhad/civis/pkg/llm"
	"github.com/xhad/civis/pkg/logger"
	"github.com/xhad/civis/pkg/newsapi"
	"github.com/xhad/civis/pkg/processor"
	"github.com/xhad/civis/pkg/scraper"
	"github.com/xhad/civis/pkg/store"
)

// app holds the collaborators built once from configuration.
type app struct {
	evaluator *evaluator.Evaluator
	stores    []indexer.NamedStore
	indices   []evidence.Index
	chroma    *store.Chroma
	closers   []func()
}

func (a *app) Close() {
	for _, c := range a.closers {
		c()
	}
}

// buildApp wires every component. Indices that are not configured or
// unreachable are skipped with a warning so evaluation can still fall
// back to the live channels.
func buildApp(ctx context.Context, cfg *cfgPkg.Config, logr *logger.Logger, forIndexing bool) (*app, error) {
	a := &app{}

	embedder, err := llm.NewEmbedder(llm.EmbedderConfig{
		Provider: cfg.Embedder.Provider,
		Model:    cfg.Embedder.Model,
		BaseURL:  cfg.Embedder.BaseURL,
		APIKey:   cfg.Embedder.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}
	if !forIndexing {
		embedder = queryEmbedder(embedder)
	}

	if cfg.Database.URL != "" {
		vs, err := store.NewWithConfig(ctx, store.VectorStoreConfig{
			ConnString:  cfg.Database.URL,
			TableName:   cfg.Database.TableName,
			VectorDim:   cfg.Database.VectorDim,
			BatchSize:   cfg.Database.BatchSize,
			SearchLimit: cfg.Database.SearchLimit,
			Embedder:    embedder,
			Logger:      logr,
		})
		if err != nil {
			logr.Warn("pgvector index unavailable", "error", err)
		} else {
			a.closers = append(a.closers, vs.Close)
			a.addIndex("pgvector", vs)
		}
	}

	if cfg.Chroma.Host != "" {
		ch, err := store.NewChroma(ctx, store.ChromaConfig{
			Host:        cfg.Chroma.Host,
			Port:        cfg.Chroma.Port,
			Collection:  cfg.Chroma.Collection,
			SearchLimit: cfg.Chroma.SearchLimit,
			Embedder:    embedder,
			Logger:      logr,
		})
		if err != nil {
			logr.Warn("chroma index unavailable", "error", err)
		} else {
			a.closers = append(a.closers, ch.Close)
			a.chroma = ch
			a.addIndex("chroma", ch)
		}
	}

	if forIndexing {
		return a, nil
	}

	generator, err := llm.NewGenerator(llm.GeneratorConfig{
		Provider:    cfg.LLM.Provider,
		Model:       cfg.LLM.Model,
		BaseURL:     cfg.LLM.BaseURL,
		APIKey:      cfg.LLM.APIKey,
		MaxTokens:   cfg.LLM.MaxTokens,
		Temperature: cfg.LLM.Temperature,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize generator: %w", err)
	}

	fetcher, err := scraper.NewWithConfig(scraper.ScraperConfig{
		RateLimit: cfg.Scraper.RateLimit,
		Timeout:   cfg.Scraper.Timeout,
		UserAgent: cfg.Scraper.UserAgent,
		Logger:    logr,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("failed to initialize scraper: %w", err)
	}

	news := newsapi.NewClient(newsapi.Config{
		BaseURL:  cfg.NewsAPI.BaseURL,
		APIKey:   cfg.NewsAPI.APIKey,
		PageSize: cfg.NewsAPI.PageSize,
	})

	escalator := evidence.NewEscalator(logr,
		&evidence.SemanticChannel{Indices: a.indices, Log: logr},
		&evidence.TrustedSitesChannel{Sites: cfg.Sources.TrustedWebsites, Fetcher: fetcher, Log: logr},
		&evidence.PredefinedChannel{URLs: cfg.Sources.Predefined, Fetcher: fetcher, Log: logr},
		&evidence.NewsChannel{Searcher: news},
	)

	a.evaluator, err = evaluator.New(evaluator.Deps{
		Articles: fetcher,
		Evidence: escalator,
		Bias:     bias.NewDetector(generator),
		Logger:   logr,
	})
	if err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

func (a *app) addIndex(name string, vs types.VectorStore) {
	a.indices = append(a.indices, evidence.Index{Name: name, Retriever: vs})
	a.stores = append(a.stores, indexer.NamedStore{Name: name, Store: vs})
}

// queryEmbedder switches embedders with separate query and document
// modes to query mode.
func queryEmbedder(e types.Embedder) types.Embedder {
	if c, ok := e.(*llm.CohereEmbedder); ok {
		return c.ForQueries()
	}
	return e
}

func newCrawler(cfg *cfgPkg.Config, logr *logger.Logger, onPage func(string)) (*scraper.Scraper, error) {
	s, err := scraper.NewWithConfig(scraper.ScraperConfig{
		MaxDepth:          cfg.Scraper.MaxDepth,
		RateLimit:         cfg.Scraper.RateLimit,
		IgnorePatterns:    cfg.Scraper.IgnorePatterns,
		AllowedExtensions: cfg.Scraper.AllowedExtensions,
		Timeout:           cfg.Scraper.Timeout,
		UserAgent:         cfg.Scraper.UserAgent,
		OnProgress:        onPage,
		Logger:            logr,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize crawler: %w", err)
	}
	return s, nil
}

func newProcessor(cfg *cfgPkg.Config) *processor.Processor {
	p := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:       cfg.Processor.ChunkSize,
		ChunkOverlap:    *cfg.Processor.ChunkOverlap,
		RemoveStopwords: cfg.Processor.RemoveStopwords,
	})
	return &p
}
