package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/xamsadine/backend/internal/config"
	"github.com/xamsadine/backend/internal/handler"
	"github.com/xamsadine/backend/internal/model/fatwa"
	"github.com/xamsadine/backend/internal/service/clarify"
	"github.com/xamsadine/backend/internal/service/generation"
	"github.com/xamsadine/backend/internal/service/pipeline"
	"github.com/xamsadine/backend/internal/service/retrieval"
	sqlitestore "github.com/xamsadine/backend/internal/store/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log, err := newLogger()
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if err := godotenv.Load(); err != nil {
		log.Info("no .env file loaded, using system environment", zap.Error(err))
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}

	store, closeStore, err := newSessionStore(cfg.Store, log)
	if err != nil {
		log.Fatal("failed to initialize session store", zap.Error(err))
	}
	defer closeStore()

	retriever, err := newRetriever(cfg.Retrieval, log)
	if err != nil {
		log.Fatal("failed to initialize retriever", zap.Error(err))
	}

	var generator generation.Generator
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Warn("failed to initialize chat model, continuing without generation", zap.Error(err))
		} else {
			arkGen, err := generation.NewArkGenerator(chatModel, log.Named("generation"))
			if err != nil {
				log.Fatal("failed to wrap chat model", zap.Error(err))
			}
			generator = arkGen
			log.Info("generation model initialized", zap.String("model", cfg.AI.Model))
		}
	} else {
		log.Warn("model credentials not configured, generation disabled")
	}

	filters, err := retrieval.ParseFilters(cfg.Pipeline.FilterMap())
	if err != nil {
		log.Fatal("invalid retrieval filters", zap.Error(err))
	}

	clarifier := clarify.NewEngine(clarify.Config{
		MaxClarifications: cfg.Pipeline.MaxClarifications,
	}, generator, log.Named("clarify"))

	orchestrator, err := pipeline.New(store, retriever, generator, clarifier, pipeline.Options{
		MaxClarifications:  cfg.Pipeline.MaxClarifications,
		RetrievalK:         cfg.Pipeline.RetrievalK,
		RetrievalRetryMax:  cfg.Pipeline.RetrievalRetryMax,
		GenerationRetryMax: cfg.Pipeline.GenerationRetryMax,
		TurnDeadline:       cfg.Pipeline.TurnDeadline,
		DefaultLanguage:    cfg.Pipeline.DefaultLanguage,
		Jurisprudence:      cfg.Pipeline.Jurisprudence,
		Filters:            filters,
		GuardrailEnabled:   cfg.Pipeline.GuardrailEnabled,
		MaxConcurrentTurns: cfg.Pipeline.MaxConcurrentTurns,
	}, log.Named("pipeline"))
	if err != nil {
		log.Fatal("failed to build pipeline", zap.Error(err))
	}

	router := handler.NewRouter(orchestrator, log.Named("http"))

	startServer(ctx, cfg.Server, router, log)
}

func newLogger() (*zap.Logger, error) {
	if os.Getenv("XAMSADINE_ENV") == "development" {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newSessionStore(cfg config.StoreConfig, log *zap.Logger) (fatwa.SessionStore, func(), error) {
	if cfg.SQLitePath == "" {
		log.Info("using in-memory session store")
		return fatwa.NewMemoryStore(), func() {}, nil
	}

	store, err := sqlitestore.Open(cfg.SQLitePath)
	if err != nil {
		return nil, nil, err
	}
	log.Info("using sqlite session store", zap.String("path", cfg.SQLitePath))
	return store, func() { _ = store.Close() }, nil
}

func newRetriever(cfg config.RetrievalConfig, log *zap.Logger) (retrieval.Retriever, error) {
	if cfg.ServiceURL != "" {
		log.Info("using rag-service retriever", zap.String("url", cfg.ServiceURL))
		return retrieval.NewHTTPRetriever(cfg.ServiceURL, log.Named("retrieval")), nil
	}

	var corpus []retrieval.CorpusEntry
	if cfg.CorpusPath != "" {
		loaded, err := retrieval.LoadCorpus(cfg.CorpusPath)
		if err != nil {
			return nil, err
		}
		corpus = loaded
		log.Info("loaded local corpus", zap.Int("entries", len(corpus)), zap.String("path", cfg.CorpusPath))
	} else {
		log.Warn("no retrieval backend configured, searches will return no passages")
	}
	return retrieval.NewMemoryRetriever(corpus), nil
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler, log *zap.Logger) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Info("xamsadine backend listening", zap.String("addr", serverCfg.Addr))
	if err := runServer(ctx, srv); err != nil {
		log.Fatal("server error", zap.Error(err))
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
