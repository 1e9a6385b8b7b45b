// Package app builds the pipeline and its collaborators from configuration.
// Clients are constructed once and shared by every request.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/gin-gonic/gin"

	"invoiceflow/internal/config"
	"invoiceflow/internal/handler"
	"invoiceflow/internal/layout"
	"invoiceflow/internal/layout/computervision"
	"invoiceflow/internal/layout/docintel"
	"invoiceflow/internal/parser"
	"invoiceflow/internal/parser/claude"
	"invoiceflow/internal/parser/openai"
	"invoiceflow/internal/parser/vertex"
	"invoiceflow/internal/pipeline"
	"invoiceflow/internal/port"
	fsrepo "invoiceflow/internal/repository/firestore"
	"invoiceflow/internal/repository/memory"
	"invoiceflow/internal/repository/postgres"
	"invoiceflow/internal/retry"
	"invoiceflow/internal/router"
	"invoiceflow/internal/service"
	gcsstorage "invoiceflow/internal/storage/gcs"
	s3storage "invoiceflow/internal/storage/s3"
	"invoiceflow/internal/validator"
)

var registerOnce sync.Once

// RegisterProviders registers the built-in layout and completion providers.
func RegisterProviders() {
	registerOnce.Do(func() {
		layout.RegisterProvider("document-intelligence", func(cfg *config.LayoutConfig) (port.LayoutAnalyzer, error) {
			a, err := docintel.NewAnalyzer(cfg)
			if err != nil {
				return nil, err
			}
			return a, nil
		})
		layout.RegisterProvider("computer-vision", func(cfg *config.LayoutConfig) (port.LayoutAnalyzer, error) {
			a, err := computervision.NewAnalyzer(cfg)
			if err != nil {
				return nil, err
			}
			return a, nil
		})

		parser.RegisterProvider("openai", func(cfg *config.ParserProviderConfig) (port.CompletionClient, error) {
			return openai.NewClient(cfg), nil
		})
		parser.RegisterProvider("claude", func(cfg *config.ParserProviderConfig) (port.CompletionClient, error) {
			return claude.NewClient(cfg), nil
		})
		parser.RegisterProvider("vertex", func(cfg *config.ParserProviderConfig) (port.CompletionClient, error) {
			c, err := vertex.NewClient(context.Background(), cfg)
			if err != nil {
				return nil, err
			}
			return c, nil
		})
	})
}

// ConfigureLogging applies the log settings to the standard logger and gin.
func ConfigureLogging(cfg *config.LogConfig) {
	if cfg.Format == "plain" {
		log.SetFlags(0)
	} else {
		log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	}
	if cfg.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
}

// App holds the constructed collaborators.
type App struct {
	Config   *config.Config
	Pipeline *pipeline.Pipeline
	Store    port.InvoiceStore
	Archive  port.ObjectStorage
	Service  service.InvoiceService

	closers []func() error
}

// New builds the full application: pipeline, store, archive and service.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}

	p, err := a.buildPipeline()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Pipeline = p

	store, err := a.buildStore(ctx)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Store = store

	archive, err := NewArchive(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Archive = archive

	a.Service = service.NewInvoiceService(
		a.Pipeline,
		a.Store,
		service.ArchiveSettings{Storage: archive, Bucket: cfg.Archive.Bucket, Prefix: cfg.Archive.Prefix},
		service.Limits{MaxFileSizeMB: cfg.Upload.MaxFileSizeMB, MaxFiles: cfg.Upload.MaxFiles},
	)
	return a, nil
}

// NewPipelineOnly builds the pipeline without a store or archive, for the CLI.
func NewPipelineOnly(cfg *config.Config) (*App, error) {
	a := &App{Config: cfg}
	p, err := a.buildPipeline()
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Pipeline = p
	return a, nil
}

func (a *App) buildPipeline() (*pipeline.Pipeline, error) {
	RegisterProviders()
	cfg := a.Config

	analyzer, err := layout.NewAnalyzer(&cfg.Layout)
	if err != nil {
		return nil, fmt.Errorf("creating layout analyzer: %w", err)
	}

	client, err := parser.NewClients(cfg.Parser.Providers())
	if err != nil {
		return nil, fmt.Errorf("creating completion client: %w", err)
	}
	if closer, ok := client.(io.Closer); ok {
		a.closers = append(a.closers, closer.Close)
	}

	interpreter := parser.NewInterpreter(client,
		parser.WithRetryPolicy(retry.Policy{
			Attempts:  cfg.Parser.Attempts,
			BaseDelay: cfg.Parser.RetryBaseDelay,
			MaxDelay:  cfg.Parser.RetryMaxDelay,
		}),
		parser.WithTemperature(cfg.Parser.Temperature),
		parser.WithMaxTokens(cfg.Parser.MaxTokens),
		parser.WithSchemaValidator(validator.ValidateCandidate, cfg.Parser.StrictSchema),
	)

	extractor := layout.NewExtractor(analyzer, layout.WithMaxPages(cfg.Layout.MaxPages))

	log.Printf("app.buildPipeline: layout=%s parser=%d provider(s) chunk_size=%d page_concurrency=%d max_in_flight=%d",
		cfg.Layout.Provider, len(cfg.Parser.Providers()), cfg.Pipeline.ChunkSize, cfg.Pipeline.PageConcurrency, cfg.Pipeline.MaxInFlight)

	return pipeline.New(extractor, interpreter,
		pipeline.WithChunkSize(cfg.Pipeline.ChunkSize),
		pipeline.WithPageConcurrency(cfg.Pipeline.PageConcurrency),
		pipeline.WithMaxInFlight(cfg.Pipeline.MaxInFlight),
	), nil
}

func (a *App) buildStore(ctx context.Context) (port.InvoiceStore, error) {
	cfg := a.Config
	switch cfg.Store.Backend {
	case "postgres":
		db, err := postgres.NewDB(&cfg.DB)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewUserInvoicesRepo(db, cfg.Store.MaxRetries, cfg.Store.BaseDelay), nil
	case "firestore":
		client, err := fsrepo.NewClient(ctx, cfg.Firestore.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to firestore: %w", err)
		}
		a.closers = append(a.closers, client.Close)
		return fsrepo.NewUserInvoicesRepo(client, cfg.Firestore.Collection, cfg.Store.MaxRetries, cfg.Store.BaseDelay), nil
	case "memory":
		log.Printf("app.buildStore: WARN: using in-memory store; invoices are lost on restart")
		return memory.NewUserInvoicesRepo(), nil
	}
	return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
}

// NewArchive returns the configured upload archive, or nil when archiving is disabled.
func NewArchive(ctx context.Context, cfg *config.Config) (port.ObjectStorage, error) {
	switch cfg.Archive.Backend {
	case "", "none":
		return nil, nil
	case "s3":
		storage, err := s3storage.NewS3Client(ctx, &cfg.S3)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize S3 client: %w", err)
		}
		return storage, nil
	case "gcs":
		storage, err := gcsstorage.NewGCSClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize GCS client: %w", err)
		}
		return storage, nil
	}
	return nil, fmt.Errorf("unknown archive backend: %s", cfg.Archive.Backend)
}

// Router builds the HTTP engine over the service.
func (a *App) Router() *gin.Engine {
	return router.Setup(
		router.Options{
			AllowedOrigins: a.Config.CORS.AllowedOrigins,
			MaxBodyBytes:   int64(a.Config.Upload.MaxFiles+1) * a.Config.Upload.MaxFileSizeMB * 1024 * 1024,
		},
		handler.NewInvoiceHandler(a.Service),
		handler.NewHealthHandler(a.Store, a.Config.Server.Version),
	)
}

// Close releases every client the app opened, last opened first.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
