package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joseph-ayodele/lawmind/internal/api"
	"github.com/joseph-ayodele/lawmind/internal/cli"
	"github.com/joseph-ayodele/lawmind/internal/common"
	"github.com/joseph-ayodele/lawmind/internal/ingest"
	"github.com/joseph-ayodele/lawmind/internal/poll"
	"github.com/joseph-ayodele/lawmind/internal/repository"
	"github.com/joseph-ayodele/lawmind/internal/session"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	flags, err := cli.ParseGlobalFlags(args)
	if err != nil {
		printError("Error: %v\n", err)
		return 2
	}
	logger := flags.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	cfg := common.LoadConfig()
	flags.Apply(cfg)
	if err := cfg.Validate(); err != nil {
		printError("Error: %s\n", common.UserMessage(err))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Local cache; the CLI still works against the API without it unless the
	// token lives in it.
	db, err := repository.Open(ctx, repository.Config{
		DSN:             cfg.Cache.DSN,
		MaxConns:        cfg.Cache.MaxConns,
		MinConns:        cfg.Cache.MinConns,
		MaxConnLifetime: cfg.Cache.MaxConnLifetime,
		MaxConnIdleTime: cfg.Cache.MaxConnIdleTime,
		DialTimeout:     cfg.Cache.DialTimeout,
	}, logger)
	if err == nil {
		defer db.Close()
		if err = db.Migrate(ctx); err != nil {
			logger.Warn("cache.migrate_failed", "error", err)
			db = nil
		}
	} else {
		logger.Warn("cache.open_failed", "dsn", cfg.Cache.DSN, "error", err)
		db = nil
	}

	var storage session.TokenStorage
	switch cfg.Session.Store {
	case common.TokenStoreSQL:
		if db == nil {
			printError("Error: LAWMIND_TOKEN_STORE=sql needs a working cache database\n")
			return 1
		}
		storage = session.NewSQLStorage(repository.NewKVRepository(db, logger))
	default:
		storage = session.NewFileStorage(cfg.Session.TokenFile)
	}
	store := session.NewStore(storage, logger)

	client := api.New(api.NewBaseClient(api.Config{
		BaseURL: cfg.API.BaseURL,
		Timeout: cfg.API.Timeout,
	}, store, logger))

	monitor := poll.NewMonitor(
		poll.WithLogger(logger),
		poll.WithDefaults(poll.Options{Interval: cfg.Poll.Interval, MaxAttempts: cfg.Poll.MaxAttempts}),
	)
	uploadOpts := []ingest.UploaderOption{
		ingest.WithMaxBytes(cfg.Upload.MaxBytes),
		ingest.WithWorkers(cfg.Upload.Workers),
		ingest.WithLogger(logger),
	}

	app := &cli.App{
		Config:  cfg,
		Client:  client,
		Session: store,
		Log:     logger,
		In:      os.Stdin,
		Out:     os.Stdout,
		Err:     os.Stderr,
	}
	if db != nil {
		jobs := repository.NewExtractionJobRepository(db, logger)
		app.Jobs = jobs
		app.Cache = db
		app.Drafts = repository.NewDraftRepository(db, logger)
		uploadOpts = append(uploadOpts,
			ingest.WithJobStore(jobs),
			ingest.WithHashIndex(repository.NewKVRepository(db, logger)),
		)
	}
	app.Uploader = ingest.NewUploader(client.Documents, monitor, uploadOpts...)

	return cli.Execute(ctx, app, args)
}
