package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/poiesic/questionbank"
	"github.com/poiesic/questionbank/enrich"
	"github.com/poiesic/questionbank/ingestion"
	"github.com/poiesic/questionbank/metrics"
	"github.com/poiesic/questionbank/search"
	"github.com/poiesic/questionbank/server"
)

// shutdownTimeout bounds graceful HTTP shutdown.
const shutdownTimeout = 30 * time.Second

// openDatabase is replaced in tests.
var openDatabase = func(ctx context.Context, c *cli.Context, opts ...questionbank.DatabaseOption) (*questionbank.Database, error) {
	cfg, err := loadConfig(c)
	if err != nil {
		return nil, err
	}
	return questionbank.NewDatabase(ctx, cfg, opts...)
}

func serveCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	exporter := metrics.NewExporter(metrics.DefaultConfig())
	db, err := openDatabase(ctx, c, questionbank.WithMetrics(exporter))
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	srv, err := server.NewServer(searcher, pipeline, db.Config().Server,
		server.WithLogger(slog.Default()),
		server.WithMetricsHandler(exporter.Handler()))
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		slog.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Stop(shutdownCtx)
	}
}

func enrichCommand(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()

	errWriter := c.App.ErrWriter
	if errWriter == nil {
		errWriter = os.Stderr
	}
	sink := enrich.FuncSink(func(ev enrich.Event) {
		if ev.Kind == enrich.EventFailed {
			fmt.Fprintf(errWriter, "error: %s\n", ev.Message)
			return
		}
		fmt.Fprintln(errWriter, ev.Message)
	})

	records, err := pipeline.Run(ctx, sink)
	if err != nil {
		return err
	}
	slog.Info("enrichment finished", "questions", len(records))
	return nil
}

func searchCommand(c *cli.Context) error {
	ctx := c.Context

	db, err := openDatabase(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	var opts []search.Option
	if c.Bool("verbose") {
		errWriter := c.App.ErrWriter
		if errWriter == nil {
			errWriter = os.Stderr
		}
		opts = append(opts, search.WithMonitor(newVerboseMonitor(errWriter)))
	}
	searcher, err := db.NewSearcher(opts...)
	if err != nil {
		return err
	}

	results, err := searcher.Search(ctx, search.Query{
		Company: c.String("company"),
		Role:    c.String("role"),
		Text:    c.String("query"),
	})
	if err != nil {
		return err
	}

	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func importCommand(c *cli.Context) error {
	ctx := c.Context

	f, err := os.Open(c.String("csv"))
	if err != nil {
		return fmt.Errorf("failed to open CSV: %w", err)
	}
	defer f.Close()

	db, err := openDatabase(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	importer, err := db.NewImporter(ingestion.WithBatchSize(c.Int("write-batch")))
	if err != nil {
		return err
	}
	result, err := importer.Import(ctx, f)
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "Imported %d questions (%d skipped, %d embeddings dropped)\n",
		result.Imported, result.Skipped, result.Repaired)
	return nil
}

func exportCommand(c *cli.Context) (err error) {
	ctx := c.Context

	db, err := openDatabase(ctx, c)
	if err != nil {
		return err
	}
	defer db.Close()

	var out io.Writer = c.App.Writer
	if path := c.String("csv"); path != "" {
		f, createErr := os.Create(path)
		if createErr != nil {
			return fmt.Errorf("failed to create CSV: %w", createErr)
		}
		defer func() {
			err = errors.Join(err, f.Close())
		}()
		out = f
	}

	exporter, err := db.NewExporter()
	if err != nil {
		return err
	}
	n, err := exporter.Export(ctx, out)
	if err != nil {
		return err
	}
	slog.Info("exported questions", "questions", n)
	return nil
}
