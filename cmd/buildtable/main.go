package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jhonattanreales21/rutasalud/internal/bootstrap"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	"github.com/jhonattanreales21/rutasalud/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLoggerTo(os.Stderr, "rutasalud-buildtable", cfg.Log.Env, cfg.Log.Level)

	params := bootstrap.DefaultParams(cfg)
	var method, out string
	flag.Float64Var(&params.Threshold, "threshold", params.Threshold, "minimum similarity score in [0, 1]")
	flag.IntVar(&params.TopK, "top-k", params.TopK, "maximum services per entry")
	flag.StringVar(&method, "method", string(params.Method), "matcher: semantic or fuzzy")
	flag.StringVar(&out, "out", "", "output file (.json or .xlsx); stdout when empty")
	flag.Parse()
	params.Method = entities.MatchStrategy(strings.ToLower(method))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, params, out); err != nil {
		log.Fatal().Err(err).Msg("Table build failed")
	}
}

func run(ctx context.Context, cfg *config.Config, params entities.TableParams, out string) error {
	core, err := bootstrap.Build(ctx, cfg, nil, bootstrap.Options{WithSharedCache: true})
	if err != nil {
		return err
	}
	defer core.Close()

	table, err := core.Correspondence.BuildTable(ctx, params)
	if err != nil {
		return err
	}

	log.Info().
		Int("entries", table.Len()).
		Str("strategy", string(table.Strategy)).
		Str("snapshot", table.Snapshot).
		Msg("Correspondence table built")

	switch strings.ToLower(filepath.Ext(out)) {
	case "":
		return writeJSON(os.Stdout, table)
	case ".json":
		f, err := os.Create(out)
		if err != nil {
			return err
		}
		if err := writeJSON(f, table); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	case ".xlsx":
		return writeWorkbook(out, table)
	default:
		return fmt.Errorf("unsupported output format %q", filepath.Ext(out))
	}
}

func writeJSON(w io.Writer, table *entities.CorrespondenceTable) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(table)
}
