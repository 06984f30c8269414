package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/jhonattanreales21/rutasalud/internal/bootstrap"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/evaluation"
	"github.com/jhonattanreales21/rutasalud/internal/infrastructure/observability"
	"github.com/jhonattanreales21/rutasalud/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	observability.InitLoggerTo(os.Stderr, "rutasalud-evaluate", cfg.Log.Env, cfg.Log.Level)

	params := bootstrap.DefaultParams(cfg)
	guard := evaluation.DefaultGuardrails()
	var method, goldenPath string
	flag.StringVar(&goldenPath, "golden", "config/golden_cases.yaml", "golden cases file (.json, .yaml or .yml)")
	flag.Float64Var(&params.Threshold, "threshold", params.Threshold, "minimum similarity score in [0, 1]")
	flag.IntVar(&params.TopK, "top-k", params.TopK, "maximum services per entry; also the K of recall@K and MRR@K")
	flag.StringVar(&method, "method", string(params.Method), "matcher: semantic or fuzzy")
	flag.Float64Var(&guard.MinRecall, "min-recall", guard.MinRecall, "minimum average recall@K")
	flag.Float64Var(&guard.MinMRR, "min-mrr", guard.MinMRR, "minimum average MRR@K")
	flag.Float64Var(&guard.MinHitRate, "min-hit-rate", guard.MinHitRate, "minimum share of cases with at least one expected service")
	flag.IntVar(&guard.MaxNoMatch, "max-no-match", guard.MaxNoMatch, "maximum cases without any service; negative disables the check")
	flag.Parse()
	params.Method = entities.MatchStrategy(strings.ToLower(method))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cases, err := evaluation.LoadGoldenCases(goldenPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", goldenPath).Msg("Failed to load golden cases")
	}
	if err := evaluation.ValidateGoldenCases(cases); err != nil {
		log.Fatal().Err(err).Msg("Invalid golden cases")
	}

	core, err := bootstrap.Build(ctx, cfg, nil, bootstrap.Options{WithSharedCache: true})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize core")
	}

	summary, err := evaluation.NewRunner(core.Correspondence).Run(ctx, params, cases)
	core.Close()
	if err != nil {
		log.Fatal().Err(err).Msg("Evaluation failed")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))

	violations := evaluation.NewGuardrails(guard).Check(summary)
	for _, v := range violations {
		log.Error().Str("violation", v).Msg("Guardrail breached")
	}
	if len(violations) > 0 {
		os.Exit(2)
	}
	log.Info().
		Int("cases", summary.TotalCases).
		Float64("recall", summary.AvgRecall).
		Float64("mrr", summary.AvgMRR).
		Msg("Guardrails passed")
}
