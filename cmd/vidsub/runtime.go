package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"

	"vidsub/internal/batch"
	"vidsub/internal/config"
	"vidsub/internal/history"
	"vidsub/internal/logging"
	"vidsub/internal/media/ffprobe"
	"vidsub/internal/notifications"
	"vidsub/internal/pipeline"
	"vidsub/internal/services/whisperx"
	"vidsub/internal/translation"
	"vidsub/internal/translation/providers"
)

func newWhisperXRecognizer(cfg *config.Config, logger *slog.Logger) pipeline.Recognizer {
	svc := whisperx.NewService(whisperx.Config{
		Model:       cfg.WhisperX.Model,
		CUDAEnabled: cfg.WhisperX.CUDAEnabled,
		VADMethod:   cfg.WhisperX.VADMethod,
		HFToken:     cfg.WhisperX.HFToken,
	}, cfg.FFmpegBinary())
	if _, err := exec.LookPath(cfg.FFprobeBinary()); err == nil {
		binary := cfg.FFprobeBinary()
		svc.WithProbe(func(ctx context.Context, path string) (ffprobe.Result, error) {
			return ffprobe.Inspect(ctx, binary, path)
		})
	} else {
		logger.Debug("ffprobe not found; audio stream check disabled", logging.String("binary", cfg.FFprobeBinary()))
	}
	logger.Info("speech recognizer ready",
		logging.String("engine", "whisperx"),
		logging.String("model", svc.Model()),
		logging.Bool("cuda", svc.CUDAEnabled()),
	)
	return svc
}

type generateOptions struct {
	root      string
	outputDir string
}

// buildPipeline wires the recognizer, provider chain, and pipeline for cfg.
func (c *commandContext) buildPipeline(cfg *config.Config, logger *slog.Logger, opts generateOptions) (*pipeline.Pipeline, error) {
	provs, err := providers.FromConfig(cfg, nil)
	if err != nil {
		return nil, err
	}
	target := cfg.Subtitles.TargetLanguage
	chain := translation.NewChain(target, provs, translation.WithLogger(logger))
	translator := translation.NewSegmentTranslator(chain,
		translation.WithWorkers(cfg.Translation.Workers),
		translation.WithSegmentLogger(logger),
	)
	logger.Info("translation chain ready",
		logging.String("target", target),
		logging.Any("providers", chain.ProviderNames()),
		logging.Int("workers", cfg.Translation.Workers),
	)
	pipeOpts := []pipeline.Option{pipeline.WithTarget(target), pipeline.WithLogger(logger)}
	if opts.outputDir != "" {
		pipeOpts = append(pipeOpts, pipeline.WithOutputDir(opts.outputDir, opts.root))
	}
	return pipeline.New(c.newRecognizer(cfg, logger), translator, pipeOpts...), nil
}

// buildDriver wires the batch driver with history recording when available.
// The returned close function releases the history store.
func buildDriver(cfg *config.Config, logger *slog.Logger, proc batch.Processor) (*batch.Driver, func()) {
	opts := []batch.Option{
		batch.WithExtensions(cfg.Subtitles.Extensions),
		batch.WithOverwrite(cfg.Subtitles.Overwrite),
		batch.WithLockPath(cfg.LockPath()),
		batch.WithProgress(os.Stderr),
		batch.WithLogger(logger),
	}
	closeFn := func() {}
	store, err := history.Open(cfg.HistoryPath())
	if err != nil {
		logging.WarnWithContext(logger, "run history disabled", "history_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "delete the history database if the schema changed"),
			logging.String(logging.FieldImpact, "this run will not appear in vidsub history"),
		)
	} else {
		opts = append(opts, batch.WithRecorder(store))
		closeFn = func() { _ = store.Close() }
	}
	return batch.New(proc, opts...), closeFn
}

// notifyRun reports a finished run, or the error that stopped it, to ntfy.
// Delivery failures are logged and never fail the command.
func notifyRun(ctx context.Context, notifier notifications.Service, logger *slog.Logger, summary batch.Summary, runErr error, label string) {
	if errors.Is(runErr, context.Canceled) {
		return
	}
	ctx = context.WithoutCancel(ctx)
	var err error
	if runErr != nil {
		err = notifier.NotifyError(ctx, runErr, label)
	} else {
		err = notifier.NotifyRunCompleted(ctx, summary)
	}
	if err != nil {
		logging.WarnWithContext(logger, "notification failed", "notification_failed",
			logging.String("run_id", summary.RunID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
		)
	}
}
