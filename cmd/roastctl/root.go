package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/kapu/roast-rag-go/internal/app"
	"github.com/kapu/roast-rag-go/internal/config"
	"github.com/kapu/roast-rag-go/internal/util"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:           "roastctl",
	Short:         "Manage the roast reference corpus",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.AddCommand(ingestCmd, facesCmd, statsCmd)
}

// session is what every subcommand needs: config, logger and an open corpus.
type session struct {
	cfg    *config.Config
	logger *zap.Logger
	corpus *app.Corpus
}

func (s *session) Close() {
	s.corpus.Close()
	_ = s.logger.Sync()
}

func openSession(ctx context.Context) (*session, error) {
	cfg := config.Load()
	if err := cfg.ValidateVector(); err != nil {
		return nil, err
	}

	logger, err := util.NewLogger(cfg.Logging.Level, cfg.Logging.File)
	if err != nil {
		return nil, err
	}

	corpus, err := app.BuildCorpus(ctx, cfg, nil, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	return &session{cfg: cfg, logger: logger, corpus: corpus}, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}
