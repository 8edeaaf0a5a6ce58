// Package cli wires configuration, storage and the review pipeline into the
// memoflow command tree.
package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/pathakanu/memoflow/internal/app"
	"github.com/pathakanu/memoflow/internal/config"
	"github.com/pathakanu/memoflow/internal/database"
	"github.com/pathakanu/memoflow/internal/metrics"
	myopenai "github.com/pathakanu/memoflow/internal/openai"
	"github.com/pathakanu/memoflow/internal/review"
	"github.com/pathakanu/memoflow/internal/store"
)

// runtime is everything a command needs once configuration is loaded.
type runtime struct {
	cfg     *config.Config
	svc     *app.Service
	metrics *metrics.Collector
	logger  zerolog.Logger
}

type rootOptions struct {
	memory bool
	debug  bool
}

// NewRootCmd constructs the memoflow command tree.
func NewRootCmd() *cobra.Command {
	opts := &rootOptions{}
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "memoflow",
		Short:         "Capture memos and get periodic AI reviews of them",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			built, err := buildRuntime(opts, cmd.Name() == "serve")
			if err != nil {
				return err
			}
			*rt = *built
			return nil
		},
	}
	root.PersistentFlags().BoolVar(&opts.memory, "memory", false, "keep data in memory instead of the database")
	root.PersistentFlags().BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newServeCmd(rt),
		newMemoCmd(rt),
		newSettingsCmd(rt),
		newReviewCmd(rt),
	)
	return root
}

func newLogger(jsonOutput bool) zerolog.Logger {
	if jsonOutput {
		return zerolog.New(os.Stdout).With().Timestamp().Str("service", "memoflow").Logger()
	}
	return zerolog.New(zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: "2006-01-02 15:04:05",
	}).With().Timestamp().Logger()
}

func buildRuntime(opts *rootOptions, serving bool) (*runtime, error) {
	logger := newLogger(serving)

	cfg, err := config.Load(logger)
	if err != nil {
		return nil, err
	}
	level := cfg.Level()
	if opts.debug {
		level = zerolog.DebugLevel
	}
	logger = logger.Level(level)

	collector := metrics.New("memoflow")

	var kv store.KV
	if opts.memory {
		kv = store.NewMemoryKV()
	} else {
		db, err := database.New(cfg.DatabaseURL, cfg.SQLitePath, logger)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		kv = database.NewRecords(db)
	}
	st := store.New(kv, logger, collector)

	analyzer := myopenai.New(cfg.OpenAIAPIKey, cfg.OpenAIModel, cfg.OpenAITimeout)
	if !analyzer.Configured() {
		logger.Warn().Msg("OPENAI_API_KEY is not set; reviews cannot be generated")
	}
	requester := review.NewRequester(analyzer, time.Now, cfg.LocalTimezone, logger)

	svc := app.New(st, requester, logger, app.Options{Metrics: collector})
	return &runtime{
		cfg:     cfg,
		svc:     svc,
		metrics: collector,
		logger:  logger,
	}, nil
}
