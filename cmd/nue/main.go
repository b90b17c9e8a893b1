package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/naki0227/nue/internal/api"
	"github.com/naki0227/nue/internal/assets"
	"github.com/naki0227/nue/internal/config"
	"github.com/naki0227/nue/internal/ffmpeg"
	"github.com/naki0227/nue/internal/job"
	"github.com/naki0227/nue/internal/logging"
	"github.com/naki0227/nue/internal/store"
	"github.com/naki0227/nue/internal/watch"
)

var version = "0.1.0"

var (
	cfgFile string
	verbose bool
)

func main() {
	ctx := context.Background()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "nue",
	Short: "nue - automated short-form video render agent",
	Long:  "Watches an inbox for analysis documents and drives ffmpeg to turn raw videos into finished vertical shorts.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgFile)
		if err != nil {
			return err
		}

		level := cfg.LogLevel
		if verbose {
			level = "debug"
		}
		logging.Init(level)

		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(versionCmd)
}

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the inbox and render every new analysis document",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd.Context())

		logging.Event(log.Logger, "startup", "").Str("version", version).Msg("nue service starting")

		if err := cfg.EnsureDirs(); err != nil {
			return err
		}

		st, err := store.Open(cfg.DBPath(), log.Logger)
		if err != nil {
			return err
		}
		defer st.Close()

		processor, err := buildProcessor(cfg, st)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		if cfg.API.Enabled {
			srv := api.NewServer(log.Logger, st, cfg.API.Port)
			go func() {
				if err := srv.Start(); err != nil {
					log.Error().Err(err).Msg("status api failed")
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				_ = srv.Shutdown(shutdownCtx)
			}()
		}

		w := watch.New(log.Logger, processor)
		if err := w.Run(ctx, cfg.Dirs.Inbox); err != nil && err != context.Canceled {
			return err
		}
		return nil
	},
}

var processCmd = &cobra.Command{
	Use:   "process [analysis file]",
	Short: "Render a single analysis document and exit",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := configFrom(cmd.Context())

		if err := cfg.EnsureDirs(); err != nil {
			return err
		}

		processor, err := buildProcessor(cfg, nil)
		if err != nil {
			return err
		}

		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer cancel()

		return processor.ProcessFile(ctx, args[0])
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version",
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Println("nue " + version)
	},
}

func buildProcessor(cfg *config.Config, st *store.Store) (*job.Processor, error) {
	engine, err := ffmpeg.New(log.Logger, cfg.FFmpeg)
	if err != nil {
		return nil, err
	}

	library := assets.NewLibrary(cfg.Dirs.Assets, log.Logger)

	var recorder job.Recorder
	if st != nil {
		recorder = st
	}

	return job.NewProcessor(cfg, log.Logger, engine, library, recorder), nil
}

type ctxKey string

const configKey ctxKey = "config"

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey, cfg)
}

func configFrom(ctx context.Context) *config.Config {
	cfg, _ := ctx.Value(configKey).(*config.Config)
	return cfg
}
