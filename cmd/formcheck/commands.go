package main

import (
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/ayusman/formcheck/internal/app"
	"github.com/ayusman/formcheck/internal/athlete"
	"github.com/ayusman/formcheck/internal/config"
	"github.com/ayusman/formcheck/internal/form"
	"github.com/ayusman/formcheck/internal/logging"
	"github.com/ayusman/formcheck/internal/pose"
	"github.com/ayusman/formcheck/internal/session"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "formcheck",
		Short: "Exercise form analysis over pose landmarks",
		Long: `formcheck recognizes exercises from streams of body landmarks,
checks their form and tracks fatigue across a set.`,
		SilenceUsage: true,
	}
	root.AddCommand(newServeCmd(), newReplayCmd(), newExercisesCmd())
	return root
}

func newServeCmd() *cobra.Command {
	var env, configPath string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.Warnf("---->> running in [%s] environment", env)

			cfg, err := config.Load(env, configPath)
			if err != nil {
				return err
			}

			sentryDSN := cfg.SentryDSN
			if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
				sentryDSN = dsn
			}
			logging.Setup(logging.LoggerSetupParams{
				LogFileName:      cfg.LogsPath,
				LogToStdout:      cfg.LogToStdout,
				LogLevel:         cfg.LogLevel,
				LogFormatJSON:    cfg.LogFormatJSON,
				Environment:      env,
				SentryEnabled:    cfg.SentryEnabled,
				SentryDSN:        sentryDSN,
				SentryServerName: "formcheck",
			})
			log.Debugf("using port: %d", cfg.Port)
			log.Debugf("using logs path: [%s]", cfg.LogsPath)

			a, err := app.New(cfg)
			if err != nil {
				return fmt.Errorf("new app: %w", err)
			}
			return a.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&env, "env", "development", "environment [dev | development | prod | production]")
	cmd.Flags().StringVar(&configPath, "config", "", "path for the TOML config file (defaults apply when empty)")
	return cmd
}

func newReplayCmd() *cobra.Command {
	var (
		file, exercise, flexibility, logLevel string
		age                                   int
	)
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Analyze a JSON-lines landmark recording, one result per line",
		RunE: func(cmd *cobra.Command, _ []string) error {
			log.SetOutput(cmd.ErrOrStderr())
			log.SetLevel(logging.GetLevel(logLevel))

			opts := app.ReplayOptions{Session: session.DefaultConfig()}
			if exercise != "" {
				k, err := form.ParseKind(exercise)
				if err != nil {
					return err
				}
				opts.Exercise = k
			}
			if flexibility != "" || cmd.Flags().Changed("age") {
				opts.User = &athlete.Profile{Flexibility: flexibility}
				if cmd.Flags().Changed("age") {
					opts.User.Age = athlete.Age(age)
				}
			}

			var src pose.Source
			if file == "-" {
				src = pose.NewJSONLinesSource(cmd.InOrStdin())
			} else {
				f, err := os.Open(file)
				if err != nil {
					return fmt.Errorf("open recording: %w", err)
				}
				src = pose.NewJSONLinesSource(f)
			}

			stats, err := app.Replay(cmd.Context(), src, opts, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			log.Infof("%d frames, %d with a pose, %d fatigue alarms", stats.Frames, stats.Detected, stats.Alarms)
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "-", "JSON-lines recording, - for stdin")
	cmd.Flags().StringVarP(&exercise, "exercise", "e", "", "analyze every frame as this exercise")
	cmd.Flags().StringVar(&flexibility, "flexibility", "", "athlete flexibility [low | normal | high]")
	cmd.Flags().IntVar(&age, "age", 0, "athlete age")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	return cmd
}

func newExercisesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exercises",
		Short: "List supported exercises",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			for _, k := range form.Kinds() {
				fmt.Fprintln(cmd.OutOrStdout(), k)
			}
		},
	}
}
