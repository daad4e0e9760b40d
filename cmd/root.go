package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	cfg "github.com/maastricht-university/dream-pipeline/config"
)

type rootOptions struct {
	ConfigPath string
	LogFormat  string
	LogLevel   string
	OutputDir  string
}

var (
	opts   rootOptions
	conf   *cfg.Root
	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:               "dream-pipeline",
	Short:             "Turn a spoken dream narrative into an image",
	SilenceUsage:      true,
	PersistentPreRunE: preRunE,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (default config/$CONFIG_ENV/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "text", "log format: text or json")
	rootCmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "overrides pipeline.log_level")
	rootCmd.PersistentFlags().StringVarP(&opts.OutputDir, "out", "o", "", "output directory (default paths.outputs)")

	rootCmd.AddCommand(runCmd, renderCmd, batchCmd, historyCmd)
}

func preRunE(cmd *cobra.Command, args []string) error {
	c, err := cfg.Load(opts.ConfigPath)
	if err != nil {
		return err
	}
	conf = c
	return configureLogger(logger, c, opts, cmd.ErrOrStderr())
}

func configureLogger(l *logrus.Logger, c *cfg.Root, o rootOptions, out io.Writer) error {
	lvl := c.Pipeline.LogLvl
	if o.LogLevel != "" {
		lvl = o.LogLevel
	}
	level, err := logrus.ParseLevel(lvl)
	if err != nil {
		return fmt.Errorf("log level: %w", err)
	}
	l.SetLevel(level)
	l.SetOutput(out)

	switch o.LogFormat {
	case "json":
		l.SetFormatter(&logrus.JSONFormatter{})
	case "text", "":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return fmt.Errorf("unknown log format %q", o.LogFormat)
	}
	return nil
}

func outputDir() string {
	if opts.OutputDir != "" {
		return opts.OutputDir
	}
	return conf.Paths.Outputs
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
