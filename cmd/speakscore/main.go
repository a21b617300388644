// Package main provides the CLI entrypoint for speakscore.
package main

import (
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speakscore/internal/config"
	"github.com/verte-zerg/speakscore/internal/fluency"
	"github.com/verte-zerg/speakscore/internal/model"
	"github.com/verte-zerg/speakscore/internal/stats"
	"github.com/verte-zerg/speakscore/internal/store"
)

const (
	defaultLang        = "en"
	defaultSkill       = "fluency"
	defaultCurveWindow = 5
)

var (
	verbose bool
	log     = newLogger(os.Stderr, false)
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "speakscore",
		Short:         "Score speaking fluency and track stable skill scores",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRun: func(cmd *cobra.Command, _ []string) {
			log = newLogger(cmd.ErrOrStderr(), verbose)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug diagnostics to stderr")

	rootCmd.AddCommand(newAssessCmd())
	rootCmd.AddCommand(newAttemptCmd())
	rootCmd.AddCommand(newStableCmd())
	rootCmd.AddCommand(newStatsCmd())
	rootCmd.AddCommand(newLexiconCmd())
	rootCmd.AddCommand(newConfigCmd())
	return rootCmd
}

func newLogger(w io.Writer, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: true,
	})
	logger.SetLevel(logrus.InfoLevel)
	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}
	return logger
}

func loadFileConfig() (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	return fileCfg, nil
}

func openStore() (*store.Store, error) {
	path := config.DefaultDBPath()
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	log.WithField("path", path).Debug("opened attempt store")
	return st, nil
}

func closeStore(st *store.Store) {
	if cerr := st.Close(); cerr != nil {
		log.WithError(cerr).Warn("failed to close db")
	}
}

func aggregatorFromConfig(fc config.AggregateConfig) stats.Aggregator {
	return stats.NewAggregator(stats.ParamsFromConfig(model.AggregateConfig{
		K:                fc.K,
		SingleFactor:     fc.SingleFactor,
		PairFactor:       fc.PairFactor,
		ManyFactor:       fc.ManyFactor,
		TrendWindow:      fc.TrendWindow,
		TrendDelta:       fc.TrendDelta,
		ConsistentStdDev: fc.ConsistentStdDev,
	}))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.DefaultConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
		log.WithField("path", path).Info("wrote config template")
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func defaultConfigTemplate() string {
	th := fluency.DefaultThresholds()
	p := stats.DefaultParams()
	return fmt.Sprintf(`# speakscore configuration
# Uncomment a value to enable it. CLI flags override config values.

[assess]
# lang = %q                    # Transcript language when the file has none
# lexicon = ""                  # Extra filler lexicon file, one token per line
# pause-threshold = %.1f        # Silence (s) that counts as a pause
# long-pause-threshold = %.1f   # Silence (s) that counts as a long pause

[aggregate]
# k = %.1f                      # Spread penalty multiplier (0 shows the mean)
# single-factor = %.1f          # k factor with one attempt
# pair-factor = %.1f            # k factor with two attempts
# many-factor = %.1f            # k factor with %d or more attempts
# trend-window = %d             # Recent attempts compared for the trend
# trend-delta = %.1f            # Points needed to call a trend
# consistent-stddev = %.1f      # Spread under which the mean is shown

[stats]
# skill = ""                    # Only show this skill
# last = 0                      # Aggregate only the last N attempts per skill
# curve-window = %d             # Moving average window for history
`,
		defaultLang,
		th.Pause,
		th.LongPause,
		p.K,
		p.SingleFactor,
		p.PairFactor,
		p.ManyFactor,
		p.ManyThreshold,
		p.TrendWindow,
		p.TrendDelta,
		p.ConsistentStdDev,
		defaultCurveWindow,
	)
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyFloatConfig(cmd *cobra.Command, name string, target, value *float64) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func validateScore(score float64) error {
	if score < 0 || score > 100 {
		return fmt.Errorf("--score must be between 0 and 100")
	}
	return nil
}
