package main

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speakscore/internal/config"
	"github.com/verte-zerg/speakscore/internal/lexicon"
	"github.com/verte-zerg/speakscore/internal/model"
	"github.com/verte-zerg/speakscore/internal/stats"
	"github.com/verte-zerg/speakscore/internal/statsui"
)

var (
	statsSkill       string
	statsAssessment  string
	statsSince       string
	statsLast        int
	statsCurveWindow int
	statsPlain       bool
)

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show stable scores per skill",
		Args:  cobra.NoArgs,
		RunE:  runStatsCmd,
	}
	cmd.Flags().StringVar(&statsSkill, "skill", "", "skill filter")
	cmd.Flags().StringVar(&statsAssessment, "assessment", "", "assessment id filter")
	cmd.Flags().StringVar(&statsSince, "since", "", "start date (YYYY-MM-DD)")
	cmd.Flags().IntVar(&statsLast, "last", 0, "aggregate only the last N attempts per skill")
	cmd.Flags().IntVar(&statsCurveWindow, "curve-window", defaultCurveWindow, "moving average window for history")
	cmd.Flags().BoolVar(&statsPlain, "plain", false, "print tables instead of opening the TUI")
	return cmd
}

func runStatsCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "skill", &statsSkill, fileCfg.Stats.Skill)
	applyIntConfig(cmd, "last", &statsLast, fileCfg.Stats.Last)
	applyIntConfig(cmd, "curve-window", &statsCurveWindow, fileCfg.Stats.CurveWindow)

	var sinceTime *time.Time
	if statsSince != "" {
		parsed, err := time.ParseInLocation("2006-01-02", statsSince, time.Local)
		if err != nil {
			return fmt.Errorf("invalid --since value: %w", err)
		}
		sinceTime = &parsed
	}
	cfg := model.StatsConfig{
		Skill:        statsSkill,
		AssessmentID: statsAssessment,
		Since:        sinceTime,
		Last:         statsLast,
		CurveWindow:  statsCurveWindow,
	}
	if err := validateStatsConfig(cfg); err != nil {
		return err
	}
	agg := aggregatorFromConfig(fileCfg.Aggregate)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	if statsPlain {
		report, err := stats.BuildReport(cmd.Context(), st, cfg, agg)
		if err != nil {
			return fmt.Errorf("failed to build report: %w", err)
		}
		out := cmd.OutOrStdout()
		if err := stats.RenderSummary(out, report); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		if err := stats.RenderHistory(out, report, cfg.CurveWindow, 0); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		return nil
	}

	view := statsui.NewModel(st, cfg, agg)
	program := tea.NewProgram(view, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run stats TUI: %w", err)
	}
	return nil
}

func validateStatsConfig(cfg model.StatsConfig) error {
	if cfg.Last < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	if cfg.CurveWindow < 1 {
		return fmt.Errorf("--curve-window must be >= 1")
	}
	return nil
}

func newLexiconCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lexicon [lang]",
		Short: "List built-in filler lexicons or show the fillers of one language",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLexiconCmd,
	}
}

func runLexiconCmd(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	if len(args) == 0 {
		for _, lang := range lexicon.Languages() {
			if _, err := fmt.Fprintln(out, lang); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
		log.WithField("dir", config.DefaultLexiconDir()).Debug("custom lexicons are merged from <dir>/<lang>.txt")
		return nil
	}
	lex, err := resolveLexicon(model.AssessConfig{Lang: args[0]})
	if err != nil {
		return err
	}
	if lex.Len() == 0 {
		return fmt.Errorf("no filler lexicon for %q (built-in: %s)", args[0], strings.Join(lexicon.Languages(), ", "))
	}
	for _, w := range lex.Words() {
		if _, err := fmt.Fprintln(out, w); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}
