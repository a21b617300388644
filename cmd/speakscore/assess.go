package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speakscore/internal/config"
	"github.com/verte-zerg/speakscore/internal/fluency"
	"github.com/verte-zerg/speakscore/internal/lexicon"
	"github.com/verte-zerg/speakscore/internal/model"
	"github.com/verte-zerg/speakscore/internal/stats"
	"github.com/verte-zerg/speakscore/internal/transcript"
	"github.com/verte-zerg/speakscore/internal/tui"
)

var (
	assessLang         string
	assessLexicon      string
	assessPause        float64
	assessLongPause    float64
	assessSkill        string
	assessAssessmentID string
	assessSave         bool
	assessInteractive  bool
)

func newAssessCmd() *cobra.Command {
	th := fluency.DefaultThresholds()
	cmd := &cobra.Command{
		Use:   "assess <transcript>",
		Short: "Score the fluency of a timed transcript (.json or .yaml)",
		Args:  cobra.ExactArgs(1),
		RunE:  runAssessCmd,
	}
	cmd.Flags().StringVar(&assessLang, "lang", "", "language of the filler lexicon (default: transcript language, then en)")
	cmd.Flags().StringVar(&assessLexicon, "lexicon", "", "extra filler lexicon file, one token per line")
	cmd.Flags().Float64Var(&assessPause, "pause-threshold", th.Pause, "silence in seconds that counts as a pause")
	cmd.Flags().Float64Var(&assessLongPause, "long-pause-threshold", th.LongPause, "silence in seconds that counts as a long pause")
	cmd.Flags().StringVar(&assessSkill, "skill", defaultSkill, "skill to record the score under")
	cmd.Flags().StringVar(&assessAssessmentID, "assessment", "", "assessment id to record into (default: new assessment)")
	cmd.Flags().BoolVar(&assessSave, "save", false, "record the fluency score as an attempt")
	cmd.Flags().BoolVar(&assessInteractive, "tui", false, "open the word timeline view")
	return cmd
}

func runAssessCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "lang", &assessLang, fileCfg.Assess.Lang)
	applyStringConfig(cmd, "lexicon", &assessLexicon, fileCfg.Assess.Lexicon)
	applyFloatConfig(cmd, "pause-threshold", &assessPause, fileCfg.Assess.PauseThreshold)
	applyFloatConfig(cmd, "long-pause-threshold", &assessLongPause, fileCfg.Assess.LongPauseThreshold)

	tr, err := transcript.Load(args[0])
	if err != nil {
		return fmt.Errorf("failed to load transcript: %w", err)
	}
	if idx := tr.OutOfOrder(); len(idx) > 0 {
		log.WithField("indexes", idx).Warn("transcript words are not ordered by start time; pauses may be undercounted")
	}

	cfg := model.AssessConfig{
		Lang:               resolveLang(cmd.Flags().Changed("lang"), assessLang, tr.Language),
		LexiconPath:        assessLexicon,
		PauseThreshold:     assessPause,
		LongPauseThreshold: assessLongPause,
	}
	if err := validateAssessConfig(cfg); err != nil {
		return err
	}
	lex, err := resolveLexicon(cfg)
	if err != nil {
		return err
	}
	log.WithFields(logrus.Fields{
		"lang":    lex.Lang(),
		"fillers": lex.Len(),
	}).Debug("using filler lexicon")

	th := fluency.Thresholds{Pause: cfg.PauseThreshold, LongPause: cfg.LongPauseThreshold}
	metrics := th.Extract(tr.Words, tr.TotalDuration(), lex)
	score := fluency.Score(metrics)
	for _, p := range th.Pauses(tr.Words, lex) {
		log.WithFields(logrus.Fields{
			"start":    p.Start,
			"duration": p.Duration,
			"long":     p.Duration > th.WithDefaults().LongPause,
		}).Debug("pause")
	}
	log.WithFields(logrus.Fields{
		"speed_band": score.SpeedBand,
		"pause_band": score.PauseBand,
	}).Debug(score.Explanation)

	if assessInteractive {
		view := tui.NewModel(tr.Words, lex, th, metrics, score)
		program := tea.NewProgram(view, tea.WithAltScreen())
		if _, err := program.Run(); err != nil {
			return fmt.Errorf("failed to run TUI: %w", err)
		}
	} else if err := stats.RenderFluency(cmd.OutOrStdout(), metrics, score); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if !assessSave {
		return nil
	}
	return saveAssessment(cmd.Context(), cmd.OutOrStdout(), fileCfg, cfg.Lang, metrics, score)
}

func saveAssessment(ctx context.Context, w io.Writer, fileCfg config.FileConfig, lang string, metrics model.FluencyMetrics, score model.FluencyScore) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	now := time.Now()
	assessmentID := strings.TrimSpace(assessAssessmentID)
	if assessmentID == "" {
		assessmentID, err = st.CreateAssessment(ctx, lang, now)
		if err != nil {
			return fmt.Errorf("failed to create assessment: %w", err)
		}
	}
	rec, err := st.InsertAttempt(ctx, assessmentID, assessSkill, float64(score.Total), now)
	if err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	if err := st.InsertFluencyResult(ctx, rec.ID, metrics, score); err != nil {
		return fmt.Errorf("failed to save fluency result: %w", err)
	}
	log.WithFields(logrus.Fields{
		"assessment": assessmentID,
		"skill":      rec.Skill,
		"attempt":    rec.AttemptNumber,
	}).Info("saved attempt")

	agg := aggregatorFromConfig(fileCfg.Aggregate)
	return printSkillStable(ctx, w, st, agg, assessmentID, rec.Skill)
}

// resolveLang prefers an explicit --lang, then the transcript language, then
// the configured language.
func resolveLang(flagSet bool, lang, transcriptLang string) string {
	lang = strings.TrimSpace(lang)
	transcriptLang = strings.TrimSpace(transcriptLang)
	if flagSet && lang != "" {
		return lang
	}
	if transcriptLang != "" {
		return transcriptLang
	}
	if lang != "" {
		return lang
	}
	return defaultLang
}

func resolveLexicon(cfg model.AssessConfig) (*lexicon.Lexicon, error) {
	lex := lexicon.ForLang(cfg.Lang)
	path := cfg.LexiconPath
	if path == "" {
		path = config.DefaultLexiconPath(lex.Lang())
		if _, err := os.Stat(path); err != nil {
			return lex, nil
		}
	}
	extra, err := lexicon.Load(lex.Lang(), path)
	if err != nil {
		return nil, fmt.Errorf("failed to load lexicon %s: %w", path, err)
	}
	log.WithField("path", path).Debug("merged custom lexicon")
	return lexicon.Merge(lex, extra), nil
}

func validateAssessConfig(cfg model.AssessConfig) error {
	if cfg.PauseThreshold <= 0 {
		return fmt.Errorf("--pause-threshold must be > 0")
	}
	if cfg.LongPauseThreshold < cfg.PauseThreshold {
		return fmt.Errorf("--long-pause-threshold must be >= --pause-threshold")
	}
	return nil
}
