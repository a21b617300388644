package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/verte-zerg/speakscore/internal/model"
	"github.com/verte-zerg/speakscore/internal/stats"
	"github.com/verte-zerg/speakscore/internal/store"
)

var (
	attemptSkill        string
	attemptScore        float64
	attemptAssessmentID string
	attemptLang         string
	attemptNew          bool

	stableSkill        string
	stableAssessmentID string
	stableLast         int
)

func newAttemptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "attempt",
		Short: "Record and inspect skill attempts",
	}
	cmd.AddCommand(newAttemptRecordCmd("add", "Append a counted attempt", false))
	cmd.AddCommand(newAttemptRecordCmd("supersede", "Replace the latest counted attempt (history is kept)", true))
	cmd.AddCommand(newAttemptListCmd())
	return cmd
}

func newAttemptRecordCmd(use, short string, supersede bool) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAttemptRecord(cmd, supersede)
		},
	}
	cmd.Flags().StringVar(&attemptSkill, "skill", defaultSkill, "skill name")
	cmd.Flags().Float64Var(&attemptScore, "score", 0, "attempt score (0-100)")
	cmd.Flags().StringVar(&attemptAssessmentID, "assessment", "", "assessment id (default: latest assessment)")
	cmd.Flags().StringVar(&attemptLang, "lang", defaultLang, "language of a newly created assessment")
	cmd.Flags().BoolVar(&attemptNew, "new", false, "start a new assessment")
	_ = cmd.MarkFlagRequired("score")
	return cmd
}

func runAttemptRecord(cmd *cobra.Command, supersede bool) error {
	if err := validateScore(attemptScore); err != nil {
		return err
	}
	skill := strings.TrimSpace(attemptSkill)
	if skill == "" {
		return fmt.Errorf("--skill must not be empty")
	}
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)

	ctx := cmd.Context()
	now := time.Now()
	assessmentID, err := resolveAssessment(ctx, st, attemptAssessmentID, attemptNew, attemptLang, now)
	if err != nil {
		return err
	}

	var rec model.AttemptRecord
	if supersede {
		rec, err = st.SupersedeLatest(ctx, assessmentID, skill, attemptScore, now)
		if errors.Is(err, store.ErrNoCountedAttempt) {
			return fmt.Errorf("no counted %s attempt to supersede in assessment %s", skill, assessmentID)
		}
	} else {
		rec, err = st.InsertAttempt(ctx, assessmentID, skill, attemptScore, now)
	}
	if err != nil {
		return fmt.Errorf("failed to save attempt: %w", err)
	}
	log.WithFields(logrus.Fields{
		"assessment": assessmentID,
		"skill":      rec.Skill,
		"attempt":    rec.AttemptNumber,
		"supersede":  supersede,
	}).Info("saved attempt")

	return printSkillStable(ctx, cmd.OutOrStdout(), st, aggregatorFromConfig(fileCfg.Aggregate), assessmentID, skill)
}

// resolveAssessment picks the assessment an attempt belongs to: the given id,
// a fresh one when requested or when none exists, else the latest.
func resolveAssessment(ctx context.Context, st *store.Store, id string, fresh bool, lang string, now time.Time) (string, error) {
	if id = strings.TrimSpace(id); id != "" {
		return id, nil
	}
	if !fresh {
		latest, err := st.LatestAssessment(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load latest assessment: %w", err)
		}
		if latest != "" {
			return latest, nil
		}
	}
	created, err := st.CreateAssessment(ctx, lang, now)
	if err != nil {
		return "", fmt.Errorf("failed to create assessment: %w", err)
	}
	log.WithField("assessment", created).Debug("started assessment")
	return created, nil
}

func newAttemptListCmd() *cobra.Command {
	var skill, assessmentID string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List skills, or the counted attempts of one skill",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := openStore()
			if err != nil {
				return err
			}
			defer closeStore(st)
			filter := model.StatsConfig{Skill: skill, AssessmentID: assessmentID}
			if skill == "" {
				return listSkills(cmd.Context(), cmd.OutOrStdout(), st, filter)
			}
			return listAttempts(cmd.Context(), cmd.OutOrStdout(), st, filter)
		},
	}
	cmd.Flags().StringVar(&skill, "skill", "", "skill name")
	cmd.Flags().StringVar(&assessmentID, "assessment", "", "assessment id filter")
	return cmd
}

func listSkills(ctx context.Context, w io.Writer, st *store.Store, filter model.StatsConfig) error {
	skills, err := st.ListSkills(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list skills: %w", err)
	}
	if len(skills) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Skill\tAttempts\tLast attempt")
	for _, s := range skills {
		fmt.Fprintf(tw, "%s\t%d\t%s\n", s.Skill, s.Attempts, s.LastAttempt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func listAttempts(ctx context.Context, w io.Writer, st *store.Store, filter model.StatsConfig) error {
	records, err := st.ListAttempts(ctx, filter)
	if err != nil {
		return fmt.Errorf("failed to list attempts: %w", err)
	}
	if len(records) == 0 {
		_, err := fmt.Fprintln(w, "No attempts found.")
		return err
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tScore\tSpeed\tPause\tRecorded")
	for _, rec := range records {
		speed, pause := "-", "-"
		_, score, ok, err := st.GetFluencyResult(ctx, rec.ID)
		if err != nil {
			return fmt.Errorf("failed to load fluency result: %w", err)
		}
		if ok {
			speed = strconv.Itoa(score.Speed)
			pause = strconv.Itoa(score.Pause)
		}
		fmt.Fprintf(tw, "%d\t%.0f\t%s\t%s\t%s\n", rec.AttemptNumber, rec.Score, speed, pause, rec.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func newStableCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stable [score...]",
		Short: "Compute the stable score of given scores or of a recorded skill",
		Args:  cobra.ArbitraryArgs,
		RunE:  runStableCmd,
	}
	cmd.Flags().StringVar(&stableSkill, "skill", defaultSkill, "skill to aggregate from history")
	cmd.Flags().StringVar(&stableAssessmentID, "assessment", "", "limit to one assessment")
	cmd.Flags().IntVar(&stableLast, "last", 0, "aggregate only the last N attempts")
	return cmd
}

func runStableCmd(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadFileConfig()
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "skill", &stableSkill, fileCfg.Stats.Skill)
	applyIntConfig(cmd, "last", &stableLast, fileCfg.Stats.Last)
	agg := aggregatorFromConfig(fileCfg.Aggregate)

	if len(args) > 0 {
		attempts, err := parseScores(args)
		if err != nil {
			return err
		}
		stable := agg.Compute(attempts)
		return writeStable(cmd.OutOrStdout(), "scores", stable, agg.DisplayScore(stable, len(attempts)))
	}

	if stableLast < 0 {
		return fmt.Errorf("--last must be >= 0")
	}
	st, err := openStore()
	if err != nil {
		return err
	}
	defer closeStore(st)
	filter := model.StatsConfig{Skill: stableSkill, AssessmentID: stableAssessmentID, Last: stableLast}
	report, err := stats.BuildReport(cmd.Context(), st, filter, agg)
	if err != nil {
		return fmt.Errorf("failed to build report: %w", err)
	}
	s, ok := report.Skill(stableSkill)
	if !ok {
		return fmt.Errorf("no counted attempts for skill %q", stableSkill)
	}
	return writeStable(cmd.OutOrStdout(), s.Skill, s.Stable, s.Display)
}

func parseScores(args []string) ([]model.AttemptScore, error) {
	attempts := make([]model.AttemptScore, 0, len(args))
	for i, arg := range args {
		v, err := strconv.ParseFloat(strings.TrimSpace(arg), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid score %q: %w", arg, err)
		}
		if v < 0 || v > 100 {
			return nil, fmt.Errorf("score %q must be between 0 and 100", arg)
		}
		attempts = append(attempts, model.AttemptScore{AttemptNumber: i + 1, Score: v})
	}
	return attempts, nil
}

func printSkillStable(ctx context.Context, w io.Writer, st *store.Store, agg stats.Aggregator, assessmentID, skill string) error {
	records, err := st.ListAttempts(ctx, model.StatsConfig{Skill: skill, AssessmentID: assessmentID})
	if err != nil {
		return fmt.Errorf("failed to list attempts: %w", err)
	}
	s, ok := stats.ReportFromRecords(records, 0, agg).Skill(skill)
	if !ok {
		return nil
	}
	return writeStable(w, s.Skill, s.Stable, s.Display)
}

func writeStable(w io.Writer, label string, s model.StableScore, display float64) error {
	_, err := fmt.Fprintf(w, "%s: %.0f (stable %.0f, mean %.1f, stddev %.1f, confidence %.0f%%, trend %s)\n",
		label, display, s.Stable, s.Mean, s.StdDev, s.Confidence*100, s.Trend)
	return err
}
