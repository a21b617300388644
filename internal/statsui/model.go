// Package statsui provides the Bubble Tea stats interface.
package statsui

import (
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/verte-zerg/speakscore/internal/model"
	"github.com/verte-zerg/speakscore/internal/stats"
	"github.com/verte-zerg/speakscore/internal/store"
)

type tab int

const (
	overviewTab tab = iota
	skillsTab
	historyTab
	tabCount
)

var tabTitles = [tabCount]string{"Overview", "Skills", "History"}

const (
	focusCount = 3
	dateLayout = "2006-01-02"
)

// curveWindows are the smoothing windows reachable with -/=.
var curveWindows = []int{1, 3, 5, 10, 20}

var (
	tabStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true)
	activeTabStyle = tabStyle.
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	idleTabStyle = tabStyle.
			Foreground(lipgloss.Color("#B0B0B0")).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	errorStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
)

// Model implements the Bubble Tea stats UI.
type Model struct {
	store *store.Store
	cfg   model.StatsConfig
	agg   stats.Aggregator

	report stats.Report
	errMsg string

	active tab
	pages  [tabCount]viewport.Model
	skills table.Model

	editing  bool
	settings textinput.Model

	width  int
	height int
}

// NewModel constructs a stats UI model.
func NewModel(st *store.Store, cfg model.StatsConfig, agg stats.Aggregator) *Model {
	m := &Model{
		store:    st,
		cfg:      cfg,
		agg:      agg,
		skills:   newSkillTable(),
		settings: textinput.New(),
	}
	m.settings.Prompt = "Settings: "
	m.settings.CharLimit = 0
	for i := range m.pages {
		m.pages[i] = viewport.New(0, 0)
	}
	m.reload()
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		m.render()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			return m, tea.Quit
		}
		if m.editing {
			return m.updateSettings(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m *Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "left", "h", "shift+tab":
		m.switchTab(-1)
		return m, tea.ClearScreen
	case "right", "l", "tab":
		m.switchTab(1)
		return m, tea.ClearScreen
	case "=", "+":
		m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, 1)
		m.render()
		return m, nil
	case "-":
		m.cfg.CurveWindow = stepWindow(m.cfg.CurveWindow, -1)
		m.render()
		return m, nil
	case "/":
		m.editing = true
		m.settings.SetValue(formatSettings(m.cfg))
		m.settings.CursorEnd()
		return m, m.settings.Focus()
	case "enter":
		if row := m.skills.SelectedRow(); m.active == skillsTab && len(row) > 0 {
			m.cfg.Skill = row[0]
			m.switchTab(historyTab - m.active)
			m.render()
		}
		return m, nil
	}

	var cmd tea.Cmd
	if m.active == skillsTab {
		m.skills, cmd = m.skills.Update(msg)
	} else {
		m.pages[m.active], cmd = m.pages[m.active].Update(msg)
	}
	return m, cmd
}

func (m *Model) updateSettings(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.editing = false
		m.settings.Blur()
		m.errMsg = ""
		return m, nil
	case tea.KeyEnter:
		cfg, err := parseSettings(m.settings.Value())
		if err != nil {
			m.errMsg = err.Error()
			return m, nil
		}
		m.cfg = cfg
		m.editing = false
		m.settings.Blur()
		m.reload()
		return m, nil
	}
	var cmd tea.Cmd
	m.settings, cmd = m.settings.Update(msg)
	return m, cmd
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := lipgloss.JoinVertical(lipgloss.Left, m.viewTabs(), m.viewSettings())
	footer := m.viewFooter()
	bodyHeight := max(m.height-lipgloss.Height(header)-lipgloss.Height(footer), 1)

	var body string
	switch {
	case m.active == skillsTab && len(m.report.Skills) > 0:
		body = m.skills.View()
	case m.active == skillsTab:
		body = "No attempts found."
	default:
		body = m.pages[m.active].View()
	}
	return lipgloss.JoinVertical(lipgloss.Left, header, frame(body, m.width, bodyHeight), footer)
}

func (m *Model) viewTabs() string {
	parts := make([]string, 0, len(tabTitles))
	for i, title := range tabTitles {
		if tab(i) == m.active {
			parts = append(parts, activeTabStyle.Render(title))
		} else {
			parts = append(parts, idleTabStyle.Render(title))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...)
}

func (m *Model) viewSettings() string {
	if m.editing {
		return m.settings.View()
	}
	return dimStyle.Render(runewidth.Truncate("Settings: "+formatSettings(m.cfg), m.width, "..."))
}

func (m *Model) viewFooter() string {
	var help string
	switch {
	case m.editing:
		help = "keys: skill since last window  enter: apply  esc: cancel"
	case m.active == skillsTab:
		help = "tab: switch  up/down: select  enter: history  /: settings  q: quit"
	default:
		help = "tab: switch  up/down: scroll  -/=: window  /: settings  q: quit"
	}
	lines := []string{dimStyle.Render(help)}
	if m.errMsg != "" {
		lines = append(lines, errorStyle.Render(m.errMsg))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) switchTab(delta tab) {
	m.active = (m.active + delta + tabCount) % tabCount
	if m.active == skillsTab {
		m.skills.Focus()
	} else {
		m.skills.Blur()
	}
}

func (m *Model) resize() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	// tabs take three rows, settings and footer one each
	bodyHeight := max(m.height-5, 1)
	for i := range m.pages {
		m.pages[i].Width = m.width
		m.pages[i].Height = bodyHeight
	}
	m.skills.SetWidth(m.width)
	m.skills.SetHeight(bodyHeight)
	m.settings.Width = max(m.width-lipgloss.Width(m.settings.Prompt)-1, 10)
}

// reload rebuilds the report from the store. The skill setting narrows the
// history tab only.
func (m *Model) reload() {
	filter := m.cfg
	filter.Skill = ""
	report, err := stats.BuildReport(context.Background(), m.store, filter, m.agg)
	if err != nil {
		m.errMsg = err.Error()
		return
	}
	m.errMsg = ""
	m.report = report
	rows := make([]table.Row, 0, len(report.Skills))
	for _, s := range report.Skills {
		rows = append(rows, stats.SummaryRow(s))
	}
	m.skills.SetRows(rows)
	m.render()
}

func (m *Model) render() {
	width := m.width
	if width <= 0 {
		width = 80
	}
	m.pages[overviewTab].SetContent(overview(m.report, width))
	m.pages[historyTab].SetContent(history(m.report, m.cfg.Skill, m.cfg.CurveWindow, width))
}

func overview(report stats.Report, width int) string {
	if len(report.Skills) == 0 {
		return "No attempts found."
	}
	total := 0
	strongest := report.Skills[0]
	for _, s := range report.Skills {
		total += len(s.Attempts)
		if s.Display > strongest.Display {
			strongest = s
		}
	}
	cards := []string{
		card("Skills", strconv.Itoa(len(report.Skills))),
		card("Attempts", strconv.Itoa(total)),
		card("Strongest", fmt.Sprintf("%s %.0f", strongest.Skill, strongest.Display)),
		card("Most practiced", strings.Join(stats.MostPracticed(report.Skills, 1), "")),
	}
	summary := lipgloss.JoinHorizontal(lipgloss.Top, cards...)
	if lipgloss.Width(summary) > width {
		summary = lipgloss.JoinVertical(lipgloss.Left, cards...)
	}

	var b strings.Builder
	b.WriteString(summary)
	b.WriteString("\n\nFocus next")
	for _, name := range stats.WeakestSkills(report.Skills, focusCount) {
		s, _ := report.Skill(name)
		fmt.Fprintf(&b, "\n  %s %3.0f  (%s, %.0f%% confidence)",
			runewidth.FillRight(runewidth.Truncate(s.Skill, 16, "..."), 16),
			s.Display, s.Stable.Trend, s.Stable.Confidence*100)
	}
	return b.String()
}

func history(report stats.Report, skill string, window, width int) string {
	var selected *stats.SkillReport
	if skill != "" {
		s, ok := report.Skill(skill)
		if !ok {
			return fmt.Sprintf("No attempts found for %q.", skill)
		}
		selected = &s
		report = stats.Report{Skills: []stats.SkillReport{s}}
	}
	var buf bytes.Buffer
	if err := stats.RenderHistory(&buf, report, window, width); err != nil {
		return fmt.Sprintf("Failed to render history: %v", err)
	}
	if selected != nil {
		buf.WriteString("\n")
		for _, a := range selected.Attempts {
			fmt.Fprintf(&buf, "  %s  %5.1f\n", a.Timestamp.Local().Format("2006-01-02 15:04"), a.Score)
		}
	}
	return strings.TrimRight(buf.String(), "\n")
}

func card(label, value string) string {
	return cardStyle.Render(cardLabelStyle.Render(label) + "\n" + cardValueStyle.Render(value))
}

func newSkillTable() table.Model {
	t := table.New(table.WithColumns([]table.Column{
		{Title: "Skill", Width: 16},
		{Title: "Attempts", Width: 8},
		{Title: "Score", Width: 5},
		{Title: "Stable", Width: 6},
		{Title: "Mean", Width: 6},
		{Title: "StdDev", Width: 6},
		{Title: "Confidence", Width: 10},
		{Title: "Trend", Width: 17},
	}))
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Foreground(lipgloss.Color("#C0C0C0")).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Border(lipgloss.NormalBorder(), false, false, true, false).
		PaddingLeft(0)
	styles.Cell = styles.Cell.Foreground(lipgloss.Color("#B8B8B8")).PaddingLeft(0)
	styles.Selected = styles.Selected.Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	t.SetStyles(styles)
	return t
}

// frame clips s to width x height cells and pads the remainder.
func frame(s string, width, height int) string {
	clipped := lipgloss.NewStyle().MaxWidth(width).MaxHeight(height).Render(s)
	return lipgloss.Place(width, height, lipgloss.Left, lipgloss.Top, clipped)
}

// stepWindow moves n to the neighbouring entry of curveWindows.
func stepWindow(n, delta int) int {
	if delta > 0 {
		for _, w := range curveWindows {
			if w > n {
				return w
			}
		}
		return curveWindows[len(curveWindows)-1]
	}
	for i := len(curveWindows) - 1; i >= 0; i-- {
		if curveWindows[i] < n {
			return curveWindows[i]
		}
	}
	return curveWindows[0]
}

// formatSettings renders the filters as the key=value line parseSettings
// reads back.
func formatSettings(cfg model.StatsConfig) string {
	parts := make([]string, 0, 4)
	if cfg.Skill != "" {
		parts = append(parts, "skill="+cfg.Skill)
	}
	if cfg.Since != nil {
		parts = append(parts, "since="+cfg.Since.Format(dateLayout))
	}
	if cfg.Last > 0 {
		parts = append(parts, "last="+strconv.Itoa(cfg.Last))
	}
	parts = append(parts, "window="+strconv.Itoa(cfg.CurveWindow))
	return strings.Join(parts, " ")
}

// parseSettings reads a key=value line. Omitted keys reset to their defaults
// and a token without "=" continues the previous value, so skill names may
// contain spaces.
func parseSettings(line string) (model.StatsConfig, error) {
	values := map[string]string{}
	var key string
	for _, field := range strings.Fields(line) {
		k, v, ok := strings.Cut(field, "=")
		if !ok {
			if key == "" {
				return model.StatsConfig{}, fmt.Errorf("expected key=value, got %q", field)
			}
			values[key] += " " + field
			continue
		}
		key = strings.ToLower(k)
		values[key] = v
	}

	cfg := model.StatsConfig{CurveWindow: 1}
	for k, v := range values {
		switch k {
		case "skill":
			cfg.Skill = v
		case "since":
			if v == "" {
				continue
			}
			parsed, err := time.ParseInLocation(dateLayout, v, time.Local)
			if err != nil {
				return model.StatsConfig{}, fmt.Errorf("invalid since date %q (expected YYYY-MM-DD)", v)
			}
			cfg.Since = &parsed
		case "last":
			n, err := strconv.Atoi(v)
			if err != nil || n < 0 {
				return model.StatsConfig{}, fmt.Errorf("invalid last value %q (use 0 or a positive integer)", v)
			}
			cfg.Last = n
		case "window":
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return model.StatsConfig{}, fmt.Errorf("invalid window %q (use an integer >= 1)", v)
			}
			cfg.CurveWindow = n
		default:
			return model.StatsConfig{}, fmt.Errorf("unknown setting %q", k)
		}
	}
	return cfg, nil
}
