// Package tui implements the interactive boost session: a level picker, a
// candidate review table, and a confirmation gate in front of the same
// remediation primitives the CLI drives. The model is pure presentation; all
// reclaim work happens in the executor and the escalation script.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ink1ing/rambooster/pkg/candidates"
	"github.com/ink1ing/rambooster/pkg/escalate"
	"github.com/ink1ing/rambooster/pkg/memstats"
	"github.com/ink1ing/rambooster/pkg/procs"
	"github.com/ink1ing/rambooster/pkg/remedy"
	"github.com/ink1ing/rambooster/pkg/safety"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

var helpStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

// BoostLevel selects how far a session may go to reclaim memory.
type BoostLevel int

const (
	// LevelLow purges caches and touches no processes.
	LevelLow BoostLevel = iota
	// LevelMedium purges, then terminates the largest safe-tier processes
	// above the configured threshold.
	LevelMedium
	// LevelHigh runs the aggressive escalation script.
	LevelHigh
)

func (l BoostLevel) String() string {
	switch l {
	case LevelLow:
		return "low"
	case LevelMedium:
		return "medium"
	case LevelHigh:
		return "high"
	}
	return "unknown"
}

func (l BoostLevel) title() string {
	switch l {
	case LevelLow:
		return "Low"
	case LevelMedium:
		return "Medium"
	case LevelHigh:
		return "High"
	}
	return "Unknown"
}

func (l BoostLevel) description() string {
	switch l {
	case LevelLow:
		return "purge inactive caches, no processes touched"
	case LevelMedium:
		return "purge, then terminate the largest safe processes"
	case LevelHigh:
		return "aggressive script: purge, force-kill top consumers, purge"
	}
	return ""
}

// Booster runs one purge cycle with before and after readings.
type Booster interface {
	Boost(ctx context.Context) (remedy.RemediationResult, error)
}

// Sweeper terminates the top expendable consumers after a boost.
type Sweeper interface {
	Sweep(ctx context.Context, level memstats.PressureLevel) (int, error)
}

// Escalator interprets escalation scripts.
type Escalator interface {
	Run(ctx context.Context, script []escalate.Stage) (escalate.Outcome, error)
}

// ProcessLister enumerates running processes. An empty result is tolerated;
// the review table simply renders no rows.
type ProcessLister interface {
	List(ctx context.Context) []procs.ProcessRecord
}

// Session carries the collaborators and limits one interactive run uses.
// Sweeper and Escalator may be nil when EnableTermination is false; the
// picker refuses the levels that would need them.
type Session struct {
	Booster   Booster
	Sweeper   Sweeper
	Escalator Escalator
	Lister    ProcessLister

	RssThresholdMb    uint64
	EnableTermination bool
	AllowRisky        bool
	Targets           []string
	Protected         []string
}

// Outcome is what one finished session reclaimed.
type Outcome struct {
	Level      BoostLevel
	DeltaMb    int64
	Terminated int
	Duration   time.Duration
}

type sessionState int

const (
	statePick sessionState = iota
	stateReview
	stateConfirm
	stateRunning
	stateResult
)

type boostDoneMsg struct {
	outcome Outcome
	err     error
}

type candidatesMsg []procs.ProcessRecord

type sessionModel struct {
	// ctx flows into the commands so an external cancel stops the
	// in-flight boost with the program.
	ctx     context.Context
	session Session

	state  sessionState
	cursor int
	level  BoostLevel

	table   table.Model
	spin    spinner.Model
	notice  string
	outcome Outcome
	err     error
	width   int
	height  int
}

func newSessionModel(ctx context.Context, session Session) sessionModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("57"))

	m := sessionModel{
		ctx:     ctx,
		session: session,
		spin:    sp,
	}
	m.initTable()
	return m
}

func (m *sessionModel) initTable() {
	columns := []table.Column{
		{Title: "PID", Width: 8},
		{Title: "Name", Width: 28},
		{Title: "RSS MB", Width: 8},
		{Title: "Tier", Width: 10},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(s)

	m.table = t
}

func (m sessionModel) Init() tea.Cmd {
	return nil
}

// loadCandidates snapshots the processes the selected level could touch,
// largest first.
func (m sessionModel) loadCandidates() tea.Cmd {
	return func() tea.Msg {
		records := m.session.Lister.List(m.ctx)
		selected := candidates.Select(records, m.session.RssThresholdMb, m.session.Targets, m.session.Protected)
		return candidatesMsg(procs.TopByRSS(selected, len(selected)))
	}
}

// runBoost performs the selected level off the event loop and reports the
// outcome as a single message.
func (m sessionModel) runBoost() tea.Cmd {
	session := m.session
	ctx := m.ctx
	level := m.level
	return func() tea.Msg {
		start := time.Now()
		out := Outcome{Level: level}

		switch level {
		case LevelLow:
			result, err := session.Booster.Boost(ctx)
			if err != nil {
				return boostDoneMsg{err: err}
			}
			out.DeltaMb = result.DeltaMb

		case LevelMedium:
			result, err := session.Booster.Boost(ctx)
			if err != nil {
				return boostDoneMsg{err: err}
			}
			out.DeltaMb = result.DeltaMb
			terminated, err := session.Sweeper.Sweep(ctx, result.After.Pressure)
			if err != nil {
				return boostDoneMsg{err: err}
			}
			out.Terminated = terminated

		case LevelHigh:
			result, err := session.Escalator.Run(ctx, escalate.DefaultScript())
			if err != nil {
				return boostDoneMsg{err: err}
			}
			out.DeltaMb = result.TotalDeltaMb
			out.Terminated = result.Terminated
		}

		out.Duration = time.Since(start)
		return boostDoneMsg{outcome: out}
	}
}

func (m sessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return m, tea.Quit
		}

		switch m.state {
		case statePick:
			return m.updatePick(msg)

		case stateReview:
			switch msg.String() {
			case "q":
				return m, tea.Quit
			case "esc":
				m.state = statePick
				return m, nil
			case "enter":
				m.state = stateConfirm
				return m, nil
			}

		case stateConfirm:
			switch msg.String() {
			case "y", "Y":
				m.state = stateRunning
				return m, tea.Batch(m.spin.Tick, m.runBoost())
			case "n", "N", "esc":
				m.state = statePick
				return m, nil
			case "q":
				return m, tea.Quit
			}
			return m, nil

		case stateRunning:
			// The script is mid-flight; quitting here would abandon it.
			return m, nil

		case stateResult:
			switch msg.String() {
			case "q", "esc", "enter":
				return m, tea.Quit
			}
			return m, nil
		}

	case candidatesMsg:
		m.setRows(msg)
		return m, nil

	case boostDoneMsg:
		m.state = stateResult
		m.outcome = msg.outcome
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.state == stateRunning {
			m.spin, cmd = m.spin.Update(msg)
			return m, cmd
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if h := m.height - 12; h > 3 {
			m.table.SetHeight(h)
		}
	}

	if m.state == stateReview {
		m.table, cmd = m.table.Update(msg)
	}
	return m, cmd
}

func (m sessionModel) updatePick(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < int(LevelHigh) {
			m.cursor++
		}
	case "1":
		m.cursor = 0
	case "2":
		m.cursor = 1
	case "3":
		m.cursor = 2
	case "enter":
		level := BoostLevel(m.cursor)
		if level != LevelLow && !m.session.EnableTermination {
			m.notice = "Termination is disabled; set enable_termination to use this level"
			return m, nil
		}
		m.notice = ""
		m.level = level
		if level == LevelLow {
			m.state = stateRunning
			return m, tea.Batch(m.spin.Tick, m.runBoost())
		}
		m.state = stateReview
		return m, m.loadCandidates()
	}
	return m, nil
}

func (m *sessionModel) setRows(records []procs.ProcessRecord) {
	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		rows = append(rows, table.Row{
			strconv.Itoa(int(rec.Pid)),
			rec.Name,
			strconv.FormatUint(rec.RssMb, 10),
			string(safety.Classify(rec).Tier),
		})
	}
	m.table.SetRows(rows)
}

func (m sessionModel) View() string {
	if m.err != nil {
		return fmt.Sprintf("\nError: %v\n\nPress q to quit", m.err)
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("57")).Bold(true).Render("rambo Boost Session") + "\n\n")

	switch m.state {
	case statePick:
		b.WriteString("Pick a boost level:\n\n")
		for i := LevelLow; i <= LevelHigh; i++ {
			cursor := "  "
			nameStyle := lipgloss.NewStyle()
			if int(i) == m.cursor {
				cursor = "> "
				nameStyle = nameStyle.Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57")).Bold(true)
			}
			b.WriteString(fmt.Sprintf("%s%s  %s\n",
				cursor,
				nameStyle.Render(fmt.Sprintf(" %s ", i.title())),
				lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(i.description())))
		}
		if m.notice != "" {
			b.WriteString("\n" + lipgloss.NewStyle().
				Foreground(lipgloss.Color("229")).
				Background(lipgloss.Color("160")).
				Padding(0, 1).
				Render(" "+m.notice+" ") + "\n")
		}
		b.WriteString(helpStyle.Render("\n  enter: start • j/k: move • q: quit") + "\n")

	case stateReview:
		count := len(m.table.Rows())
		b.WriteString(fmt.Sprintf("%d candidates above %d MB. Only the safe tier is terminated", count, m.session.RssThresholdMb))
		if m.session.AllowRisky {
			b.WriteString(" (risky allowed)")
		}
		b.WriteString(".\n\n")
		b.WriteString(baseStyle.Render(m.table.View()) + "\n")
		b.WriteString(helpStyle.Render("\n  enter: continue • esc: back • q: quit") + "\n")

	case stateConfirm:
		prompt := " Purge and terminate the largest safe processes? [y/n] "
		if m.level == LevelHigh {
			prompt = " Run the aggressive script? Top consumers are force-killed. [y/n] "
		}
		b.WriteString("\n" + lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("160")).
			Bold(true).
			Padding(0, 1).
			Render(prompt) + "\n")

	case stateRunning:
		b.WriteString(fmt.Sprintf("%s Boosting (%s)...\n", m.spin.View(), m.level))
		b.WriteString(helpStyle.Render("\n  this can take a few seconds") + "\n")

	case stateResult:
		b.WriteString(lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57")).
			Padding(0, 1).
			Render(" Boost complete ") + "\n\n")
		b.WriteString(fmt.Sprintf("  Level:      %s\n", m.outcome.Level.title()))
		b.WriteString(fmt.Sprintf("  Freed:      %d MB\n", m.outcome.DeltaMb))
		if m.outcome.Level != LevelLow {
			b.WriteString(fmt.Sprintf("  Terminated: %d processes\n", m.outcome.Terminated))
		}
		b.WriteString(fmt.Sprintf("  Duration:   %s\n", m.outcome.Duration.Round(time.Millisecond)))
		b.WriteString(helpStyle.Render("\n  q: quit") + "\n")
	}

	return b.String()
}

// Run starts the interactive session and blocks until the user leaves it.
func Run(ctx context.Context, session Session) error {
	p := tea.NewProgram(newSessionModel(ctx, session), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}
