// SPDX-License-Identifier: GPL-2.0-or-later
// Copyright (c) 2025 Kaz Walker, Thermoquad

package cmd

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/Thermoquad/ixdump/pkg/ratio"
)

// Event log entry
type logEntry struct {
	timestamp time.Time
	message   string
	isError   bool
}

// Dump TUI model
type dumpModel struct {
	connInfo      string
	stats         *ratio.Statistics
	spinner       spinner.Model
	progress      progress.Model
	diveID        uint16
	diveIndex     int
	diveTotal     int
	sample        int
	sampleTotal   int
	eventLog      []logEntry
	maxLogEntries int
	width         int
	done          bool
	quitting      bool
	cancel        context.CancelFunc
}

// Messages
type tickMsg time.Time
type dumpEventMsg dumpEvent
type sampleMsg ratio.Progress
type frameErrorMsg ratio.FrameEvent
type dumpDoneMsg struct {
	result dumpResult
	err    error
}

func newDumpModel(connInfo string, stats *ratio.Statistics, cancel context.CancelFunc) dumpModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))

	return dumpModel{
		connInfo:      connInfo,
		stats:         stats,
		spinner:       s,
		progress:      progress.New(progress.WithDefaultGradient(), progress.WithWidth(50)),
		eventLog:      make([]logEntry, 0),
		maxLogEntries: 100,
		width:         80,
		cancel:        cancel,
	}
}

func (m dumpModel) Init() tea.Cmd {
	return tea.Batch(tickCmd(), m.spinner.Tick)
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m dumpModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-4, 80)

	case tickMsg:
		// Redraw so the rates stay current
		return m, tickCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case dumpEventMsg:
		m.applyEvent(dumpEvent(msg))

	case sampleMsg:
		m.diveID = msg.DiveID
		m.sample = msg.Sample
		m.sampleTotal = msg.Total

	case frameErrorMsg:
		m.addLogEntry(fmt.Sprintf("%s: %v", ratio.FormatCommand(msg.Command), msg.Err), true)

	case dumpDoneMsg:
		m.done = true
		if msg.err != nil {
			m.addLogEntry(fmt.Sprintf("FAILED: %v", msg.err), true)
		} else {
			m.addLogEntry(fmt.Sprintf("Finished: %d downloaded, %d skipped", msg.result.Downloaded, msg.result.Skipped), false)
		}
		return m, tea.Quit
	}

	return m, nil
}

func (m *dumpModel) applyEvent(e dumpEvent) {
	switch e.kind {
	case dumpListed:
		m.diveTotal = e.total
		m.addLogEntry(fmt.Sprintf("%d dives to download", e.total), false)
	case dumpDiveStarted:
		m.diveID = e.diveID
		m.diveIndex = e.index
		m.sample, m.sampleTotal = 0, 0
	case dumpDiveSkipped:
		m.addLogEntry(fmt.Sprintf("Dive %d already archived", e.diveID), false)
	case dumpDiveDone:
		for _, a := range e.anomalies {
			m.addLogEntry(fmt.Sprintf("Dive %d: %s", e.diveID, a.Message), true)
		}
		msg := fmt.Sprintf("Dive %d: %d samples", e.diveID, e.samples)
		if e.path != "" {
			msg += " -> " + e.path
		}
		m.addLogEntry(msg, false)
	}
}

func (m *dumpModel) addLogEntry(message string, isError bool) {
	m.eventLog = append(m.eventLog, logEntry{
		timestamp: time.Now(),
		message:   message,
		isError:   isError,
	})

	// Keep only last N entries
	if len(m.eventLog) > m.maxLogEntries {
		m.eventLog = m.eventLog[len(m.eventLog)-m.maxLogEntries:]
	}
}

func (m dumpModel) View() string {
	if m.quitting {
		return "Cancelling...\n"
	}

	// Styles
	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("12")).
		Background(lipgloss.Color("235")).
		Padding(0, 1)

	headerStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("241"))

	labelStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("12")).
		Bold(true)

	valueStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("10"))

	errorStyle := lipgloss.NewStyle().
		Foreground(lipgloss.Color("9")).
		Bold(true)

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Padding(0, 1)

	var s strings.Builder
	s.WriteString(titleStyle.Render("IXDUMP - DIVE DOWNLOAD"))
	s.WriteString("\n")
	s.WriteString(headerStyle.Render(fmt.Sprintf("%s | Press 'q' to cancel", m.connInfo)))
	s.WriteString("\n\n")

	// Current dive
	switch {
	case m.done:
		s.WriteString(valueStyle.Render("✓ Done"))
	case m.diveTotal == 0:
		s.WriteString(m.spinner.View() + " Reading dive list...")
	default:
		s.WriteString(fmt.Sprintf("%s Dive %d (%d of %d)", m.spinner.View(), m.diveID, m.diveIndex, m.diveTotal))
	}
	s.WriteString("\n")

	var percent float64
	if m.sampleTotal > 0 {
		percent = float64(m.sample) / float64(m.sampleTotal)
	}
	s.WriteString(m.progress.ViewAs(percent))
	s.WriteString(headerStyle.Render(fmt.Sprintf("  %d/%d samples", m.sample, m.sampleTotal)))
	s.WriteString("\n\n")

	// Statistics
	c := m.stats.Snapshot()
	var stats strings.Builder
	stats.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s\n",
		labelStyle.Render("Requests:"), valueStyle.Render(fmt.Sprintf("%d", c.Requests)),
		labelStyle.Render("ACK:"), valueStyle.Render(fmt.Sprintf("%d", c.Acks)),
		labelStyle.Render("Errors:"), func() string {
			if c.Errors() > 0 {
				return errorStyle.Render(fmt.Sprintf("%d", c.Errors()))
			}
			return valueStyle.Render("0")
		}(),
	))
	stats.WriteString(fmt.Sprintf("%s %s   %s %s   %s %s",
		labelStyle.Render("Dives:"), valueStyle.Render(fmt.Sprintf("%d", c.Dives)),
		labelStyle.Render("Samples:"), valueStyle.Render(fmt.Sprintf("%d", c.Samples)),
		labelStyle.Render("Rate:"), valueStyle.Render(fmt.Sprintf("%.1f req/s", c.RequestRate)),
	))
	s.WriteString(boxStyle.Render(stats.String()))
	s.WriteString("\n\n")

	// Event log
	s.WriteString(labelStyle.Render("Events:"))
	s.WriteString("\n")
	start := max(0, len(m.eventLog)-10)
	for _, entry := range m.eventLog[start:] {
		line := fmt.Sprintf("[%s] %s", entry.timestamp.Format("15:04:05"), entry.message)
		if entry.isError {
			s.WriteString(errorStyle.Render(line))
		} else {
			s.WriteString(line)
		}
		s.WriteString("\n")
	}

	return s.String()
}

// runDumpTUI runs dumpDives behind the progress view. Quitting the view
// cancels the download.
func runDumpTUI(ctx context.Context, opts dumpOptions, stats *ratio.Statistics) (dumpResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var p *tea.Program
	session, conn, connInfo, err := newSession(
		ratio.WithLogger(zap.NewNop()),
		ratio.WithStatistics(stats),
		ratio.WithProgress(func(pr ratio.Progress) { p.Send(sampleMsg(pr)) }),
		ratio.WithFrameHook(func(e ratio.FrameEvent) {
			if e.Err != nil {
				p.Send(frameErrorMsg(e))
			}
		}),
	)
	if err != nil {
		return dumpResult{}, err
	}
	defer conn.Close()

	p = tea.NewProgram(newDumpModel(connInfo, stats, cancel), tea.WithAltScreen())

	finished := make(chan dumpDoneMsg, 1)
	go func() {
		result, err := dumpDives(ctx, session, opts, func(e dumpEvent) { p.Send(dumpEventMsg(e)) })
		done := dumpDoneMsg{result: result, err: err}
		finished <- done
		p.Send(done)
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-finished
		return dumpResult{}, fmt.Errorf("tui: %w", err)
	}

	// Quitting early cancels ctx; the download stops at its next request
	cancel()
	done := <-finished
	return done.result, done.err
}
