package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/smaev/internal/evcharger"
)

// Message types for async operations
type tickMsg time.Time

type measurementsMsg struct {
	records []evcharger.MeasurementRecord
	err     error
}

// WatchModel is the bubbletea model for the live measurements dashboard
type WatchModel struct {
	client   *evcharger.Client
	interval time.Duration
	filter   map[string]bool // Channel ids to display; empty shows all

	spinner  spinner.Model
	records  []evcharger.MeasurementRecord
	pollErr  error
	lastPoll time.Time
	polling  bool
	width    int
	quitting bool
}

// NewWatch creates a dashboard model polling the given client.
// channels restricts the display to the named channel ids; nil shows all.
func NewWatch(client *evcharger.Client, interval time.Duration, channels []string) *WatchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = ValueStyle

	filter := make(map[string]bool, len(channels))
	for _, id := range channels {
		filter[id] = true
	}

	return &WatchModel{
		client:   client,
		interval: interval,
		filter:   filter,
		spinner:  sp,
		width:    GetTerminalWidth(),
	}
}

// Init starts the spinner and fires the first poll immediately
func (m *WatchModel) Init() tea.Cmd {
	m.polling = true
	return tea.Batch(m.spinner.Tick, m.poll())
}

// poll fetches the measurement snapshot off the UI loop
func (m *WatchModel) poll() tea.Cmd {
	client := m.client
	return func() tea.Msg {
		records, err := client.Measurements()
		return measurementsMsg{records: records, err: err}
	}
}

// tick schedules the next poll after the configured interval
func (m *WatchModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Update handles messages
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case tickMsg:
		m.polling = true
		return m, m.poll()

	case measurementsMsg:
		m.polling = false
		m.lastPoll = time.Now()
		m.pollErr = msg.err
		if msg.err == nil {
			m.records = msg.records
		}
		return m, m.tick()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the dashboard
func (m *WatchModel) View() string {
	if m.quitting {
		return ""
	}

	var sb strings.Builder

	sb.WriteString(TitleStyle.Render("SMA EV Charger - Live Measurements"))
	sb.WriteString("\n")
	sb.WriteString(SubtitleStyle.Render(m.client.BaseURL))
	sb.WriteString("\n\n")

	if m.pollErr != nil {
		sb.WriteString(ErrorStyle.Render(fmt.Sprintf("poll failed: %v", m.pollErr)))
		sb.WriteString("\n\n")
	}

	shown := 0
	for i := range m.records {
		rec := &m.records[i]
		if len(m.filter) > 0 && !m.filter[rec.ChannelID] {
			continue
		}
		if len(rec.Values) == 0 {
			continue
		}
		latest := rec.Values[len(rec.Values)-1]
		line := fmt.Sprintf("%s  %s  %s",
			ChannelStyle.Render(fmt.Sprintf("%-45s", rec.ChannelID)),
			ValueStyle.Render(fmt.Sprintf("%-12v", latest.Value)),
			TimeStyle.Render(latest.Time),
		)
		sb.WriteString(line)
		sb.WriteString("\n")
		shown++
	}

	if shown == 0 && m.pollErr == nil {
		if m.lastPoll.IsZero() {
			sb.WriteString(SubtitleStyle.Render("waiting for first snapshot..."))
		} else {
			sb.WriteString(SubtitleStyle.Render("no matching channels in snapshot"))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	status := fmt.Sprintf("refresh every %s", m.interval)
	if m.polling {
		status = m.spinner.View() + " polling..."
	} else if !m.lastPoll.IsZero() {
		status = fmt.Sprintf("last update %s - %s", m.lastPoll.Format("15:04:05"), status)
	}
	sb.WriteString(FooterStyle.Render(status + "  (q to quit)"))
	sb.WriteString("\n")

	return sb.String()
}

// RunWatch runs the dashboard until the user quits.
// The client must already be open.
func RunWatch(client *evcharger.Client, interval time.Duration, channels []string) error {
	model := NewWatch(client, interval, channels)
	program := tea.NewProgram(model)
	_, err := program.Run()
	return err
}
