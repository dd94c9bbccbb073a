package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/pkg/ui/components"
)

// StartupStep represents a step in the startup process.
type StartupStep struct {
	Name   string
	Status string // "pending", "connecting", "connected", "done", "failed"
}

// Phase represents the current UI phase.
type Phase string

const (
	PhaseWelcome   Phase = "welcome"
	PhaseStartup   Phase = "startup"
	PhaseDashboard Phase = "dashboard"
)

// WelcomeDuration is how long the welcome screen shows before auto-advancing.
const WelcomeDuration = 2 * time.Second

var stepOrder = []string{"config", "redis", "ethereum", "analyzer"}

// ErrorEntry represents an error with timestamp.
type ErrorEntry struct {
	Message   string
	Timestamp time.Time
}

// Model is the main Bubble Tea model for the TUI.
type Model struct {
	keys          KeyMap
	market        *components.MarketComponent
	opportunities *components.OpportunitiesComponent
	stats         *components.StatsComponent
	status        *components.StatusComponent

	phase        Phase
	welcomeStart time.Time

	ready        bool
	quitting     bool
	paused       bool // freezes the opportunity list, counters keep running
	width        int
	height       int
	lastUpdate   time.Time
	lastScanTime time.Time
	errors       []ErrorEntry // last 3
	logs         []string
	activityFeed []string

	startupSteps map[string]*StartupStep
	startupTime  time.Time
	scanMillis   float64 // running sum for the average
}

// New creates a new TUI model.
func New() Model {
	now := time.Now()
	return Model{
		keys:          DefaultKeyMap(),
		market:        components.NewMarketComponent(),
		opportunities: components.NewOpportunitiesComponent(50),
		stats:         components.NewStatsComponent(),
		status:        components.NewStatusComponent(),
		phase:         PhaseWelcome,
		welcomeStart:  now,
		logs:          make([]string, 0, 5),
		errors:        make([]ErrorEntry, 0, 3),
		activityFeed:  make([]string, 0, 6),
		startupSteps: map[string]*StartupStep{
			"config":   {Name: "Loading configuration", Status: "pending"},
			"redis":    {Name: "Connecting to Redis", Status: "pending"},
			"ethereum": {Name: "Starting gas oracle", Status: "pending"},
			"analyzer": {Name: "Starting analyzer", Status: "pending"},
		},
		startupTime: now,
	}
}

// Init initializes the TUI model.
func (m Model) Init() tea.Cmd {
	return tickCmd()
}

func tickCmd() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return TickMsg{}
	})
}

// Update handles messages and updates the model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			return m, tea.Quit
		}
		if m.phase == PhaseWelcome {
			m = m.enterStartup()
			return m, tickCmd()
		}
		switch {
		case key.Matches(msg, m.keys.Clear):
			m.opportunities.Clear()
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		case key.Matches(msg, m.keys.Up):
			m.opportunities.ScrollUp()
		case key.Matches(msg, m.keys.Down):
			m.opportunities.ScrollDown()
		case key.Matches(msg, m.keys.ClearErrors):
			m.errors = make([]ErrorEntry, 0, 3)
		}
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.ready = true

	case TickMsg:
		if m.phase == PhaseWelcome && time.Since(m.welcomeStart) >= WelcomeDuration {
			m = m.enterStartup()
		}
		return m, tickCmd()

	case OpportunityMsg:
		if msg.Opportunity == nil {
			return m, nil
		}
		st := m.stats.Stats()
		st.Opportunities++
		if roi := msg.Opportunity.ROIPercentage.InexactFloat64(); roi > st.BestROI {
			st.BestROI = roi
		}
		m.stats.Update(st)
		if !m.paused {
			m.opportunities.Add(opportunityRow(msg.Opportunity))
		}
		m.lastUpdate = time.Now()

	case ScanMsg:
		st := m.stats.Stats()
		st.Updates = msg.Iteration
		if msg.Mode == "full" {
			st.FullScans++
		} else {
			st.TargetedScans++
		}
		st.Warnings += uint64(len(msg.Warnings))
		m.scanMillis += float64(msg.Duration.Microseconds()) / 1000
		if n := st.FullScans + st.TargetedScans; n > 0 {
			st.AvgScanMs = m.scanMillis / float64(n)
		}
		m.stats.Update(st)

		if msg.Mode == "full" || msg.Opportunities > 0 {
			m.activityFeed = addActivity(m.activityFeed,
				fmt.Sprintf("%s scan #%d: %d opportunities in %s", msg.Mode, msg.Iteration, msg.Opportunities, msg.Duration.Round(time.Microsecond)))
		}
		for _, w := range msg.Warnings {
			m.logs = addLog(m.logs, "warn", w)
		}
		m.lastScanTime = time.Now()
		m.lastUpdate = m.lastScanTime
		m = m.enterDashboard()

	case MarketSummaryMsg:
		m.market.Update(msg.Summary, msg.Key)
		m.lastUpdate = time.Now()

	case GasCostMsg:
		m.market.SetGasCost(msg.Venue, msg.USD)
		m.activityFeed = addActivity(m.activityFeed, fmt.Sprintf("gas %s: $%.2f per leg", msg.Venue, msg.USD))

	case ConnectionStatusMsg:
		m.status.Update(components.ConnectionStatus{
			Name:       msg.Name,
			Connected:  msg.Connected,
			Latency:    msg.Latency,
			LastUpdate: time.Now(),
		})
		if step, ok := m.startupSteps[strings.ToLower(msg.Name)]; ok {
			if msg.Connected {
				step.Status = "connected"
			} else {
				step.Status = "failed"
			}
		}
		m.lastUpdate = time.Now()

	case ErrorMsg:
		if msg.Error == nil {
			return m, nil
		}
		st := m.stats.Stats()
		st.Errors++
		m.stats.Update(st)
		m.logs = addLog(m.logs, "error", msg.Error.Error())
		m.errors = append(m.errors, ErrorEntry{Message: msg.Error.Error(), Timestamp: time.Now()})
		if len(m.errors) > 3 {
			m.errors = m.errors[len(m.errors)-3:]
		}

	case LogMsg:
		m.logs = addLog(m.logs, msg.Level, msg.Message)

	case StartupMsg:
		if step, ok := m.startupSteps[msg.Step]; ok {
			step.Status = msg.Status
		}
		if m.startupComplete() {
			m = m.enterDashboard()
		}
	}

	return m, nil
}

func (m Model) enterStartup() Model {
	m.phase = PhaseStartup
	m.startupTime = time.Now()
	// Update must not block on Send, so the callback runs on its own goroutine.
	if OnStartModules != nil {
		go OnStartModules()
	}
	return m
}

func (m Model) enterDashboard() Model {
	if m.phase != PhaseWelcome {
		m.phase = PhaseDashboard
	}
	return m
}

func (m Model) startupComplete() bool {
	for _, step := range m.startupSteps {
		if step.Status != "connected" && step.Status != "done" {
			return false
		}
	}
	return true
}

func opportunityRow(opp *domain.ArbitrageOpportunity) components.OpportunityRow {
	return components.OpportunityRow{
		Time:      opp.Timestamp.Format("15:04:05"),
		Pair:      opp.Pair,
		Buy:       opp.BuyExchange,
		Sell:      opp.SellExchange,
		BuyPrice:  opp.BuyPrice,
		SellPrice: opp.SellPrice,
		Size:      opp.MaxSize,
		NetProfit: opp.NetProfit,
		ROI:       opp.ROIPercentage,
		Risk:      opp.RiskLevel().String(),
	}
}

// addLog keeps the last 5 log lines.
func addLog(logs []string, level, message string) []string {
	logs = append(logs, fmt.Sprintf("[%s] %s: %s", time.Now().Format("15:04:05"), level, message))
	if len(logs) > 5 {
		logs = logs[len(logs)-5:]
	}
	return logs
}

// addActivity keeps the last 6 activity lines.
func addActivity(feed []string, message string) []string {
	feed = append(feed, fmt.Sprintf("[%s] %s", time.Now().Format("15:04:05"), message))
	if len(feed) > 6 {
		feed = feed[len(feed)-6:]
	}
	return feed
}

// View renders the TUI.
func (m Model) View() string {
	if m.quitting {
		return "\n  Goodbye!\n\n"
	}

	switch m.phase {
	case PhaseWelcome:
		return m.renderWelcomeScreen()
	case PhaseStartup:
		return m.renderStartupScreen()
	}

	var b strings.Builder
	b.WriteString(TitleStyle.Render(" Spread Analyzer "))
	b.WriteString("\n\n")
	b.WriteString(m.renderStatusBar())
	b.WriteString("\n\n")

	leftCol := m.market.View()

	var right strings.Builder
	right.WriteString(m.renderActivityFeed())
	right.WriteString("\n\n")
	right.WriteString(m.opportunities.View())
	rightCol := right.String()

	if m.width > 100 {
		left := BoxStyle.Width(m.width/3 - 2).Render(leftCol)
		r := BoxStyle.Width(2*m.width/3 - 2).Render(rightCol)
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, left, r))
	} else {
		width := m.width - 4
		if width < 20 {
			width = 20
		}
		b.WriteString(BoxStyle.Width(width).Render(leftCol))
		b.WriteString("\n")
		b.WriteString(BoxStyle.Width(width).Render(rightCol))
	}
	b.WriteString("\n\n")
	b.WriteString(m.stats.View())
	b.WriteString("\n\n")

	if len(m.errors) > 0 {
		b.WriteString(DangerValue.Bold(true).Render("ERRORS"))
		b.WriteString(MutedValue.Render(" (e: clear)"))
		b.WriteString("\n")
		for _, err := range m.errors {
			ago := time.Since(err.Timestamp).Round(time.Second)
			b.WriteString(DangerValue.Render(fmt.Sprintf("  • %s ", err.Message)))
			b.WriteString(MutedValue.Render(fmt.Sprintf("(%s ago)", ago)))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if len(m.logs) > 0 {
		for _, line := range m.logs {
			b.WriteString(MutedValue.Render("  " + line))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	if m.paused {
		b.WriteString(WarningValue.Bold(true).Render("⏸ PAUSED"))
		b.WriteString(" • ")
	}
	b.WriteString(HelpStyle.Render("q: quit • c: clear • p: pause • e: clear errors • ↑↓: scroll"))

	return b.String()
}

func (m Model) renderActivityFeed() string {
	var sb strings.Builder
	sb.WriteString(HeaderStyle.Render("LIVE ACTIVITY"))
	sb.WriteString("\n\n")

	if len(m.activityFeed) == 0 {
		sb.WriteString(MutedValue.Render("  Waiting for scans..."))
		return sb.String()
	}
	for _, activity := range m.activityFeed {
		sb.WriteString(MutedValue.Render("  " + activity))
		sb.WriteString("\n")
	}
	return sb.String()
}

func (m Model) renderWelcomeScreen() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	goldStyle := lipgloss.NewStyle().Bold(true).Foreground(ColorWarning)

	dots := strings.Repeat(".", int(time.Since(m.welcomeStart).Milliseconds()/300)%4)

	var sb strings.Builder
	sb.WriteString("\n\n\n\n")
	logo := `
   ███████╗██████╗ ██████╗ ███████╗ █████╗ ██████╗
   ██╔════╝██╔══██╗██╔══██╗██╔════╝██╔══██╗██╔══██╗
   ███████╗██████╔╝██████╔╝█████╗  ███████║██║  ██║
   ╚════██║██╔═══╝ ██╔══██╗██╔══╝  ██╔══██║██║  ██║
   ███████║██║     ██║  ██║███████╗██║  ██║██████╔╝
   ╚══════╝╚═╝     ╚═╝  ╚═╝╚══════╝╚═╝  ╚═╝╚═════╝
`
	sb.WriteString(titleStyle.Render(logo))
	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render("          C R O S S - E X C H A N G E   A N A L Y Z E R"))
	sb.WriteString("\n\n\n")
	sb.WriteString(goldStyle.Render("              Watching every book, both directions"))
	sb.WriteString("\n\n\n")
	sb.WriteString(SuccessValue.Render(fmt.Sprintf("                  Initializing%s", dots)))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("            Press any key to skip, or wait..."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStartupScreen() string {
	var sb strings.Builder
	sb.WriteString("\n\n")
	sb.WriteString(HeaderStyle.Render("  Spread Analyzer"))
	sb.WriteString("\n\n")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Render("  Starting up..."))
	sb.WriteString("\n\n")

	frame := int(time.Since(m.startupTime).Milliseconds() / 200)
	for _, k := range stepOrder {
		step, ok := m.startupSteps[k]
		if !ok {
			continue
		}

		icon, text, style := stepAppearance(step.Status, frame)
		sb.WriteString(fmt.Sprintf("  %s %s %s\n", style.Render(icon), MutedValue.Render(step.Name), style.Render(text)))
	}

	sb.WriteString("\n")
	sb.WriteString(MutedValue.Render(fmt.Sprintf("  Elapsed: %s", time.Since(m.startupTime).Round(time.Second))))
	sb.WriteString("\n\n")
	sb.WriteString(MutedValue.Render("  Waiting for the first order book update..."))
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) renderStatusBar() string {
	var parts []string

	if time.Since(m.lastScanTime) < 500*time.Millisecond {
		spinners := []string{"⟳", "◐", "◓", "◑", "◒"}
		idx := int(time.Now().UnixMilli()/100) % len(spinners)
		parts = append(parts, SuccessValue.Bold(true).Render(spinners[idx]+" Scanning"))
	}

	parts = append(parts, m.status.View())

	if !m.lastUpdate.IsZero() {
		ago := time.Since(m.lastUpdate).Round(time.Second)
		parts = append(parts, MutedValue.Render(fmt.Sprintf("Updated: %s ago", ago)))
	}

	return strings.Join(parts, "  │  ")
}

// Program holds the Bubble Tea program instance for external access.
var Program *tea.Program

// OnStartModules is called when the welcome screen completes and modules should start.
var OnStartModules func()

// Run starts the Bubble Tea program.
func Run() error {
	Program = tea.NewProgram(New(), tea.WithAltScreen())
	_, err := Program.Run()
	return err
}

// Send sends a message to the running program.
func Send(msg tea.Msg) {
	if Program != nil {
		Program.Send(msg)
	}
}

// Quit stops the running program.
func Quit() {
	if Program != nil {
		Program.Quit()
	}
}
