package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/fd1az/spread-analyzer/business/spread/domain"
	"github.com/fd1az/spread-analyzer/pkg/ui/components"
)

func update(t *testing.T, m Model, msg tea.Msg) Model {
	t.Helper()
	next, _ := m.Update(msg)
	model, ok := next.(Model)
	if !ok {
		t.Fatalf("Update returned %T", next)
	}
	return model
}

func testOpportunity(roi string) *domain.ArbitrageOpportunity {
	return &domain.ArbitrageOpportunity{
		ID:            "opp-1",
		BuyExchange:   "binance",
		SellExchange:  "kraken",
		Pair:          "BTCUSDT",
		BuyPrice:      decimal.RequireFromString("30000"),
		SellPrice:     decimal.RequireFromString("30100"),
		MaxSize:       decimal.RequireFromString("0.8"),
		NetProfit:     decimal.RequireFromString("48.16"),
		ROIPercentage: decimal.RequireFromString(roi),
		Timestamp:     time.Date(2026, 1, 2, 15, 4, 5, 0, time.Local),
	}
}

func TestModel_WelcomeKeySkipsToStartup(t *testing.T) {
	m := New()
	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("x")})
	if m.phase != PhaseStartup {
		t.Fatalf("phase = %s, want %s", m.phase, PhaseStartup)
	}
}

func TestModel_StartupCompletesIntoDashboard(t *testing.T) {
	m := New()
	m.phase = PhaseStartup
	for _, step := range stepOrder {
		if m.phase == PhaseDashboard {
			t.Fatalf("dashboard entered before step %s finished", step)
		}
		m = update(t, m, StartupMsg{Step: step, Status: "done"})
	}
	if m.phase != PhaseDashboard {
		t.Fatalf("phase = %s, want %s", m.phase, PhaseDashboard)
	}
}

func TestModel_ScanMovesStartupToDashboard(t *testing.T) {
	m := New()
	m.phase = PhaseStartup
	m = update(t, m, ScanMsg{Iteration: 1, Mode: "targeted", Duration: time.Millisecond})
	if m.phase != PhaseDashboard {
		t.Fatalf("phase = %s, want %s", m.phase, PhaseDashboard)
	}
}

func TestModel_ScanStats(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	m = update(t, m, ScanMsg{Iteration: 1, Mode: "targeted", Duration: 2 * time.Millisecond})
	m = update(t, m, ScanMsg{Iteration: 2, Mode: "full", Duration: 4 * time.Millisecond, Warnings: []string{"empty order book side: a or b"}})

	st := m.stats.Stats()
	if st.Updates != 2 || st.FullScans != 1 || st.TargetedScans != 1 {
		t.Errorf("stats = %+v", st)
	}
	if st.Warnings != 1 {
		t.Errorf("Warnings = %d, want 1", st.Warnings)
	}
	if st.AvgScanMs != 3 {
		t.Errorf("AvgScanMs = %v, want 3", st.AvgScanMs)
	}
}

func TestModel_Opportunities(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	m = update(t, m, OpportunityMsg{Opportunity: testOpportunity("0.2")})
	m = update(t, m, OpportunityMsg{Opportunity: testOpportunity("2.5")})
	m = update(t, m, OpportunityMsg{})

	if m.opportunities.Len() != 2 {
		t.Errorf("rows = %d, want 2", m.opportunities.Len())
	}
	if got := m.stats.Stats().BestROI; got != 2.5 {
		t.Errorf("BestROI = %v, want 2.5", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("p")})
	m = update(t, m, OpportunityMsg{Opportunity: testOpportunity("1")})
	if m.opportunities.Len() != 2 {
		t.Errorf("paused rows = %d, want 2", m.opportunities.Len())
	}
	if got := m.stats.Stats().Opportunities; got != 3 {
		t.Errorf("Opportunities = %d, want 3", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	if m.opportunities.Len() != 0 {
		t.Errorf("rows after clear = %d", m.opportunities.Len())
	}
}

func TestModel_ErrorsKeepLastThree(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	for i := 0; i < 5; i++ {
		m = update(t, m, ErrorMsg{Error: errors.New("boom")})
	}
	if len(m.errors) != 3 {
		t.Errorf("errors = %d, want 3", len(m.errors))
	}
	if got := m.stats.Stats().Errors; got != 5 {
		t.Errorf("Errors = %d, want 5", got)
	}

	m = update(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("e")})
	if len(m.errors) != 0 {
		t.Errorf("errors after clear = %d", len(m.errors))
	}
}

func TestModel_ConnectionStatusUpdatesStep(t *testing.T) {
	m := New()
	m.phase = PhaseStartup
	m = update(t, m, ConnectionStatusMsg{Name: "Redis", Connected: true, Latency: 3 * time.Millisecond})

	if m.startupSteps["redis"].Status != "connected" {
		t.Errorf("redis step = %s", m.startupSteps["redis"].Status)
	}
	if _, ok := m.status.Get("Redis"); !ok {
		t.Error("connection not recorded")
	}
}

func TestModel_ViewDashboard(t *testing.T) {
	m := New()
	m.phase = PhaseDashboard
	m = update(t, m, tea.WindowSizeMsg{Width: 140, Height: 50})
	m = update(t, m, MarketSummaryMsg{
		Key: "binance:BTCUSDT",
		Summary: components.MarketSummary{
			TotalBooks:     2,
			ExchangePairs:  map[string]int{"binance": 1, "kraken": 1},
			CanonicalPairs: map[string]int{"BTCUSDT": 2},
		},
	})
	m = update(t, m, OpportunityMsg{Opportunity: testOpportunity("0.2")})

	view := m.View()
	if view == "" {
		t.Fatal("empty view")
	}
	for _, want := range []string{"Spread Analyzer", "MARKET DATA", "BTCUSDT", "OPPORTUNITIES"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
}

func TestStepAppearance(t *testing.T) {
	tests := []struct {
		status   string
		frame    int
		wantIcon string
		wantText string
	}{
		{status: "done", wantIcon: "✓", wantText: "Ready"},
		{status: "connected", wantIcon: "✓", wantText: "Ready"},
		{status: "connecting", frame: 5, wantIcon: "◓", wantText: "Connecting..."},
		{status: "failed", wantIcon: "✗", wantText: "Failed"},
		{status: "", wantIcon: "○", wantText: "Pending"},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			icon, text, _ := stepAppearance(tt.status, tt.frame)
			if icon != tt.wantIcon || text != tt.wantText {
				t.Errorf("stepAppearance(%q) = %q %q, want %q %q", tt.status, icon, text, tt.wantIcon, tt.wantText)
			}
		})
	}
}

func TestOpportunityRow(t *testing.T) {
	opp := testOpportunity("1.5")

	row := opportunityRow(opp)

	if row.Time != "15:04:05" {
		t.Errorf("Time = %q, want 15:04:05", row.Time)
	}
	if row.Buy != "binance" || row.Sell != "kraken" || row.Pair != "BTCUSDT" {
		t.Errorf("route = %s -> %s %s", row.Buy, row.Sell, row.Pair)
	}
	if !row.NetProfit.Equal(decimal.RequireFromString("48.16")) {
		t.Errorf("NetProfit = %s", row.NetProfit)
	}
	if row.Risk != opp.RiskLevel().String() {
		t.Errorf("Risk = %q, want %q", row.Risk, opp.RiskLevel().String())
	}
}
