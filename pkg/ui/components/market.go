package components

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// MarketSummary is the book store content shown in the market panel.
type MarketSummary struct {
	TotalBooks     int
	ExchangePairs  map[string]int
	CanonicalPairs map[string]int
}

// MarketComponent renders the market data summary.
type MarketComponent struct {
	summary  MarketSummary
	lastKey  string
	gasVenue string
	gasUSD   float64
}

// NewMarketComponent creates a new market component.
func NewMarketComponent() *MarketComponent {
	return &MarketComponent{}
}

// Update replaces the summary and records the last updated book.
func (m *MarketComponent) Update(summary MarketSummary, lastKey string) {
	m.summary = summary
	m.lastKey = lastKey
}

// SetGasCost sets the live per-leg gas cost of an on-chain venue.
func (m *MarketComponent) SetGasCost(venue string, usd float64) {
	m.gasVenue = venue
	m.gasUSD = usd
}

// View renders the market component.
func (m *MarketComponent) View() string {
	if m.summary.TotalBooks == 0 {
		return "Waiting for order books..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	sharedStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))

	var b strings.Builder
	b.WriteString(headerStyle.Render("MARKET DATA"))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  Active exchanges: %s\n", valueStyle.Render(fmt.Sprintf("%d", len(m.summary.ExchangePairs)))))
	b.WriteString(fmt.Sprintf("  Trading pairs:    %s\n", valueStyle.Render(fmt.Sprintf("%d", len(m.summary.CanonicalPairs)))))
	b.WriteString(fmt.Sprintf("  Order books:      %s\n", valueStyle.Render(fmt.Sprintf("%d", m.summary.TotalBooks))))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 36)) + "\n")

	for _, ex := range sortedKeys(m.summary.ExchangePairs) {
		b.WriteString(fmt.Sprintf("  %-20s %3d pairs\n", ex, m.summary.ExchangePairs[ex]))
	}

	b.WriteString("\n")
	for _, pair := range sortedKeys(m.summary.CanonicalPairs) {
		n := m.summary.CanonicalPairs[pair]
		line := fmt.Sprintf("  %-20s %3d venues", pair, n)
		if n > 1 {
			b.WriteString(sharedStyle.Render(line))
		} else {
			b.WriteString(dimStyle.Render(line))
		}
		b.WriteString("\n")
	}

	if m.gasVenue != "" {
		b.WriteString("\n")
		b.WriteString(fmt.Sprintf("  Gas (%s): %s\n", m.gasVenue, valueStyle.Render(fmt.Sprintf("$%.2f/leg", m.gasUSD))))
	}
	if m.lastKey != "" {
		b.WriteString(dimStyle.Render("  Last update: " + m.lastKey))
	}
	return b.String()
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
