// Package components provides reusable TUI components.
package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/shopspring/decimal"
)

// OpportunityRow represents an opportunity in the list.
type OpportunityRow struct {
	Time      string
	Pair      string
	Buy       string
	Sell      string
	BuyPrice  decimal.Decimal
	SellPrice decimal.Decimal
	Size      decimal.Decimal
	NetProfit decimal.Decimal
	ROI       decimal.Decimal
	Risk      string
}

// OpportunitiesComponent renders the opportunities list, newest first.
type OpportunitiesComponent struct {
	rows    []OpportunityRow
	maxRows int
	visible int
	offset  int
}

// NewOpportunitiesComponent creates a new opportunities component.
func NewOpportunitiesComponent(maxRows int) *OpportunitiesComponent {
	return &OpportunitiesComponent{
		rows:    make([]OpportunityRow, 0),
		maxRows: maxRows,
		visible: 10,
	}
}

// Add adds a new opportunity to the list.
func (o *OpportunitiesComponent) Add(row OpportunityRow) {
	o.rows = append([]OpportunityRow{row}, o.rows...)
	if len(o.rows) > o.maxRows {
		o.rows = o.rows[:o.maxRows]
	}
}

// Len returns the number of stored rows.
func (o *OpportunitiesComponent) Len() int {
	return len(o.rows)
}

// Clear clears all opportunities.
func (o *OpportunitiesComponent) Clear() {
	o.rows = make([]OpportunityRow, 0)
	o.offset = 0
}

// ScrollUp moves the window towards newer rows.
func (o *OpportunitiesComponent) ScrollUp() {
	if o.offset > 0 {
		o.offset--
	}
}

// ScrollDown moves the window towards older rows.
func (o *OpportunitiesComponent) ScrollDown() {
	if o.offset+o.visible < len(o.rows) {
		o.offset++
	}
}

// View renders the opportunities component.
func (o *OpportunitiesComponent) View() string {
	if len(o.rows) == 0 {
		return "No opportunities detected yet..."
	}

	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7C3AED"))
	profitStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981"))
	highStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")).Bold(true)
	dimStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))

	var b strings.Builder
	b.WriteString(headerStyle.Render(fmt.Sprintf("OPPORTUNITIES (%d stored)", len(o.rows))))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("  %-8s  %-10s  %-22s  %10s  %9s  %7s\n",
		"Time", "Pair", "Route", "Size", "Net", "ROI"))
	b.WriteString(dimStyle.Render("  "+strings.Repeat("─", 76)) + "\n")

	end := o.offset + o.visible
	if end > len(o.rows) {
		end = len(o.rows)
	}
	for _, row := range o.rows[o.offset:end] {
		roiStyle := profitStyle
		if row.Risk == "HIGH_PROFIT" {
			roiStyle = highStyle
		}
		route := row.Buy + " → " + row.Sell
		if len(route) > 22 {
			route = route[:21] + "…"
		}
		b.WriteString(fmt.Sprintf("  %-8s  %-10s  %-22s  %10s  %9s  %s\n",
			row.Time,
			row.Pair,
			route,
			row.Size.StringFixed(4),
			"$"+row.NetProfit.StringFixed(2),
			roiStyle.Render(fmt.Sprintf("%6s%%", row.ROI.StringFixed(2))),
		))
	}

	if len(o.rows) > o.visible {
		b.WriteString(dimStyle.Render(fmt.Sprintf("  showing %d-%d of %d", o.offset+1, end, len(o.rows))))
	}
	return b.String()
}
