package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

// Stats holds statistics for display.
type Stats struct {
	Updates       uint64
	FullScans     uint64
	TargetedScans uint64
	Opportunities uint64
	Warnings      uint64
	Errors        uint64
	AvgScanMs     float64
	BestROI       float64
}

// StatsComponent renders statistics.
type StatsComponent struct {
	stats Stats
}

// NewStatsComponent creates a new stats component.
func NewStatsComponent() *StatsComponent {
	return &StatsComponent{}
}

// Update updates the statistics.
func (s *StatsComponent) Update(stats Stats) {
	s.stats = stats
}

// Stats returns the current statistics.
func (s *StatsComponent) Stats() Stats {
	return s.stats
}

// View renders the stats component.
func (s *StatsComponent) View() string {
	style := lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFFFF")).Bold(true)
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")).Bold(true)

	errorsDisplay := valueStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	if s.stats.Errors > 0 {
		errorsDisplay = errorStyle.Render(fmt.Sprintf("%d", s.stats.Errors))
	}

	return style.Render("STATS") + "\n" +
		fmt.Sprintf("Updates: %s  │  Full scans: %s  │  Targeted: %s  │  Opportunities: %s\n",
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Updates)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.FullScans)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.TargetedScans)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Opportunities)),
		) +
		fmt.Sprintf("Avg scan: %s  │  Best ROI: %s  │  Warnings: %s  │  Errors: %s",
			valueStyle.Render(fmt.Sprintf("%.2fms", s.stats.AvgScanMs)),
			valueStyle.Render(fmt.Sprintf("%.2f%%", s.stats.BestROI)),
			valueStyle.Render(fmt.Sprintf("%d", s.stats.Warnings)),
			errorsDisplay,
		)
}
