package output

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/rgehrsitz/crp/internal/domain"
	"github.com/shopspring/decimal"
)

// Palette
var (
	ColorPrimary = lipgloss.Color("#7D56F4")
	ColorSuccess = lipgloss.Color("#04B575")
	ColorWarning = lipgloss.Color("#F2C94C")
	ColorDanger  = lipgloss.Color("#EB5757")
	ColorMuted   = lipgloss.Color("#888888")
	ColorBorder  = lipgloss.Color("#444444")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)
	SectionStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	LabelStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	ValueStyle   = lipgloss.NewStyle().Bold(true)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	CardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(ColorBorder).Padding(0, 1)
)

// RatingStyle colours a rating by credit quality band.
func RatingStyle(r domain.Rating) lipgloss.Style {
	style := lipgloss.NewStyle().Bold(true)
	switch {
	case !r.Valid():
		return style.Foreground(ColorMuted)
	case r.IsInvestmentGrade():
		return style.Foreground(ColorSuccess)
	case r.IsDistressed():
		return style.Foreground(ColorDanger)
	default:
		return style.Foreground(ColorWarning)
	}
}

// PremiumStyle colours a CRP value; any positive premium is adverse.
func PremiumStyle(bps decimal.Decimal) lipgloss.Style {
	if bps.IsPositive() {
		return lipgloss.NewStyle().Foreground(ColorDanger)
	}
	return lipgloss.NewStyle().Foreground(ColorSuccess)
}
