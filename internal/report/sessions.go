package report

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

// SessionDetail renders one session, including the advisory withholding
// warning for wins that were recorded without withholding.
func SessionDetail(s models.Session) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Date: %s\n", s.Date))
	sb.WriteString(fmt.Sprintf("Location: %s (%s)\n", s.Location, s.State))
	sb.WriteString(fmt.Sprintf("Game: %s\n", s.GameType))
	sb.WriteString(fmt.Sprintf("Buy-in: %s\n", money(s.BuyIn)))
	sb.WriteString(fmt.Sprintf("Cash-out: %s\n", money(s.CashOut)))
	sb.WriteString(fmt.Sprintf("Net Result: %s (%s)\n", money(s.NetResult()), s.Outcome()))

	if s.TaxWithheld {
		sb.WriteString(fmt.Sprintf("Tax Withheld: %s\n", money(s.WithheldAmount)))
	}
	if s.TriggersWithholding() && !s.TaxWithheld {
		sb.WriteString("⚠️  WARNING: This win may require tax withholding!\n")
	}
	if s.DocumentationNote != "" {
		sb.WriteString(fmt.Sprintf("Documentation: %s\n", s.DocumentationNote))
	}
	if s.Notes != "" {
		sb.WriteString(fmt.Sprintf("Notes: %s\n", s.Notes))
	}

	return sb.String()
}

// SessionList renders every session followed by win and loss totals.
func SessionList(sessions []models.Session) string {
	if len(sessions) == 0 {
		return "No sessions recorded yet.\n"
	}

	winnings := decimal.Zero
	losses := decimal.Zero

	var sb strings.Builder
	for i := range sessions {
		sb.WriteString(fmt.Sprintf("\n--- Session %d ---\n", i+1))
		sb.WriteString(SessionDetail(sessions[i]))

		switch net := sessions[i].NetResult(); {
		case net.IsPositive():
			winnings = winnings.Add(net)
		case net.IsNegative():
			losses = losses.Add(net.Abs())
		}
	}

	sb.WriteString("\n" + strings.Repeat("=", 50) + "\n")
	sb.WriteString("SUMMARY:\n")
	sb.WriteString(fmt.Sprintf("Total Sessions: %d\n", len(sessions)))
	sb.WriteString(fmt.Sprintf("Total Winnings: %s\n", money(winnings)))
	sb.WriteString(fmt.Sprintf("Total Losses: %s\n", money(losses)))
	sb.WriteString(fmt.Sprintf("Net Result: %s\n", money(winnings.Sub(losses))))

	return sb.String()
}
