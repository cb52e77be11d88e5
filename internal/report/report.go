// Package report renders tax summaries, rule sets and sessions as text.
package report

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

// Rules is the rule lookup used when rendering reports.
type Rules interface {
	Federal() models.FederalRules
	StateRule(code string) (models.StateRule, bool)
	LossDeductionPercentage(code string) decimal.Decimal
	AvailableStates() []string
}

var (
	hundred = decimal.NewFromInt(100)
	one     = decimal.NewFromInt(1)
)

func money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func percent(fraction decimal.Decimal, places int32) string {
	return fraction.Mul(hundred).StringFixed(places) + "%"
}

// TaxReport renders the federal, filing and state sections of summary.
func TaxReport(summary models.TaxSummary, rules Rules) string {
	federal := rules.Federal()

	var sb strings.Builder
	sb.WriteString("=== GAMBLING TAX SUMMARY ===\n")
	sb.WriteString(fmt.Sprintf("Tax Year: %d | Rules: %s\n\n", summary.TaxYear, summary.RulesVersion))

	sb.WriteString("FEDERAL TAX IMPLICATIONS:\n")
	sb.WriteString(fmt.Sprintf("Total Winnings: %s\n", money(summary.TotalWinnings)))
	sb.WriteString(fmt.Sprintf("Total Losses: %s\n", money(summary.TotalLosses)))
	sb.WriteString(fmt.Sprintf("Deductible Losses: %s", money(summary.DeductibleLosses)))
	switch {
	case federal.LossDeductionLimit.LessThan(one):
		sb.WriteString(fmt.Sprintf(" (limited to %s of qualified losses)", percent(federal.LossDeductionLimit, 2)))
	case summary.DeductibleLosses.LessThan(summary.TotalLosses):
		sb.WriteString(" (limited to winnings amount)")
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("Net Result: %s\n", money(summary.NetFederalResult)))
	if summary.TotalWithheld.IsPositive() {
		sb.WriteString(fmt.Sprintf("Total Tax Withheld: %s\n", money(summary.TotalWithheld)))
	}

	sb.WriteString("\nFEDERAL TAX FILING:\n")
	sb.WriteString("• Report winnings as 'Other Income' on Form 1040\n")
	if summary.HasDeductibleLosses {
		sb.WriteString("• Deduct losses on Schedule A (itemized deductions)\n")
		if summary.ItemizingRecommended {
			sb.WriteString(fmt.Sprintf("• ✅ Itemizing is likely beneficial with %s in losses\n",
				money(summary.DeductibleLosses)))
		}
	}

	if len(summary.StateWinnings) > 0 {
		sb.WriteString("\nSTATE TAX IMPLICATIONS:\n")
		for _, state := range slices.Sorted(maps.Keys(summary.StateNetResults)) {
			writeState(&sb, state, summary, rules)
		}
	}

	return sb.String()
}

func writeState(sb *strings.Builder, state string, summary models.TaxSummary, rules Rules) {
	rule, ok := rules.StateRule(state)

	sb.WriteString(state + ": ")
	if !ok || !rule.HasIncomeTax {
		sb.WriteString("No state income tax")
	} else {
		sb.WriteString(fmt.Sprintf("Taxable amount: %s", money(summary.StateNetResults[state])))
		if summary.StateDeductibleLosses[state].IsPositive() {
			if pct := rules.LossDeductionPercentage(state); pct.LessThan(one) {
				sb.WriteString(fmt.Sprintf(" (only %s of losses deductible)", percent(pct, 2)))
			}
		} else if !rule.AllowsLossDeduction {
			sb.WriteString(" (losses not deductible)")
		}
	}
	sb.WriteString("\n")

	if ok && rule.SpecialRules != "" {
		sb.WriteString(fmt.Sprintf("  Note: %s\n", rule.SpecialRules))
	}
}

// Reminders renders the summary's documentation reminders. It returns an
// empty string when there are none.
func Reminders(summary models.TaxSummary) string {
	if len(summary.DocumentationReminders) == 0 {
		return ""
	}

	var sb strings.Builder
	sb.WriteString("IMPORTANT REMINDERS:\n")
	for _, reminder := range summary.DocumentationReminders {
		sb.WriteString("• " + reminder + "\n")
	}
	return sb.String()
}

const checklist = `=== DOCUMENTATION CHECKLIST ===

Keep these records for IRS audit protection:

📋 WINNING RECORDS:
  • Original winning tickets/receipts
  • W-2G forms from casinos/lottery
  • Bank deposit records
  • Photos of winning tickets (backup)

📋 LOSING RECORDS:
  • All losing tickets and receipts
  • ATM withdrawal receipts at gambling venues
  • Credit card statements showing gambling purchases

📋 GAMBLING DIARY:
  • Date and time of each session
  • Location/establishment name
  • Type of gambling activity
  • Amount wagered and won/lost
  • Names of witnesses (if applicable)

💡 TIP: Store physical documents in a dedicated folder
💡 TIP: Take photos as digital backup
💡 TIP: Keep records for at least 3 years after filing
`

// DocumentationChecklist returns the static record-keeping checklist.
func DocumentationChecklist() string {
	return checklist
}

// RulesReport renders the active federal rules, withholding thresholds and
// the loaded state rules.
func RulesReport(rules Rules) string {
	federal := rules.Federal()

	var sb strings.Builder
	sb.WriteString("=== CURRENT TAX RULES ===\n\n")

	sb.WriteString(fmt.Sprintf("FEDERAL RULES (Tax Year %d):\n", federal.TaxYear))
	sb.WriteString(fmt.Sprintf("• Loss Deduction Limit: %s\n", percent(federal.LossDeductionLimit, 0)))
	sb.WriteString(fmt.Sprintf("• Standard Deduction: $%s\n", federal.StandardDeduction.StringFixed(0)))
	sb.WriteString(fmt.Sprintf("• Itemization Threshold: $%s\n\n", federal.ItemizationThreshold.StringFixed(0)))

	sb.WriteString("WITHHOLDING THRESHOLDS:\n")
	for _, game := range slices.Sorted(maps.Keys(federal.WithholdingThresholds)) {
		sb.WriteString(fmt.Sprintf("• %s: $%s\n", game, federal.WithholdingThresholds[game].StringFixed(0)))
	}

	sb.WriteString("\nSTATE RULES LOADED:\n")
	for _, state := range rules.AvailableStates() {
		sb.WriteString("• " + state + "\n")
	}

	return sb.String()
}
