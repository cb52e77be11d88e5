// Package tax aggregates gambling sessions into federal and state tax
// summaries using a configurable rule set.
package tax

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/gambling-tax/internal/logger"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
	"gitlab.com/yelinaung/gambling-tax/internal/rules"
)

// RuleSource is the read side of the rule store used by the engine.
type RuleSource interface {
	Federal() models.FederalRules
	StateRule(code string) (models.StateRule, bool)
	AllowsLossDeduction(code string) bool
	LossDeductionPercentage(code string) decimal.Decimal
	WithholdingThreshold(gameType string) (decimal.Decimal, bool)
	UpdateForTaxYear(year int)
	Version() string
}

var _ RuleSource = (*rules.Store)(nil)

var hundred = decimal.NewFromInt(100)

// Reminder texts.
const (
	ReminderWinningRecords = "📄 Keep all winning tickets, receipts, and payment records"
	ReminderLosingRecords  = "📄 Keep all losing tickets and receipts for deduction proof"
	ReminderDiary          = "📝 Maintain detailed gambling diary with dates, locations, and amounts"
	ReminderW2G            = "📋 Keep all W-2G forms from gambling establishments"
	ReminderWithholding    = "⚠️  Some winnings may have required withholding - check with establishment"
)

// Engine calculates tax summaries. It performs no I/O and never fails;
// missing rule data falls back to permissive defaults.
type Engine struct {
	rules        RuleSource
	professional bool
	log          zerolog.Logger
}

// NewEngine creates an engine over src. A nil src uses the built-in rules.
func NewEngine(src RuleSource, professional bool) *Engine {
	if src == nil {
		src = rules.New("")
	}
	return &Engine{
		rules:        src,
		professional: professional,
		log:          logger.Component("tax"),
	}
}

// CalculateTaxes is a convenience wrapper around NewEngine and Calculate.
func CalculateTaxes(sessions []models.Session, src RuleSource, professional bool) models.TaxSummary {
	return NewEngine(src, professional).Calculate(sessions)
}

// SetProfessional toggles professional gambler mode.
func (e *Engine) SetProfessional(professional bool) {
	e.professional = professional
}

// Professional reports whether professional gambler mode is on.
func (e *Engine) Professional() bool {
	return e.professional
}

// SetTaxYear updates the rules for year.
func (e *Engine) SetTaxYear(year int) {
	e.rules.UpdateForTaxYear(year)
}

// TaxYear returns the active federal tax year.
func (e *Engine) TaxYear() int {
	return e.rules.Federal().TaxYear
}

// Calculate aggregates sessions into a summary.
func (e *Engine) Calculate(sessions []models.Session) models.TaxSummary {
	federal := e.rules.Federal()

	summary := models.TaxSummary{
		StateWinnings:         make(map[string]decimal.Decimal),
		StateLosses:           make(map[string]decimal.Decimal),
		StateDeductibleLosses: make(map[string]decimal.Decimal),
		StateNetResults:       make(map[string]decimal.Decimal),
		TaxYear:               federal.TaxYear,
		RulesVersion:          e.rules.Version(),
		Professional:          e.professional,
	}

	e.federalTotals(sessions, federal, &summary)
	e.stateTotals(sessions, &summary)
	e.reminders(sessions, federal, &summary)

	e.log.Debug().
		Int("sessions", len(sessions)).
		Str("winnings", summary.TotalWinnings.StringFixed(2)).
		Str("losses", summary.TotalLosses.StringFixed(2)).
		Str("deductible", summary.DeductibleLosses.StringFixed(2)).
		Int("states", len(summary.StateWinnings)).
		Msg("Tax summary calculated")

	return summary
}

func (e *Engine) federalTotals(sessions []models.Session, federal models.FederalRules, summary *models.TaxSummary) {
	winnings := decimal.Zero
	losses := decimal.Zero
	withheld := decimal.Zero

	for i := range sessions {
		net := sessions[i].NetResult()
		switch {
		case net.IsPositive():
			winnings = winnings.Add(net)
		case net.IsNegative():
			losses = losses.Add(net.Abs())
		}
		withheld = withheld.Add(sessions[i].WithheldAmount)
	}

	// Losses never offset more than winnings, and the yearly limit caps that.
	summary.TotalWinnings = winnings
	summary.TotalLosses = losses
	summary.TotalWithheld = withheld
	summary.DeductibleLosses = decimal.Min(losses, winnings).Mul(federal.LossDeductionLimit)
	summary.NetFederalResult = winnings.Sub(losses)
	// Gross winnings are reported; losses are a separate itemized deduction.
	summary.FederalTaxableIncome = winnings

	summary.HasWinnings = winnings.IsPositive()
	summary.HasDeductibleLosses = summary.DeductibleLosses.IsPositive()
	summary.ItemizingRecommended = summary.DeductibleLosses.GreaterThanOrEqual(federal.ItemizationThreshold)
}

func (e *Engine) stateTotals(sessions []models.Session, summary *models.TaxSummary) {
	for i := range sessions {
		state := sessions[i].State
		net := sessions[i].NetResult()
		switch {
		case net.IsPositive():
			summary.StateWinnings[state] = summary.StateWinnings[state].Add(net)
		case net.IsNegative():
			summary.StateLosses[state] = summary.StateLosses[state].Add(net.Abs())
		}
	}

	for state, winnings := range summary.StateWinnings {
		losses := summary.StateLosses[state]
		pct := e.rules.LossDeductionPercentage(state)

		if e.rules.AllowsLossDeduction(state) && pct.IsPositive() {
			deductible := decimal.Min(losses, winnings).Mul(pct)
			summary.StateDeductibleLosses[state] = deductible
			summary.StateNetResults[state] = winnings.Sub(deductible)
			continue
		}

		// No loss deduction: full winnings are taxable.
		summary.StateDeductibleLosses[state] = decimal.Zero
		summary.StateNetResults[state] = winnings
	}
}

func (e *Engine) reminders(sessions []models.Session, federal models.FederalRules, summary *models.TaxSummary) {
	seen := make(map[string]struct{})
	add := func(reminder string) {
		if _, ok := seen[reminder]; ok {
			return
		}
		seen[reminder] = struct{}{}
		summary.DocumentationReminders = append(summary.DocumentationReminders, reminder)
	}

	if summary.HasWinnings {
		add(ReminderWinningRecords)
	}

	if summary.HasDeductibleLosses {
		add(ReminderLosingRecords)
		add(ReminderDiary)
	}

	if summary.TotalWithheld.IsPositive() {
		add(ReminderW2G)
	}

	for i := range sessions {
		if !sessions[i].IsWin() {
			continue
		}
		state := sessions[i].State
		rule, ok := e.rules.StateRule(state)
		if !ok {
			continue
		}
		switch {
		case !rule.AllowsLossDeduction:
			add(fmt.Sprintf("⚠️  %s does not allow gambling losses to offset winnings", state))
		case rule.LossDeductionPercentage.LessThan(decimal.NewFromInt(1)):
			add(fmt.Sprintf("⚠️  %s only allows %s%% of losses to be deducted",
				state, rule.LossDeductionPercentage.Mul(hundred).StringFixed(0)))
		}
	}

	for i := range sessions {
		if e.TriggersWithholding(sessions[i].GameType, sessions[i].NetResult()) && !sessions[i].TaxWithheld {
			add(ReminderWithholding)
			break
		}
	}

	if federal.LossDeductionLimit.LessThan(decimal.NewFromInt(1)) {
		add(fmt.Sprintf("📢 Federal rule: Loss deductions limited to %s%% for tax year %d",
			federal.LossDeductionLimit.Mul(hundred).StringFixed(0), federal.TaxYear))
	}
}

// WithholdingThreshold returns the configured threshold for gameType.
// Sweepstakes share the lottery threshold when they have none of their own.
func (e *Engine) WithholdingThreshold(gameType string) (decimal.Decimal, bool) {
	if threshold, ok := e.rules.WithholdingThreshold(gameType); ok {
		return threshold, true
	}
	if gameType == "Sweepstakes" {
		return e.rules.WithholdingThreshold(models.GameLottery)
	}
	return decimal.Zero, false
}

// TriggersWithholding reports whether winnings reach the configured
// withholding threshold for gameType. Game types without a threshold never
// trigger.
func (e *Engine) TriggersWithholding(gameType string, winnings decimal.Decimal) bool {
	if !winnings.IsPositive() {
		return false
	}
	threshold, ok := e.WithholdingThreshold(gameType)
	return ok && winnings.GreaterThanOrEqual(threshold)
}

// CalculateStateTax estimates state tax on winnings after the state's loss
// deduction. States without a rule or without income tax owe nothing.
func (e *Engine) CalculateStateTax(code string, winnings, losses decimal.Decimal) decimal.Decimal {
	rule, ok := e.rules.StateRule(code)
	if !ok || !rule.HasIncomeTax {
		return decimal.Zero
	}

	taxable := winnings
	if rule.AllowsLossDeduction && rule.LossDeductionPercentage.IsPositive() {
		taxable = winnings.Sub(decimal.Min(losses, winnings).Mul(rule.LossDeductionPercentage))
	}
	return taxable.Mul(rule.TaxRate)
}
