package rules

import (
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

// defaultFederalConfig is written when the federal rule file is missing.
const defaultFederalConfig = `# Federal Gambling Tax Rules Configuration
# Format: key = value

[GENERAL]
tax_year = 2024
standard_deduction_single = 14600
itemization_threshold = 1000

[LOSS_DEDUCTIONS]
allows_loss_deduction = true
loss_deduction_limit = 1.0

[WITHHOLDING_THRESHOLDS]
Lottery = 5000
Slot_Machine = 1200
`

// defaultStateConfig is written when the state rule file is missing. It is
// an example set, not a full table; unknown states fall back to defaults.
const defaultStateConfig = `# State Gambling Tax Rules Configuration

[NJ]
state_name = New Jersey
has_income_tax = true
tax_rate = 0.08875
allows_loss_deduction = true
loss_deduction_percentage = 1.0
special_rules = Allows loss deductions

[NY_HISTORICAL_2007]
state_name = New York (2007-2008 Rules)
has_income_tax = true
tax_rate = 0.08
allows_loss_deduction = true
loss_deduction_percentage = 0.5
special_rules = Historical rule - only 50% of losses could be deducted
`

// DefaultFederalRules returns the built-in federal rules used before any
// file is loaded.
func DefaultFederalRules() models.FederalRules {
	return models.FederalRules{
		TaxYear:              2024,
		StandardDeduction:    decimal.NewFromInt(14600),
		ItemizationThreshold: decimal.NewFromInt(1000),
		AllowsLossDeduction:  true,
		LossDeductionLimit:   decimal.NewFromInt(1),
		WithholdingThresholds: map[string]decimal.Decimal{
			"Lottery":          decimal.NewFromInt(5000),
			"Slot Machine":     decimal.NewFromInt(1200),
			"Bingo":            decimal.NewFromInt(1200),
			"Keno":             decimal.NewFromInt(1200),
			"Poker Tournament": decimal.NewFromInt(5000),
		},
	}
}

// DefaultStateRule returns the values a state section starts from.
func DefaultStateRule(code string) models.StateRule {
	return models.StateRule{
		StateCode:               code,
		HasIncomeTax:            true,
		TaxRate:                 decimal.Zero,
		AllowsLossDeduction:     true,
		LossDeductionPercentage: decimal.NewFromInt(1),
		WithholdingThreshold:    decimal.NewFromInt(5000),
	}
}
