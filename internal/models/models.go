// Package models defines the domain entities for the gambling tax calculator.
package models

import (
	"github.com/shopspring/decimal"
)

// DateLayout is the persisted session date format (MM-DD-YYYY).
const DateLayout = "01-02-2006"

// MaxLocationLength is the maximum allowed length for a session location.
const MaxLocationLength = 100

// MaxGameTypeLength is the maximum allowed length for a user-supplied game type.
const MaxGameTypeLength = 50

// Game types offered by the entry prompts. Any other non-empty value is
// accepted as a user-supplied "Other" game.
const (
	GameLottery       = "Lottery"
	GameSlotMachine   = "Slot Machine"
	GamePoker         = "Poker"
	GameBlackjack     = "Blackjack"
	GameSportsBetting = "Sports Betting"
	GameOther         = "Other"
)

// KnownGameTypes lists the game types offered by the entry prompts.
var KnownGameTypes = []string{
	GameLottery,
	GameSlotMachine,
	GamePoker,
	GameBlackjack,
	GameSportsBetting,
	GameOther,
}

// StateNames maps the 50 US states plus DC to their names.
var StateNames = map[string]string{
	"AL": "Alabama", "AK": "Alaska", "AZ": "Arizona", "AR": "Arkansas",
	"CA": "California", "CO": "Colorado", "CT": "Connecticut", "DE": "Delaware",
	"DC": "District of Columbia", "FL": "Florida", "GA": "Georgia", "HI": "Hawaii",
	"ID": "Idaho", "IL": "Illinois", "IN": "Indiana", "IA": "Iowa",
	"KS": "Kansas", "KY": "Kentucky", "LA": "Louisiana", "ME": "Maine",
	"MD": "Maryland", "MA": "Massachusetts", "MI": "Michigan", "MN": "Minnesota",
	"MS": "Mississippi", "MO": "Missouri", "MT": "Montana", "NE": "Nebraska",
	"NV": "Nevada", "NH": "New Hampshire", "NJ": "New Jersey", "NM": "New Mexico",
	"NY": "New York", "NC": "North Carolina", "ND": "North Dakota", "OH": "Ohio",
	"OK": "Oklahoma", "OR": "Oregon", "PA": "Pennsylvania", "RI": "Rhode Island",
	"SC": "South Carolina", "SD": "South Dakota", "TN": "Tennessee", "TX": "Texas",
	"UT": "Utah", "VT": "Vermont", "VA": "Virginia", "WA": "Washington",
	"WV": "West Virginia", "WI": "Wisconsin", "WY": "Wyoming",
}

// Session represents a single gambling session. Build one with NewSession so
// every field is validated; the zero value is not a valid session.
type Session struct {
	Date              string
	Location          string
	State             string
	GameType          string
	BuyIn             decimal.Decimal
	CashOut           decimal.Decimal
	TaxWithheld       bool
	WithheldAmount    decimal.Decimal
	DocumentationNote string
	Notes             string
}

// FederalRules holds the federal gambling tax rule table.
type FederalRules struct {
	TaxYear              int
	StandardDeduction    decimal.Decimal
	ItemizationThreshold decimal.Decimal
	AllowsLossDeduction  bool
	// LossDeductionLimit is a fraction in [0, 1]; 1 means no cap.
	LossDeductionLimit    decimal.Decimal
	WithholdingThresholds map[string]decimal.Decimal
}

// StateRule holds the gambling tax rule for one state section.
type StateRule struct {
	StateName                 string
	StateCode                 string
	HasIncomeTax              bool
	TaxRate                   decimal.Decimal
	AllowsLossDeduction       bool
	LossDeductionPercentage   decimal.Decimal
	SpecialRules              string
	RequiresNonResidentReturn bool
	// WithholdingThreshold is kept for the rule file but not used by the summary.
	WithholdingThreshold decimal.Decimal
}

// TaxSummary is the result of a tax calculation run.
type TaxSummary struct {
	TotalWinnings        decimal.Decimal
	TotalLosses          decimal.Decimal
	NetFederalResult     decimal.Decimal
	DeductibleLosses     decimal.Decimal
	FederalTaxableIncome decimal.Decimal
	TotalWithheld        decimal.Decimal

	HasWinnings          bool
	HasDeductibleLosses  bool
	ItemizingRecommended bool

	// Per-state values keyed by state code. A missing key means zero.
	StateWinnings         map[string]decimal.Decimal
	StateLosses           map[string]decimal.Decimal
	StateDeductibleLosses map[string]decimal.Decimal
	StateNetResults       map[string]decimal.Decimal

	DocumentationReminders []string

	TaxYear      int
	RulesVersion string
	Professional bool
}
