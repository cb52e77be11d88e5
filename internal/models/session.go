package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// ErrInvalidSession is wrapped by every session validation failure.
var ErrInvalidSession = errors.New("invalid session")

// ValidationError describes which session field failed validation.
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidSession
}

// SessionInput carries the raw fields for NewSession.
type SessionInput struct {
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

// NewSession validates the input and returns a session with state upper-cased
// and amounts rounded to cents.
func NewSession(in SessionInput) (Session, error) {
	if err := ValidateDate(in.Date); err != nil {
		return Session{}, err
	}

	location := strings.TrimSpace(in.Location)
	if err := ValidateLocation(location); err != nil {
		return Session{}, err
	}

	state := strings.ToUpper(strings.TrimSpace(in.State))
	if err := ValidateState(state); err != nil {
		return Session{}, err
	}

	gameType := strings.TrimSpace(in.GameType)
	if err := ValidateGameType(gameType); err != nil {
		return Session{}, err
	}

	amounts := []struct {
		field string
		value decimal.Decimal
	}{
		{"buy-in", in.BuyIn},
		{"cash-out", in.CashOut},
		{"withheld amount", in.WithheldAmount},
	}
	for _, a := range amounts {
		if err := validateAmount(a.field, a.value); err != nil {
			return Session{}, err
		}
	}

	withheld := in.WithheldAmount.Round(2)
	if !in.TaxWithheld {
		withheld = decimal.Zero
	}

	return Session{
		Date:              in.Date,
		Location:          location,
		State:             state,
		GameType:          gameType,
		BuyIn:             in.BuyIn.Round(2),
		CashOut:           in.CashOut.Round(2),
		TaxWithheld:       in.TaxWithheld,
		WithheldAmount:    withheld,
		DocumentationNote: in.DocumentationNote,
		Notes:             in.Notes,
	}, nil
}

// NetResult returns cash-out minus buy-in.
func (s Session) NetResult() decimal.Decimal {
	return s.CashOut.Sub(s.BuyIn)
}

// IsWin reports whether the session ended ahead.
func (s Session) IsWin() bool {
	return s.NetResult().IsPositive()
}

// IsLoss reports whether the session ended behind.
func (s Session) IsLoss() bool {
	return s.NetResult().IsNegative()
}

// IsBreakEven reports whether the session ended even.
func (s Session) IsBreakEven() bool {
	return s.NetResult().IsZero()
}

// Outcome returns WIN, LOSS or BREAK EVEN.
func (s Session) Outcome() string {
	switch {
	case s.IsWin():
		return "WIN"
	case s.IsLoss():
		return "LOSS"
	default:
		return "BREAK EVEN"
	}
}

var (
	lotteryThreshold = decimal.NewFromInt(5000)
	slotThreshold    = decimal.NewFromInt(1200)
	racingThreshold  = decimal.NewFromInt(600)
	racingOddsRatio  = decimal.NewFromInt(300)
)

// TriggersWithholding is the per-entry advisory check against the IRS W-2G
// withholding thresholds. It does not consult the configured rule files; the
// tax engine has its own rule-driven check and the two may disagree.
func (s Session) TriggersWithholding() bool {
	winnings := s.NetResult()
	if !winnings.IsPositive() {
		return false
	}

	switch s.GameType {
	case "Lottery", "Sweepstakes", "Poker Tournament":
		return winnings.GreaterThanOrEqual(lotteryThreshold)
	case "Slot Machine", "Bingo", "Keno":
		return winnings.GreaterThanOrEqual(slotThreshold)
	case "Horse Racing", "Dog Racing":
		// $600+ at 300-to-1 odds or better.
		return winnings.GreaterThanOrEqual(racingThreshold) &&
			winnings.GreaterThanOrEqual(s.BuyIn.Mul(racingOddsRatio))
	}

	return false
}

// BulkLosses creates one losing session per positive amount, copying date,
// location, state and game type from the template. Non-positive amounts are
// skipped.
func BulkLosses(template SessionInput, amounts []decimal.Decimal) ([]Session, error) {
	sessions := make([]Session, 0, len(amounts))
	for _, amount := range amounts {
		if !amount.IsPositive() {
			continue
		}
		in := template
		in.BuyIn = amount
		in.CashOut = decimal.Zero
		in.TaxWithheld = false
		in.WithheldAmount = decimal.Zero
		in.DocumentationNote = "Keep losing ticket"
		in.Notes = "Bulk entry loss"

		s, err := NewSession(in)
		if err != nil {
			return nil, fmt.Errorf("failed to create bulk loss: %w", err)
		}
		sessions = append(sessions, s)
	}
	return sessions, nil
}

// DefaultDate formats now as a session date in the given location.
func DefaultDate(now time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return now.In(loc).Format(DateLayout)
}

// ParseAmount parses a non-negative currency amount with at most two decimal places.
func ParseAmount(field, input string) (decimal.Decimal, error) {
	input = strings.TrimSpace(input)
	amount, err := decimal.NewFromString(input)
	if err != nil {
		return decimal.Zero, &ValidationError{Field: field, Value: input, Reason: "not a number"}
	}
	if err := validateAmount(field, amount); err != nil {
		return decimal.Zero, err
	}
	return amount, nil
}

func validateAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return &ValidationError{Field: field, Value: amount.String(), Reason: "must not be negative"}
	}
	if !amount.Equal(amount.Round(2)) {
		return &ValidationError{Field: field, Value: amount.String(), Reason: "at most 2 decimal places"}
	}
	return nil
}

// ValidateDate checks an MM-DD-YYYY date with a year in [1900, 2100].
func ValidateDate(date string) error {
	parts := strings.Split(date, "-")
	if len(parts) != 3 || len(parts[0]) != 2 || len(parts[1]) != 2 || len(parts[2]) != 4 {
		return &ValidationError{Field: "date", Value: date, Reason: "expected MM-DD-YYYY"}
	}

	nums := make([]int, 3)
	for i, p := range parts {
		n, err := strconv.Atoi(p)
		if err != nil || strings.ContainsAny(p, "+-") {
			return &ValidationError{Field: "date", Value: date, Reason: "expected MM-DD-YYYY"}
		}
		nums[i] = n
	}
	month, day, year := nums[0], nums[1], nums[2]

	if year < 1900 || year > 2100 {
		return &ValidationError{Field: "date", Value: date, Reason: "year must be between 1900 and 2100"}
	}
	if month < 1 || month > 12 {
		return &ValidationError{Field: "date", Value: date, Reason: "month must be between 1 and 12"}
	}
	if day < 1 || day > daysIn(time.Month(month), year) {
		return &ValidationError{Field: "date", Value: date, Reason: "day out of range for month"}
	}
	return nil
}

func daysIn(month time.Month, year int) int {
	// Day 0 of the next month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// ValidateLocation checks length and character set of a location.
func ValidateLocation(location string) error {
	if len([]rune(location)) > MaxLocationLength {
		return &ValidationError{
			Field:  "location",
			Value:  location,
			Reason: fmt.Sprintf("must be at most %d characters", MaxLocationLength),
		}
	}
	for _, r := range location {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == ' ' {
			continue
		}
		if strings.ContainsRune(".'&-#/()", r) {
			continue
		}
		return &ValidationError{Field: "location", Value: location, Reason: fmt.Sprintf("character %q not allowed", r)}
	}
	return nil
}

// ValidateState checks that code is one of the 50 states or DC.
func ValidateState(code string) error {
	if _, ok := StateNames[code]; !ok {
		return &ValidationError{Field: "state", Value: code, Reason: "not a US state or DC code"}
	}
	return nil
}

// ValidateGameType checks a known or user-supplied game type.
func ValidateGameType(gameType string) error {
	if gameType == "" {
		return &ValidationError{Field: "game type", Value: gameType, Reason: "must not be empty"}
	}
	if len([]rune(gameType)) > MaxGameTypeLength {
		return &ValidationError{
			Field:  "game type",
			Value:  gameType,
			Reason: fmt.Sprintf("must be at most %d characters", MaxGameTypeLength),
		}
	}
	for _, r := range gameType {
		if unicode.IsControl(r) {
			return &ValidationError{Field: "game type", Value: gameType, Reason: "control characters not allowed"}
		}
	}
	return nil
}
