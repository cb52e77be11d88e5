// Package rules loads and serves the federal and state gambling tax rule
// tables from editable configuration files.
package rules

import (
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/gambling-tax/internal/logger"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

const (
	// FederalFile is the federal rule file name inside the config directory.
	FederalFile = "federal_rules.cfg"
	// StateFile is the state rule file name inside the config directory.
	StateFile = "state_rules.cfg"
	// Version identifies the rule source in reports.
	Version = "Dynamic Config v1.0"

	// LossLimitChangeYear is the first tax year with the 90% federal loss cap.
	LossLimitChangeYear = 2026
)

// Federal rule file sections.
const (
	sectionGeneral        = "GENERAL"
	sectionLossDeductions = "LOSS_DEDUCTIONS"
	sectionWithholding    = "WITHHOLDING_THRESHOLDS"
)

var (
	one              = decimal.NewFromInt(1)
	reducedLossLimit = decimal.RequireFromString("0.9")
)

// Store owns the federal and state rule tables loaded from a directory.
type Store struct {
	dir     string
	federal models.FederalRules
	states  map[string]models.StateRule
	log     zerolog.Logger
}

// New returns a store holding built-in defaults without touching the disk.
func New(dir string) *Store {
	return &Store{
		dir:     dir,
		federal: DefaultFederalRules(),
		states:  make(map[string]models.StateRule),
		log:     logger.Component("rules"),
	}
}

// Open creates dir if needed and loads both rule files, writing the default
// files first when they are missing. It never fails: anything that cannot be
// read or written leaves the built-in defaults in place.
func Open(dir string) *Store {
	s := New(dir)

	if err := os.MkdirAll(dir, 0o755); err != nil {
		s.log.Warn().Err(err).Str("dir", dir).Msg("Could not create config directory")
	}

	if err := s.LoadFederal(); err != nil {
		s.log.Info().Err(err).Msg("Federal rules not loaded, writing defaults")
		if werr := s.writeFile(FederalFile, defaultFederalConfig); werr != nil {
			s.log.Warn().Err(werr).Msg("Could not write default federal rules")
		} else if err := s.LoadFederal(); err != nil {
			s.log.Warn().Err(err).Msg("Could not reload federal rules")
		}
	}

	if err := s.LoadState(); err != nil {
		s.log.Info().Err(err).Msg("State rules not loaded, writing defaults")
		if werr := s.writeFile(StateFile, defaultStateConfig); werr != nil {
			s.log.Warn().Err(werr).Msg("Could not write default state rules")
		} else if err := s.LoadState(); err != nil {
			s.log.Warn().Err(err).Msg("Could not reload state rules")
		}
	}

	s.log.Debug().
		Int("tax_year", s.federal.TaxYear).
		Int("states", len(s.states)).
		Msg("Tax rules loaded")

	return s
}

// Paths returns the federal and state rule file paths.
func (s *Store) Paths() (string, string) {
	return s.path(FederalFile), s.path(StateFile)
}

func (s *Store) path(name string) string {
	return filepath.Join(s.dir, name)
}

func (s *Store) writeFile(name, content string) error {
	if err := os.WriteFile(s.path(name), []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", name, err)
	}
	return nil
}

// LoadFederal reads the federal rule file, replacing the current federal rules.
func (s *Store) LoadFederal() error {
	f, err := os.Open(s.path(FederalFile))
	if err != nil {
		return fmt.Errorf("failed to open federal rules: %w", err)
	}
	defer f.Close()

	rules, err := s.readFederal(f, FederalFile)
	if err != nil {
		return err
	}
	s.federal = rules
	return nil
}

// LoadState reads the state rule file, merging its sections into the current
// state rules.
func (s *Store) LoadState() error {
	f, err := os.Open(s.path(StateFile))
	if err != nil {
		return fmt.Errorf("failed to open state rules: %w", err)
	}
	defer f.Close()

	states, err := s.readStates(f, StateFile)
	if err != nil {
		return err
	}
	maps.Copy(s.states, states)
	return nil
}

func (s *Store) readFederal(r io.Reader, source string) (models.FederalRules, error) {
	rules := DefaultFederalRules()
	limitSet := false

	// File thresholds are merged over the built-in table.
	err := scan(r, nil, func(e entry) {
		switch e.Section {
		case sectionGeneral:
			switch e.Key {
			case "tax_year":
				rules.TaxYear = s.intValue(source, e, rules.TaxYear)
			case "standard_deduction_single":
				rules.StandardDeduction = s.decimalValue(source, e)
			case "itemization_threshold":
				rules.ItemizationThreshold = s.decimalValue(source, e)
			}
		case sectionLossDeductions:
			switch e.Key {
			case "allows_loss_deduction":
				rules.AllowsLossDeduction = ParseBool(e.Value)
			case "loss_deduction_limit":
				rules.LossDeductionLimit = s.fractionValue(source, e)
				limitSet = true
			}
		case sectionWithholding:
			// A zero threshold would flag every win, so a malformed one is
			// dropped instead of defaulting.
			p := ParseDecimal(e.Value)
			if p.UsedDefault {
				s.log.Warn().Str("file", source).Int("line", e.Line).Str("key", e.Key).
					Str("value", e.Value).Msg("Malformed withholding threshold, ignoring")
				return
			}
			rules.WithholdingThresholds[gameTypeFromKey(e.Key)] = p.Value
		}
	})
	if err != nil {
		return models.FederalRules{}, fmt.Errorf("failed to read %s: %w", source, err)
	}

	if !limitSet {
		rules.LossDeductionLimit = LossLimitForYear(rules.TaxYear)
	}
	return rules, nil
}

func (s *Store) readStates(r io.Reader, source string) (map[string]models.StateRule, error) {
	states := make(map[string]models.StateRule)

	onSection := func(name string) {
		if name == "" {
			return
		}
		// A repeated header starts the state over from defaults.
		states[name] = DefaultStateRule(name)
	}

	err := scan(r, onSection, func(e entry) {
		if e.Section == "" {
			return
		}
		rule := states[e.Section]
		switch e.Key {
		case "state_name":
			rule.StateName = e.Value
		case "has_income_tax":
			rule.HasIncomeTax = ParseBool(e.Value)
		case "tax_rate":
			rule.TaxRate = s.decimalValue(source, e)
		case "allows_loss_deduction":
			rule.AllowsLossDeduction = ParseBool(e.Value)
		case "loss_deduction_percentage":
			rule.LossDeductionPercentage = s.fractionValue(source, e)
		case "special_rules":
			rule.SpecialRules = e.Value
		case "requires_nonresident_return":
			rule.RequiresNonResidentReturn = ParseBool(e.Value)
		case "withholding_threshold":
			rule.WithholdingThreshold = s.decimalValue(source, e)
		default:
			s.log.Debug().Str("file", source).Int("line", e.Line).Str("key", e.Key).Msg("Unknown state rule key")
		}
		states[e.Section] = rule
	})
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", source, err)
	}
	return states, nil
}

func (s *Store) decimalValue(source string, e entry) decimal.Decimal {
	p := ParseDecimal(e.Value)
	if p.UsedDefault {
		s.warnDefault(source, e, p.Value.String())
	}
	return p.Value
}

func (s *Store) intValue(source string, e entry, def int) int {
	p := ParseInt(e.Value, def)
	if p.UsedDefault {
		s.warnDefault(source, e, fmt.Sprint(p.Value))
	}
	return p.Value
}

// fractionValue parses a value that must lie in [0, 1], clamping outliers.
func (s *Store) fractionValue(source string, e entry) decimal.Decimal {
	v := s.decimalValue(source, e)
	clamped := decimal.Min(decimal.Max(v, decimal.Zero), one)
	if !clamped.Equal(v) {
		s.log.Warn().
			Str("file", source).
			Int("line", e.Line).
			Str("key", e.Key).
			Str("value", v.String()).
			Str("clamped", clamped.String()).
			Msg("Fraction out of range")
	}
	return clamped
}

func (s *Store) warnDefault(source string, e entry, fallback string) {
	s.log.Warn().
		Str("file", source).
		Int("line", e.Line).
		Str("key", e.Key).
		Str("value", e.Value).
		Str("fallback", fallback).
		Msg("Malformed rule value, using fallback")
}

// Federal returns a copy of the federal rules.
func (s *Store) Federal() models.FederalRules {
	rules := s.federal
	rules.WithholdingThresholds = maps.Clone(s.federal.WithholdingThresholds)
	return rules
}

// SetFederal replaces the federal rules.
func (s *Store) SetFederal(rules models.FederalRules) {
	rules.WithholdingThresholds = maps.Clone(rules.WithholdingThresholds)
	if rules.WithholdingThresholds == nil {
		rules.WithholdingThresholds = make(map[string]decimal.Decimal)
	}
	s.federal = rules
}

// StateRule returns the rule for code, if one is loaded.
func (s *Store) StateRule(code string) (models.StateRule, bool) {
	rule, ok := s.states[code]
	return rule, ok
}

// AddStateRule adds or replaces the rule for code.
func (s *Store) AddStateRule(code string, rule models.StateRule) {
	rule.StateCode = code
	s.states[code] = rule
}

// StateCodes returns the loaded state section names in sorted order.
func (s *Store) StateCodes() []string {
	return slices.Sorted(maps.Keys(s.states))
}

// AvailableStates returns "Name (CODE)" for every loaded state, sorted by code.
func (s *Store) AvailableStates() []string {
	codes := s.StateCodes()
	out := make([]string, 0, len(codes))
	for _, code := range codes {
		out = append(out, fmt.Sprintf("%s (%s)", s.states[code].StateName, code))
	}
	return out
}

// AllowsLossDeduction reports whether the state allows losses to offset
// winnings. Unknown states allow it.
func (s *Store) AllowsLossDeduction(code string) bool {
	if rule, ok := s.states[code]; ok {
		return rule.AllowsLossDeduction
	}
	return true
}

// LossDeductionPercentage returns the deductible share of losses for the
// state. Unknown states deduct 100%.
func (s *Store) LossDeductionPercentage(code string) decimal.Decimal {
	if rule, ok := s.states[code]; ok {
		return rule.LossDeductionPercentage
	}
	return one
}

// StateTaxRate returns the state's tax rate. Unknown states have none.
func (s *Store) StateTaxRate(code string) decimal.Decimal {
	if rule, ok := s.states[code]; ok {
		return rule.TaxRate
	}
	return decimal.Zero
}

// WithholdingThreshold returns the configured federal withholding threshold
// for gameType. The second result is false when none is configured.
func (s *Store) WithholdingThreshold(gameType string) (decimal.Decimal, bool) {
	threshold, ok := s.federal.WithholdingThresholds[gameType]
	return threshold, ok
}

// UpdateForTaxYear sets the tax year and the loss deduction limit for it.
func (s *Store) UpdateForTaxYear(year int) {
	s.federal.TaxYear = year
	s.federal.LossDeductionLimit = LossLimitForYear(year)
}

// Version returns the rule source identifier.
func (s *Store) Version() string {
	return Version
}

// LossLimitForYear returns the federal loss deduction limit built into the
// calculator: 90% from 2026, 100% before.
func LossLimitForYear(year int) decimal.Decimal {
	if year >= LossLimitChangeYear {
		return reducedLossLimit
	}
	return one
}

// gameTypeFromKey maps a threshold key such as "Slot_Machine" to its game type.
func gameTypeFromKey(key string) string {
	return strings.ReplaceAll(key, "_", " ")
}

func keyFromGameType(gameType string) string {
	return strings.ReplaceAll(gameType, " ", "_")
}
