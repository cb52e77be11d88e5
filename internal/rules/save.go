package rules

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"strings"

	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

// SaveFederal writes the federal rules back to the federal rule file.
func (s *Store) SaveFederal() error {
	var b strings.Builder
	if err := WriteFederal(&b, s.federal); err != nil {
		return err
	}
	return s.writeFile(FederalFile, b.String())
}

// SaveState writes every loaded state rule back to the state rule file.
func (s *Store) SaveState() error {
	var b strings.Builder
	if err := WriteStates(&b, s.states); err != nil {
		return err
	}
	return s.writeFile(StateFile, b.String())
}

// Save writes both rule files.
func (s *Store) Save() error {
	if err := s.SaveFederal(); err != nil {
		return err
	}
	return s.SaveState()
}

// WriteFederal renders federal rules in the rule file format.
func WriteFederal(w io.Writer, rules models.FederalRules) error {
	var b strings.Builder
	b.WriteString("# Federal Gambling Tax Rules Configuration\n")
	b.WriteString("# Format: key = value\n\n")

	b.WriteString("[" + sectionGeneral + "]\n")
	writePair(&b, "tax_year", strconv.Itoa(rules.TaxYear))
	writePair(&b, "standard_deduction_single", rules.StandardDeduction.String())
	writePair(&b, "itemization_threshold", rules.ItemizationThreshold.String())

	b.WriteString("\n[" + sectionLossDeductions + "]\n")
	writePair(&b, "allows_loss_deduction", strconv.FormatBool(rules.AllowsLossDeduction))
	writePair(&b, "loss_deduction_limit", rules.LossDeductionLimit.String())

	b.WriteString("\n[" + sectionWithholding + "]\n")
	for _, gameType := range slices.Sorted(maps.Keys(rules.WithholdingThresholds)) {
		writePair(&b, keyFromGameType(gameType), rules.WithholdingThresholds[gameType].String())
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write federal rules: %w", err)
	}
	return nil
}

// WriteStates renders state rules in the rule file format, sorted by code.
func WriteStates(w io.Writer, states map[string]models.StateRule) error {
	var b strings.Builder
	b.WriteString("# State Gambling Tax Rules Configuration\n")

	for _, code := range slices.Sorted(maps.Keys(states)) {
		rule := states[code]
		b.WriteString("\n[" + code + "]\n")
		writePair(&b, "state_name", rule.StateName)
		writePair(&b, "has_income_tax", strconv.FormatBool(rule.HasIncomeTax))
		writePair(&b, "tax_rate", rule.TaxRate.String())
		writePair(&b, "allows_loss_deduction", strconv.FormatBool(rule.AllowsLossDeduction))
		writePair(&b, "loss_deduction_percentage", rule.LossDeductionPercentage.String())
		writePair(&b, "special_rules", rule.SpecialRules)
		writePair(&b, "requires_nonresident_return", strconv.FormatBool(rule.RequiresNonResidentReturn))
		writePair(&b, "withholding_threshold", rule.WithholdingThreshold.String())
	}

	if _, err := io.WriteString(w, b.String()); err != nil {
		return fmt.Errorf("failed to write state rules: %w", err)
	}
	return nil
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// writePair skips empty values; the loader ignores them anyway and the field
// keeps its default.
func writePair(b *strings.Builder, key, value string) {
	value = trim(lineBreaks.Replace(value))
	if value == "" {
		return
	}
	fmt.Fprintf(b, "%s = %s\n", key, value)
}
