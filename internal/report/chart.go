package report

import (
	"errors"
	"fmt"
	"maps"
	"slices"

	"github.com/go-analyze/charts"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

// ErrNothingToChart is returned when a summary has no state winnings.
var ErrNothingToChart = errors.New("no state winnings to chart")

// StateChart renders a pie chart of winnings per state as PNG bytes.
func StateChart(summary models.TaxSummary) ([]byte, error) {
	var values []float64
	var labels []string

	for _, state := range slices.Sorted(maps.Keys(summary.StateWinnings)) {
		winnings := summary.StateWinnings[state]
		if !winnings.IsPositive() {
			continue
		}
		labels = append(labels, state)
		values = append(values, winnings.InexactFloat64())
	}

	if len(values) == 0 {
		return nil, ErrNothingToChart
	}

	p, err := charts.PieRender(
		values,
		charts.TitleOptionFunc(charts.TitleOption{
			Text: fmt.Sprintf("Gambling Winnings by State - Tax Year %d", summary.TaxYear),
		}),
		charts.LegendLabelsOptionFunc(labels),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create chart: %w", err)
	}

	buf, err := p.Bytes()
	if err != nil {
		return nil, fmt.Errorf("failed to render chart: %w", err)
	}

	return buf, nil
}
