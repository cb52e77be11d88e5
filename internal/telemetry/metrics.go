package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds the counters recorded by the commands.
type Metrics struct {
	Commands           metric.Int64Counter
	SessionsLoaded     metric.Int64Counter
	RowsSkipped        metric.Int64Counter
	SessionsCalculated metric.Int64Counter
}

// NewMetrics creates the counters on the global meter provider.
func NewMetrics() (*Metrics, error) {
	meter := otel.Meter(InstrumentationName)

	commands, err := meter.Int64Counter("gambling_tax.commands",
		metric.WithDescription("Commands run, by command and outcome"))
	if err != nil {
		return nil, fmt.Errorf("failed to create commands counter: %w", err)
	}
	loaded, err := meter.Int64Counter("gambling_tax.sessions.loaded",
		metric.WithDescription("Sessions read from the session file"))
	if err != nil {
		return nil, fmt.Errorf("failed to create sessions counter: %w", err)
	}
	skipped, err := meter.Int64Counter("gambling_tax.sessions.skipped",
		metric.WithDescription("Session file rows skipped as invalid"))
	if err != nil {
		return nil, fmt.Errorf("failed to create skipped counter: %w", err)
	}
	calculated, err := meter.Int64Counter("gambling_tax.sessions.calculated",
		metric.WithDescription("Sessions included in a tax calculation"))
	if err != nil {
		return nil, fmt.Errorf("failed to create calculated counter: %w", err)
	}

	return &Metrics{
		Commands:           commands,
		SessionsLoaded:     loaded,
		RowsSkipped:        skipped,
		SessionsCalculated: calculated,
	}, nil
}

// CommandRun counts one command and its outcome. Safe on a nil receiver.
func (m *Metrics) CommandRun(ctx context.Context, command string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.Commands.Add(ctx, 1, metric.WithAttributes(
		attribute.String("command", command),
		attribute.String("outcome", outcome),
	))
}

// SessionsRead counts the rows read from a session file.
func (m *Metrics) SessionsRead(ctx context.Context, loaded, skipped int) {
	if m == nil {
		return
	}
	m.SessionsLoaded.Add(ctx, int64(loaded))
	if skipped > 0 {
		m.RowsSkipped.Add(ctx, int64(skipped))
	}
}

// Calculated counts the sessions fed into one tax calculation.
func (m *Metrics) Calculated(ctx context.Context, sessions int) {
	if m == nil {
		return
	}
	m.SessionsCalculated.Add(ctx, int64(sessions))
}
