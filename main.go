// Package main is the entry point for the gambling tax calculator.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gitlab.com/yelinaung/gambling-tax/internal/config"
	"gitlab.com/yelinaung/gambling-tax/internal/logger"
	"gitlab.com/yelinaung/gambling-tax/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const usage = `Usage: gambling-tax <command> [arguments]

Commands:
  report              calculate taxes for the session file and print the report
  sessions            list recorded sessions with totals
  add [flags]         record one session
  bulk-loss [flags] <amount>...
                      record several losing tickets at once
  checklist           print the documentation checklist
  rules               print the active tax rules and rule file paths
  set-year <year>     switch the federal rules to a tax year and save them
  chart <out.png>     write a pie chart of winnings by state
  import              copy the session file into PostgreSQL (replaces stored sessions)
  export              write the sessions stored in PostgreSQL to the session file
  version             print version information
`

var errUsage = errors.New("invalid usage")

func main() {
	if len(os.Args) > 1 && os.Args[1] == "version" {
		fmt.Printf("gambling-tax %s (commit: %s, built: %s)\n", version, commit, date)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to load config")
	}

	if cfg.JSONLogs() {
		logger.SetJSON()
	}
	logger.SetLevel(cfg.LogLevel)

	shutdown, err := telemetry.Setup(ctx, telemetry.Options{
		ServiceName:     "gambling-tax",
		ServiceVersion:  version,
		TracesExporter:  cfg.TracesExporter,
		MetricsExporter: cfg.MetricsExporter,
		Protocol:        cfg.OTLPProtocol,
	})
	if err != nil {
		logger.Log.Fatal().Err(err).Msg("Failed to set up telemetry")
	}

	runErr := run(ctx, cfg, os.Args[1:], os.Stdout)

	// Flush with a fresh context; ctx may already be cancelled by a signal.
	flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	if err := shutdown(flushCtx); err != nil {
		logger.Log.Warn().Err(err).Msg("Failed to flush telemetry")
	}
	cancel()

	if runErr != nil {
		if errors.Is(runErr, errUsage) {
			fmt.Fprint(os.Stderr, usage)
			os.Exit(2)
		}
		logger.Log.Fatal().Err(runErr).Msg("Command failed")
	}
}

// run dispatches one command inside a span. Report text goes to out; logs go
// to stderr.
func run(ctx context.Context, cfg *config.Config, args []string, out io.Writer) (err error) {
	if len(args) == 0 {
		return errUsage
	}

	a := newApp(cfg, out)
	command, rest := args[0], args[1:]

	ctx, span := telemetry.Tracer().Start(ctx, "command "+command,
		trace.WithAttributes(attribute.String("command", command)))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		a.metrics.CommandRun(ctx, command, err)
	}()

	return a.dispatch(ctx, command, rest)
}

func (a *app) dispatch(ctx context.Context, command string, rest []string) error {
	switch command {
	case "report":
		return a.report(ctx)
	case "sessions":
		return a.sessions(ctx)
	case "add":
		return a.add(ctx, rest)
	case "bulk-loss":
		return a.bulkLoss(ctx, rest)
	case "checklist":
		return a.checklist()
	case "rules":
		return a.rulesReport()
	case "set-year":
		return a.setYear(rest)
	case "chart":
		return a.chart(ctx, rest)
	case "import":
		return a.importSessions(ctx)
	case "export":
		return a.exportSessions(ctx)
	case "help", "-h", "--help":
		return a.print(usage)
	default:
		return fmt.Errorf("%w: unknown command %q", errUsage, command)
	}
}
