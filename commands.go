package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gitlab.com/yelinaung/gambling-tax/internal/config"
	"gitlab.com/yelinaung/gambling-tax/internal/database"
	"gitlab.com/yelinaung/gambling-tax/internal/logger"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
	"gitlab.com/yelinaung/gambling-tax/internal/report"
	"gitlab.com/yelinaung/gambling-tax/internal/repository"
	"gitlab.com/yelinaung/gambling-tax/internal/rules"
	"gitlab.com/yelinaung/gambling-tax/internal/sessionfile"
	"gitlab.com/yelinaung/gambling-tax/internal/tax"
	"gitlab.com/yelinaung/gambling-tax/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// errNoDatabase is returned by the PostgreSQL commands when DATABASE_URL is unset.
var errNoDatabase = errors.New("DATABASE_URL is required for this command")

type app struct {
	cfg     *config.Config
	out     io.Writer
	now     func() time.Time
	log     zerolog.Logger
	store   *rules.Store
	metrics *telemetry.Metrics
}

func newApp(cfg *config.Config, out io.Writer) *app {
	a := &app{
		cfg: cfg,
		out: out,
		now: time.Now,
		log: logger.Component("cli"),
	}
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		a.log.Warn().Err(err).Msg("Metrics disabled")
	}
	a.metrics = metrics
	return a
}

func (a *app) rules() *rules.Store {
	if a.store == nil {
		a.store = rules.Open(a.cfg.RulesDir)
	}
	return a.store
}

func (a *app) engine() *tax.Engine {
	engine := tax.NewEngine(a.rules(), a.cfg.Professional)
	if a.cfg.TaxYear != 0 {
		engine.SetTaxYear(a.cfg.TaxYear)
	}
	return engine
}

func (a *app) print(text string) error {
	_, err := io.WriteString(a.out, text)
	return err
}

// loadSessions reads the session file. A missing file is an empty history.
func (a *app) loadSessions(ctx context.Context) ([]models.Session, error) {
	result, err := sessionfile.Load(a.cfg.SessionsFile)
	if errors.Is(err, os.ErrNotExist) {
		a.log.Info().Str("path", a.cfg.SessionsFile).Msg("No session file yet")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(result.Skipped) > 0 {
		a.log.Warn().Int("skipped", len(result.Skipped)).Msg("Some session rows could not be read")
	}
	a.metrics.SessionsRead(ctx, len(result.Sessions), len(result.Skipped))
	trace.SpanFromContext(ctx).SetAttributes(
		attribute.Int("sessions.loaded", len(result.Sessions)),
		attribute.Int("sessions.skipped", len(result.Skipped)),
	)
	return result.Sessions, nil
}

func (a *app) appendSessions(ctx context.Context, added []models.Session) error {
	sessions, err := a.loadSessions(ctx)
	if err != nil {
		return err
	}
	return sessionfile.Save(a.cfg.SessionsFile, append(sessions, added...))
}

// calculate runs the tax engine and counts the sessions it saw.
func (a *app) calculate(ctx context.Context, sessions []models.Session) models.TaxSummary {
	a.metrics.Calculated(ctx, len(sessions))
	_, span := telemetry.Tracer().Start(ctx, "tax.Calculate",
		trace.WithAttributes(attribute.Int("sessions", len(sessions))))
	defer span.End()

	summary := a.engine().Calculate(sessions)
	span.SetAttributes(attribute.Int("tax_year", summary.TaxYear))
	return summary
}

func (a *app) report(ctx context.Context) error {
	sessions, err := a.loadSessions(ctx)
	if err != nil {
		return err
	}
	if len(sessions) == 0 {
		return a.print("No sessions to calculate. Add some gambling sessions first.\n")
	}

	summary := a.calculate(ctx, sessions)

	text := report.TaxReport(summary, a.rules())
	if reminders := report.Reminders(summary); reminders != "" {
		text += "\n" + reminders
	}
	return a.print(text)
}

func (a *app) sessions(ctx context.Context) error {
	sessions, err := a.loadSessions(ctx)
	if err != nil {
		return err
	}
	return a.print(report.SessionList(sessions))
}

func (a *app) checklist() error {
	return a.print(report.DocumentationChecklist())
}

func (a *app) rulesReport() error {
	store := a.rules()
	if a.cfg.TaxYear != 0 {
		store.UpdateForTaxYear(a.cfg.TaxYear)
	}

	federal, state := store.Paths()
	text := report.RulesReport(store) +
		"\nRULE FILES:\n" +
		"• Federal: " + federal + "\n" +
		"• State: " + state + "\n"
	return a.print(text)
}

func (a *app) setYear(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: set-year takes one year", errUsage)
	}
	year, err := strconv.Atoi(args[0])
	if err != nil || year < 1900 || year > 2100 {
		return fmt.Errorf("%w: year must be between 1900 and 2100", errUsage)
	}

	store := a.rules()
	store.UpdateForTaxYear(year)
	if err := store.SaveFederal(); err != nil {
		return err
	}

	federal := store.Federal()
	return a.print(fmt.Sprintf("✅ Tax year set to %d (loss deduction limit %s%%)\n",
		federal.TaxYear, federal.LossDeductionLimit.Mul(decimal.NewFromInt(100)).StringFixed(0)))
}

func (a *app) chart(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: chart takes an output path", errUsage)
	}

	sessions, err := a.loadSessions(ctx)
	if err != nil {
		return err
	}

	png, err := report.StateChart(a.calculate(ctx, sessions))
	if err != nil {
		return err
	}
	if err := os.WriteFile(args[0], png, 0o644); err != nil {
		return fmt.Errorf("failed to write chart: %w", err)
	}
	return a.print(fmt.Sprintf("✅ Chart written to %s\n", args[0]))
}

// sessionFlags registers the fields shared by add and bulk-loss.
type sessionFlags struct {
	date, location, state, game string
}

func (a *app) registerSessionFlags(fs *flag.FlagSet) *sessionFlags {
	f := &sessionFlags{}
	fs.StringVar(&f.date, "date", models.DefaultDate(a.now(), a.cfg.Location()), "session date (MM-DD-YYYY)")
	fs.StringVar(&f.location, "location", "", "casino or retailer")
	fs.StringVar(&f.state, "state", "", "two-letter state code")
	fs.StringVar(&f.game, "game", models.GameOther, "game type")
	return f
}

func parseFlags(fs *flag.FlagSet, args []string) error {
	if err := fs.Parse(args); err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}
	return nil
}

func (a *app) add(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	common := a.registerSessionFlags(fs)
	buyIn := fs.String("buy-in", "0", "amount wagered")
	cashOut := fs.String("cash-out", "0", "amount collected")
	withheld := fs.String("withheld", "", "tax withheld by the establishment")
	doc := fs.String("doc", "", "documentation note (receipt, W-2G)")
	notes := fs.String("notes", "", "free-form notes")
	if err := parseFlags(fs, args); err != nil {
		return err
	}

	in := models.SessionInput{
		Date:              common.date,
		Location:          common.location,
		State:             common.state,
		GameType:          common.game,
		DocumentationNote: *doc,
		Notes:             *notes,
	}

	var err error
	if in.BuyIn, err = models.ParseAmount("buy-in", *buyIn); err != nil {
		return err
	}
	if in.CashOut, err = models.ParseAmount("cash-out", *cashOut); err != nil {
		return err
	}
	if *withheld != "" {
		if in.WithheldAmount, err = models.ParseAmount("withheld amount", *withheld); err != nil {
			return err
		}
		in.TaxWithheld = true
	}

	s, err := models.NewSession(in)
	if err != nil {
		return err
	}
	if err := a.appendSessions(ctx, []models.Session{s}); err != nil {
		return err
	}

	a.log.Info().
		Str("state", s.State).
		Str("location", logger.SanitizeText(s.Location)).
		Str("notes", logger.SanitizeNote(s.Notes)).
		Msg("Session added")

	return a.print("✅ Session added\n" + report.SessionDetail(s))
}

func (a *app) bulkLoss(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("bulk-loss", flag.ContinueOnError)
	common := a.registerSessionFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return fmt.Errorf("%w: bulk-loss needs at least one amount", errUsage)
	}

	amounts := make([]decimal.Decimal, 0, fs.NArg())
	for _, arg := range fs.Args() {
		amount, err := models.ParseAmount("loss amount", arg)
		if err != nil {
			return err
		}
		amounts = append(amounts, amount)
	}

	losses, err := models.BulkLosses(models.SessionInput{
		Date:     common.date,
		Location: common.location,
		State:    common.state,
		GameType: common.game,
	}, amounts)
	if err != nil {
		return err
	}
	if err := a.appendSessions(ctx, losses); err != nil {
		return err
	}

	total := decimal.Zero
	for i := range losses {
		total = total.Add(losses[i].BuyIn)
	}
	return a.print(fmt.Sprintf("✅ Added %d losing sessions totaling $%s\n", len(losses), total.StringFixed(2)))
}

func (a *app) connect(ctx context.Context) (*pgxpool.Pool, error) {
	if !a.cfg.HasDatabase() {
		return nil, errNoDatabase
	}

	pool, err := database.Connect(ctx, a.cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := database.RunMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return pool, nil
}

func (a *app) importSessions(ctx context.Context) error {
	sessions, err := a.loadSessions(ctx)
	if err != nil {
		return err
	}

	pool, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	var replaced, imported int
	err = database.WithTx(ctx, pool, func(tx database.PGXDB) error {
		repo := repository.NewSessionRepository(tx)
		n, err := repo.DeleteAll(ctx)
		if err != nil {
			return err
		}
		replaced = n
		imported, err = repo.CreateBatch(ctx, sessions)
		return err
	})
	if err != nil {
		return err
	}

	a.log.Info().Int("replaced", replaced).Int("imported", imported).Msg("Sessions imported")
	return a.print(fmt.Sprintf("✅ Imported %d sessions into PostgreSQL\n", imported))
}

func (a *app) exportSessions(ctx context.Context) error {
	pool, err := a.connect(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()

	repo := repository.NewSessionRepository(pool)
	var stored []repository.StoredSession
	if a.cfg.TaxYear != 0 {
		stored, err = repo.ListByYear(ctx, a.cfg.TaxYear)
	} else {
		stored, err = repo.List(ctx)
	}
	if err != nil {
		return err
	}

	if err := sessionfile.Save(a.cfg.SessionsFile, repository.Sessions(stored)); err != nil {
		return err
	}
	return a.print(fmt.Sprintf("✅ Exported %d sessions to %s\n", len(stored), a.cfg.SessionsFile))
}
