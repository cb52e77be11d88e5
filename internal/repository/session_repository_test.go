package repository

import (
	"context"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/gambling-tax/internal/database"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

func setupSessionTest(t *testing.T) (*SessionRepository, context.Context) {
	t.Helper()
	return NewSessionRepository(database.TestTx(t)), context.Background()
}

func newSession(t *testing.T, date, state string, buyIn, cashOut string) models.Session {
	t.Helper()
	s, err := models.NewSession(models.SessionInput{
		Date:     date,
		Location: "Borgata",
		State:    state,
		GameType: models.GameSlotMachine,
		BuyIn:    decimal.RequireFromString(buyIn),
		CashOut:  decimal.RequireFromString(cashOut),
	})
	require.NoError(t, err)
	return s
}

func TestSessionRepository_Create(t *testing.T) {
	repo, ctx := setupSessionTest(t)

	s, err := models.NewSession(models.SessionInput{
		Date:              "03-14-2024",
		Location:          "Caesars (Atlantic City)",
		State:             "nj",
		GameType:          models.GameLottery,
		BuyIn:             decimal.RequireFromString("20.50"),
		CashOut:           decimal.NewFromInt(6000),
		TaxWithheld:       true,
		WithheldAmount:    decimal.NewFromInt(1440),
		DocumentationNote: "W-2G",
		Notes:             `said "wow"`,
	})
	require.NoError(t, err)

	id, err := repo.Create(ctx, &s)
	require.NoError(t, err)
	require.NotZero(t, id)

	got, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, got.ID)
	require.Equal(t, "03-14-2024", got.Date)
	require.Equal(t, "Caesars (Atlantic City)", got.Location)
	require.Equal(t, "NJ", got.State)
	require.Equal(t, models.GameLottery, got.GameType)
	require.True(t, got.BuyIn.Equal(s.BuyIn))
	require.True(t, got.CashOut.Equal(s.CashOut))
	require.True(t, got.TaxWithheld)
	require.True(t, got.WithheldAmount.Equal(s.WithheldAmount))
	require.Equal(t, "W-2G", got.DocumentationNote)
	require.Equal(t, `said "wow"`, got.Notes)
	require.True(t, got.NetResult().Equal(s.NetResult()))
}

func TestSessionRepository_GetByID_NotFound(t *testing.T) {
	repo, ctx := setupSessionTest(t)

	_, err := repo.GetByID(ctx, 999999999)
	require.ErrorIs(t, err, pgx.ErrNoRows)
}

func TestSessionRepository_CreateBatchAndList(t *testing.T) {
	repo, ctx := setupSessionTest(t)

	before, err := repo.Count(ctx)
	require.NoError(t, err)

	sessions := []models.Session{
		newSession(t, "12-31-2024", "NJ", "100", "0"),
		newSession(t, "01-02-2024", "NV", "0", "250.25"),
		newSession(t, "06-15-2025", "PA", "50", "60"),
	}
	n, err := repo.CreateBatch(ctx, sessions)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Equal(t, before+3, count)

	t.Run("lists in date order", func(t *testing.T) {
		all, err := repo.List(ctx)
		require.NoError(t, err)
		require.Len(t, all, count)

		var dates []string
		for _, s := range all {
			dates = append(dates, s.Date)
		}
		require.Subset(t, dates, []string{"01-02-2024", "12-31-2024", "06-15-2025"})
	})

	t.Run("filters by year", func(t *testing.T) {
		in2024, err := repo.ListByYear(ctx, 2024)
		require.NoError(t, err)
		for _, s := range in2024 {
			require.Contains(t, s.Date, "-2024")
		}

		in2025, err := repo.ListByYear(ctx, 2025)
		require.NoError(t, err)
		plain := Sessions(in2025)
		require.NotEmpty(t, plain)
		require.Equal(t, "06-15-2025", plain[len(plain)-1].Date)
	})

	t.Run("empty batch is a no-op", func(t *testing.T) {
		n, err := repo.CreateBatch(ctx, nil)
		require.NoError(t, err)
		require.Zero(t, n)
	})
}

func TestSessionRepository_Delete(t *testing.T) {
	repo, ctx := setupSessionTest(t)

	s := newSession(t, "05-05-2024", "NY", "10", "0")
	id, err := repo.Create(ctx, &s)
	require.NoError(t, err)

	require.NoError(t, repo.Delete(ctx, id))
	_, err = repo.GetByID(ctx, id)
	require.ErrorIs(t, err, pgx.ErrNoRows)

	_, err = repo.CreateBatch(ctx, []models.Session{s, s})
	require.NoError(t, err)

	deleted, err := repo.DeleteAll(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, deleted, 2)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	require.Zero(t, count)
}

func TestSessions(t *testing.T) {
	t.Parallel()

	stored := []StoredSession{
		{ID: 7, Session: models.Session{Date: "01-01-2024", State: "NJ"}},
		{ID: 9, Session: models.Session{Date: "01-02-2024", State: "NV"}},
	}
	got := Sessions(stored)
	require.Len(t, got, 2)
	require.Equal(t, "NJ", got[0].State)
	require.Equal(t, "01-02-2024", got[1].Date)
	require.Empty(t, Sessions(nil))
}
