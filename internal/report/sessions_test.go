package report

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

func TestSessionDetail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   models.SessionInput
		want string
	}{
		{
			name: "win without withholding warns",
			in: models.SessionInput{
				Date:     "03-14-2024",
				Location: "Borgata",
				State:    "NJ",
				GameType: models.GameSlotMachine,
				BuyIn:    decimal.NewFromInt(100),
				CashOut:  decimal.NewFromInt(1500),
				Notes:    "jackpot",
			},
			want: "Date: 03-14-2024\n" +
				"Location: Borgata (NJ)\n" +
				"Game: Slot Machine\n" +
				"Buy-in: $100.00\n" +
				"Cash-out: $1500.00\n" +
				"Net Result: $1400.00 (WIN)\n" +
				"⚠️  WARNING: This win may require tax withholding!\n" +
				"Notes: jackpot\n",
		},
		{
			name: "withheld win shows amount",
			in: models.SessionInput{
				Date:              "03-14-2024",
				Location:          "Wawa",
				State:             "PA",
				GameType:          models.GameLottery,
				CashOut:           decimal.NewFromInt(6000),
				TaxWithheld:       true,
				WithheldAmount:    decimal.NewFromInt(1440),
				DocumentationNote: "W-2G",
			},
			want: "Date: 03-14-2024\n" +
				"Location: Wawa (PA)\n" +
				"Game: Lottery\n" +
				"Buy-in: $0.00\n" +
				"Cash-out: $6000.00\n" +
				"Net Result: $6000.00 (WIN)\n" +
				"Tax Withheld: $1440.00\n" +
				"Documentation: W-2G\n",
		},
		{
			name: "break even",
			in: models.SessionInput{
				Date:     "03-14-2024",
				Location: "Home",
				State:    "NY",
				GameType: models.GamePoker,
				BuyIn:    decimal.NewFromInt(20),
				CashOut:  decimal.NewFromInt(20),
			},
			want: "Date: 03-14-2024\n" +
				"Location: Home (NY)\n" +
				"Game: Poker\n" +
				"Buy-in: $20.00\n" +
				"Cash-out: $20.00\n" +
				"Net Result: $0.00 (BREAK EVEN)\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			s, err := models.NewSession(tt.in)
			require.NoError(t, err)
			require.Equal(t, tt.want, SessionDetail(s))
		})
	}
}

func TestSessionList(t *testing.T) {
	t.Parallel()

	t.Run("empty", func(t *testing.T) {
		t.Parallel()
		require.Equal(t, "No sessions recorded yet.\n", SessionList(nil))
	})

	t.Run("totals", func(t *testing.T) {
		t.Parallel()
		sessions := []models.Session{
			session(t, "NJ", models.GamePoker, 100, 350),
			session(t, "NJ", models.GamePoker, 75, 0),
			session(t, "NY", models.GamePoker, 10, 10),
		}

		got := SessionList(sessions)
		require.Contains(t, got, "\n--- Session 1 ---\n")
		require.Contains(t, got, "\n--- Session 3 ---\n")
		require.Contains(t, got, "Net Result: $-75.00 (LOSS)\n")
		require.Contains(t, got, "SUMMARY:\n"+
			"Total Sessions: 3\n"+
			"Total Winnings: $250.00\n"+
			"Total Losses: $75.00\n"+
			"Net Result: $175.00\n")
	})
}
