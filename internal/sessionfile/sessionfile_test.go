package sessionfile

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gitlab.com/yelinaung/gambling-tax/internal/logger"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
	"pgregory.net/rapid"
)

func mustSession(t *testing.T, in models.SessionInput) models.Session {
	t.Helper()
	s, err := models.NewSession(in)
	require.NoError(t, err)
	return s
}

func sampleSessions(t *testing.T) []models.Session {
	t.Helper()
	return []models.Session{
		mustSession(t, models.SessionInput{
			Date:              "03-14-2024",
			Location:          "Borgata",
			State:             "NJ",
			GameType:          models.GameSlotMachine,
			BuyIn:             decimal.NewFromInt(200),
			CashOut:           decimal.NewFromFloat(1450.5),
			TaxWithheld:       true,
			WithheldAmount:    decimal.NewFromInt(300),
			DocumentationNote: "W-2G in folder",
			Notes:             "jackpot",
		}),
		mustSession(t, models.SessionInput{
			Date:     "03-15-2024",
			Location: "Wawa",
			State:    "PA",
			GameType: models.GameLottery,
			BuyIn:    decimal.NewFromInt(20),
			CashOut:  decimal.Zero,
		}),
	}
}

func TestEncodeRow(t *testing.T) {
	t.Parallel()

	rows := sampleSessions(t)
	require.Equal(t, []string{
		"03-14-2024", "Borgata", "NJ", "Slot Machine", "200.00", "1450.50",
		"1", "300.00", "W-2G in folder", "jackpot",
	}, EncodeRow(rows[0]))
	require.Equal(t, []string{
		"03-15-2024", "Wawa", "PA", "Lottery", "20.00", "0.00", "0", "0.00", "", "",
	}, EncodeRow(rows[1]))
}

func TestWrite(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleSessions(t)))

	require.Equal(t,
		"Date,Location,State,GameType,BuyIn,CashOut,TaxWithheld,WithheldAmount,DocumentationNote,Notes\n"+
			"03-14-2024,Borgata,NJ,Slot Machine,200.00,1450.50,1,300.00,W-2G in folder,jackpot\n"+
			"03-15-2024,Wawa,PA,Lottery,20.00,0.00,0,0.00,,\n",
		buf.String())
}

func TestDecodeRow(t *testing.T) {
	t.Parallel()

	t.Run("decodes a valid row", func(t *testing.T) {
		t.Parallel()
		s, err := DecodeRow([]string{
			"12-01-2025", "Bellagio", "nv", "Poker", "500.00", "750.25", "0", "0.00", "", "",
		})
		require.NoError(t, err)
		require.Equal(t, "NV", s.State)
		require.Equal(t, "250.25", s.NetResult().StringFixed(2))
	})

	t.Run("joins unquoted commas in notes", func(t *testing.T) {
		t.Parallel()
		s, err := DecodeRow([]string{
			"12-01-2025", "Bellagio", "NV", "Poker", "5.00", "0.00", "0", "0.00", "", "lost", " then left",
		})
		require.NoError(t, err)
		require.Equal(t, "lost, then left", s.Notes)
	})

	tests := []struct {
		name   string
		fields []string
	}{
		{"malformed date", []string{"2025-12-01", "X", "NV", "Poker", "1.00", "0.00", "0", "0.00", "", ""}},
		{"non-numeric buy-in", []string{"12-01-2025", "X", "NV", "Poker", "ten", "0.00", "0", "0.00", "", ""}},
		{"non-numeric cash-out", []string{"12-01-2025", "X", "NV", "Poker", "1.00", "", "0", "0.00", "", ""}},
		{"non-numeric withheld", []string{"12-01-2025", "X", "NV", "Poker", "1.00", "0.00", "1", "n/a", "", ""}},
		{"too few fields", []string{"12-01-2025", "X", "NV"}},
		{"unknown state", []string{"12-01-2025", "X", "QQ", "Poker", "1.00", "0.00", "0", "0.00", "", ""}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := DecodeRow(tt.fields)
			require.ErrorIs(t, err, ErrMalformedRow)
		})
	}

	t.Run("field errors are validation errors", func(t *testing.T) {
		t.Parallel()
		_, err := DecodeRow(tests[0].fields)
		var vErr *models.ValidationError
		require.True(t, errors.As(err, &vErr))
		require.Equal(t, "date", vErr.Field)
	})
}

func TestRead(t *testing.T) {
	t.Parallel()

	t.Run("skips header, blank and invalid rows", func(t *testing.T) {
		t.Parallel()
		input := strings.Join([]string{
			"Date,Location,State,GameType,BuyIn,CashOut,TaxWithheld,WithheldAmount,DocumentationNote,Notes",
			"03-14-2024,Borgata,NJ,Slot Machine,200.00,1450.50,1,300.00,W-2G in folder,jackpot",
			"",
			"2024-01-01,Home,NJ,Lottery,2.00,0.00,0,0.00,,",
			",,,,,,,,,",
			"03-15-2024,Wawa,PA,Lottery,20.00,0.00,0,0.00,,",
		}, "\n")

		result, err := Read(strings.NewReader(input))
		require.NoError(t, err)
		require.Len(t, result.Sessions, 2)
		require.Len(t, result.Skipped, 1)
		require.Equal(t, 4, result.Skipped[0].Line)
		require.ErrorIs(t, result.Skipped[0], ErrMalformedRow)
	})

	t.Run("empty input yields no sessions", func(t *testing.T) {
		t.Parallel()
		result, err := Read(strings.NewReader(""))
		require.NoError(t, err)
		require.Empty(t, result.Sessions)
		require.Empty(t, result.Skipped)
	})
}

func TestReadKeepsValuesOutOfLogs(t *testing.T) {
	var logs bytes.Buffer
	logger.SetOutput(&logs)
	t.Cleanup(func() { logger.SetOutput(os.Stderr) })

	input := "header\n" +
		"03-14-2024,Secret Poker Room @ 5th Ave,NJ,Poker,1.00,0.00,0,0.00,,\n"

	result, err := Read(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, result.Skipped, 1)

	out := logs.String()
	require.Contains(t, out, "Skipped invalid session row")
	require.Contains(t, out, "location")
	require.NotContains(t, out, "Secret Poker Room")
}

func TestSaveLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "sessions.csv")
	sessions := sampleSessions(t)
	sessions = append(sessions, mustSession(t, models.SessionInput{
		Date:     "04-01-2024",
		Location: "Caesars (Atlantic City)",
		State:    "NJ",
		GameType: models.GameBlackjack,
		BuyIn:    decimal.NewFromInt(100),
		CashOut:  decimal.NewFromInt(80),
		Notes:    `dealer said "good luck", twice`,
	}))

	require.NoError(t, Save(path, sessions))

	result, err := Load(path)
	require.NoError(t, err)
	require.Empty(t, result.Skipped)
	require.Len(t, result.Sessions, len(sessions))
	for i := range sessions {
		requireSameSession(t, sessions[i], result.Sessions[i])
	}

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()
		_, err := Load(filepath.Join(t.TempDir(), "missing.csv"))
		require.ErrorIs(t, err, os.ErrNotExist)
	})
}

func requireSameSession(t *testing.T, want, got models.Session) {
	t.Helper()
	require.Equal(t, EncodeRow(want), EncodeRow(got))
}

func TestRowRoundTrip(t *testing.T) {
	states := []string{"NJ", "NY", "NV", "PA", "DC"}
	games := append([]string{"Keno", "Horse Racing"}, models.KnownGameTypes...)

	rapid.Check(t, func(t *rapid.T) {
		text := rapid.StringMatching(`[A-Za-z0-9 .'&#/()-]{0,40}`)
		withheld := rapid.Bool().Draw(t, "withheld")

		in := models.SessionInput{
			Date: rapid.Custom(func(t *rapid.T) string {
				month := rapid.IntRange(1, 12).Draw(t, "month")
				day := rapid.IntRange(1, 28).Draw(t, "day")
				year := rapid.IntRange(1900, 2100).Draw(t, "year")
				return fmt.Sprintf("%02d-%02d-%04d", month, day, year)
			}).Draw(t, "date"),
			Location:          strings.TrimSpace(text.Draw(t, "location")),
			State:             rapid.SampledFrom(states).Draw(t, "state"),
			GameType:          rapid.SampledFrom(games).Draw(t, "game"),
			BuyIn:             decimal.New(rapid.Int64Range(0, 100_000_000).Draw(t, "buyIn"), -2),
			CashOut:           decimal.New(rapid.Int64Range(0, 100_000_000).Draw(t, "cashOut"), -2),
			TaxWithheld:       withheld,
			WithheldAmount:    decimal.New(rapid.Int64Range(0, 1_000_000).Draw(t, "withheldAmount"), -2),
			DocumentationNote: text.Draw(t, "doc"),
			Notes:             text.Draw(t, "notes"),
		}
		original, err := models.NewSession(in)
		if err != nil {
			t.Fatalf("session: %v", err)
		}

		decoded, err := DecodeRow(EncodeRow(original))
		if err != nil {
			t.Fatalf("decode: %v", err)
		}

		want, got := EncodeRow(original), EncodeRow(decoded)
		for i := range want {
			if want[i] != got[i] {
				t.Fatalf("field %d: want %q, got %q", i, want[i], got[i])
			}
		}
		if !original.NetResult().Equal(decoded.NetResult()) {
			t.Fatalf("net result changed: %s vs %s", original.NetResult(), decoded.NetResult())
		}
	})
}

func FuzzDecodeRow(f *testing.F) {
	f.Add("03-14-2024,Borgata,NJ,Slot Machine,200.00,1450.50,1,300.00,note,notes")
	f.Add("2024-01-01,Home,NJ,Lottery,2.00,0.00,0,0.00,,")
	f.Add(",,,,,,,,,")
	f.Add("02-29-2023,X,NJ,Poker,1,1,1,1,,")
	f.Add("01-01-2024,X,NJ,Poker,-1,1,0,0,,")

	f.Fuzz(func(t *testing.T, line string) {
		s, err := DecodeRow(strings.Split(line, ","))
		if err != nil {
			if !errors.Is(err, ErrMalformedRow) {
				t.Errorf("DecodeRow(%q) error %v does not wrap ErrMalformedRow", line, err)
			}
			return
		}
		if s.BuyIn.IsNegative() || s.CashOut.IsNegative() || s.WithheldAmount.IsNegative() {
			t.Errorf("DecodeRow(%q) produced negative amounts", line)
		}
		if err := models.ValidateDate(s.Date); err != nil {
			t.Errorf("DecodeRow(%q) accepted invalid date: %v", line, err)
		}
	})
}
