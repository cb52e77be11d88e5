// Package sessionfile reads and writes gambling sessions as CSV.
package sessionfile

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gitlab.com/yelinaung/gambling-tax/internal/logger"
	"gitlab.com/yelinaung/gambling-tax/internal/models"
)

// Header is the first row of a session file.
var Header = []string{
	"Date", "Location", "State", "GameType", "BuyIn", "CashOut",
	"TaxWithheld", "WithheldAmount", "DocumentationNote", "Notes",
}

const fieldCount = 10

// ErrMalformedRow is wrapped by every row decoding failure.
var ErrMalformedRow = errors.New("malformed session row")

// RowError reports a row that could not be decoded.
type RowError struct {
	Line int
	Err  error
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *RowError) Unwrap() error {
	return e.Err
}

func malformed(err error) error {
	return fmt.Errorf("%w: %w", ErrMalformedRow, err)
}

// EncodeRow returns the ten fields for s, with amounts to two decimals.
func EncodeRow(s models.Session) []string {
	withheld := "0"
	if s.TaxWithheld {
		withheld = "1"
	}
	return []string{
		s.Date,
		s.Location,
		s.State,
		s.GameType,
		s.BuyIn.StringFixed(2),
		s.CashOut.StringFixed(2),
		withheld,
		s.WithheldAmount.StringFixed(2),
		s.DocumentationNote,
		s.Notes,
	}
}

// DecodeRow parses and validates a row produced by EncodeRow. Extra fields
// from unquoted commas in the notes column are joined back into the notes.
// Errors wrap ErrMalformedRow and, for field problems, models.ErrInvalidSession.
func DecodeRow(fields []string) (models.Session, error) {
	s, err := decodeRow(fields)
	if err != nil {
		return models.Session{}, malformed(err)
	}
	return s, nil
}

func decodeRow(fields []string) (models.Session, error) {
	if len(fields) < fieldCount {
		return models.Session{}, fmt.Errorf("expected %d fields, got %d", fieldCount, len(fields))
	}
	if len(fields) > fieldCount {
		notes := strings.Join(fields[fieldCount-1:], ",")
		fields = append(fields[:fieldCount-1:fieldCount-1], notes)
	}

	if err := models.ValidateDate(fields[0]); err != nil {
		return models.Session{}, err
	}

	buyIn, err := models.ParseAmount("buy-in", fields[4])
	if err != nil {
		return models.Session{}, err
	}
	cashOut, err := models.ParseAmount("cash-out", fields[5])
	if err != nil {
		return models.Session{}, err
	}
	withheldAmount, err := models.ParseAmount("withheld amount", fields[7])
	if err != nil {
		return models.Session{}, err
	}

	return models.NewSession(models.SessionInput{
		Date:              fields[0],
		Location:          fields[1],
		State:             fields[2],
		GameType:          fields[3],
		BuyIn:             buyIn,
		CashOut:           cashOut,
		TaxWithheld:       strings.TrimSpace(fields[6]) == "1",
		WithheldAmount:    withheldAmount,
		DocumentationNote: fields[8],
		Notes:             fields[9],
	})
}

// Write writes the header and one row per session.
func Write(w io.Writer, sessions []models.Session) error {
	writer := csv.NewWriter(w)

	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for i := range sessions {
		if err := writer.Write(EncodeRow(sessions[i])); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("CSV writer error: %w", err)
	}
	return nil
}

// LoadResult holds the sessions read from a file and the rows skipped.
type LoadResult struct {
	Sessions []models.Session
	Skipped  []*RowError
}

// Read reads a session file. The first row is treated as the header. Rows
// that fail to decode are skipped and reported in the result.
func Read(r io.Reader) (LoadResult, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var result LoadResult
	first := true
	for {
		fields, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				result.Skipped = append(result.Skipped, &RowError{Line: parseErr.StartLine, Err: malformed(err)})
				logger.Log.Warn().Int("line", parseErr.StartLine).Err(err).Msg("Skipped unreadable session row")
				continue
			}
			return result, fmt.Errorf("failed to read sessions: %w", err)
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			continue
		}
		if isBlank(fields) {
			continue
		}

		s, err := DecodeRow(fields)
		if err != nil {
			result.Skipped = append(result.Skipped, &RowError{Line: line, Err: err})
			logSkipped(line, err)
			continue
		}
		result.Sessions = append(result.Sessions, s)
	}

	return result, nil
}

// logSkipped keeps raw field values, which may hold locations or notes, out
// of the log.
func logSkipped(line int, err error) {
	event := logger.Log.Warn().Int("line", line)

	var vErr *models.ValidationError
	if errors.As(err, &vErr) {
		event = event.
			Str("field", vErr.Field).
			Str("value", logger.SanitizeText(vErr.Value)).
			Str("reason", vErr.Reason)
	} else {
		event = event.Err(err)
	}

	event.Msg("Skipped invalid session row")
}

func isBlank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// Save writes sessions to path, replacing the file.
func Save(path string, sessions []models.Session) error {
	var buf bytes.Buffer
	if err := Write(&buf, sessions); err != nil {
		return err
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o600); err != nil {
		return fmt.Errorf("failed to save sessions: %w", err)
	}
	logger.Log.Info().Int("sessions", len(sessions)).Str("path", path).Msg("Sessions saved")
	return nil
}

// Load reads sessions from path.
func Load(path string) (LoadResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return LoadResult{}, fmt.Errorf("failed to open sessions: %w", err)
	}
	defer f.Close()

	result, err := Read(f)
	if err != nil {
		return result, err
	}
	logger.Log.Info().
		Int("sessions", len(result.Sessions)).
		Int("skipped", len(result.Skipped)).
		Str("path", path).
		Msg("Sessions loaded")
	return result, nil
}
