package rules

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Parsed is the result of a lenient value parse. UsedDefault is set when the
// input was malformed and Value holds the fallback instead.
type Parsed[T any] struct {
	Value       T
	UsedDefault bool
}

// ParseBool accepts "true", "yes" and "1" in any case; everything else is false.
func ParseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "yes", "1":
		return true
	}
	return false
}

// ParseDecimal parses value, falling back to zero when it is not a number.
func ParseDecimal(value string) Parsed[decimal.Decimal] {
	d, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return Parsed[decimal.Decimal]{Value: decimal.Zero, UsedDefault: true}
	}
	return Parsed[decimal.Decimal]{Value: d}
}

// ParseInt parses value, falling back to def when it is not an integer.
func ParseInt(value string, def int) Parsed[int] {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return Parsed[int]{Value: def, UsedDefault: true}
	}
	return Parsed[int]{Value: n}
}

// entry is one key/value pair from a rule file.
type entry struct {
	Line    int
	Section string
	Key     string
	Value   string
}

// parseLine splits "key = value". It reports false for lines without '=' and
// for pairs with an empty key or value.
func parseLine(line string) (string, string, bool) {
	key, value, found := strings.Cut(line, "=")
	if !found {
		return "", "", false
	}
	key = trim(key)
	value = trim(value)
	if key == "" || value == "" {
		return "", "", false
	}
	return key, value, true
}

func trim(s string) string {
	return strings.Trim(s, " \t\r")
}

// sectionHeader returns the name inside "[NAME]".
func sectionHeader(line string) (string, bool) {
	if len(line) >= 2 && line[0] == '[' && line[len(line)-1] == ']' {
		return line[1 : len(line)-1], true
	}
	return "", false
}

// scan reads a sectioned key/value file. Comments start with '#'; blank lines
// are skipped. onSection is called for every header, including empty sections.
func scan(r io.Reader, onSection func(name string), onEntry func(entry)) error {
	scanner := bufio.NewScanner(r)
	section := ""
	lineNo := 0

	for scanner.Scan() {
		lineNo++
		line := trim(scanner.Text())
		if line == "" || line[0] == '#' {
			continue
		}

		if name, ok := sectionHeader(line); ok {
			section = name
			if onSection != nil {
				onSection(name)
			}
			continue
		}

		key, value, ok := parseLine(line)
		if !ok {
			continue
		}
		onEntry(entry{Line: lineNo, Section: section, Key: key, Value: value})
	}

	return scanner.Err()
}
