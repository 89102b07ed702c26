package admin

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Input tells a renderer how a field is edited.
type Input int

const (
	InputText Input = iota
	InputLongText
	InputNumber
	InputDecimal
	InputToggle
	// InputChoice picks exactly one of Options.
	InputChoice
	// InputMulti toggles any subset of Options.
	InputMulti
	// InputList is a comma separated list.
	InputList
	// InputLines holds one entry per line.
	InputLines
	// InputReference picks a row of another collection by id.
	InputReference
)

// Option is one selectable value of a choice, multi or reference field.
type Option struct {
	Value string
	Label string
}

// Field describes one editable field of a form and its current raw value.
type Field struct {
	Name     string
	Label    string
	Input    Input
	Value    string
	Required bool
	Options  []Option
	Error    string
}

func inputError(field, format string, args ...any) error {
	return fmt.Errorf("%s: %w: %s", field, ErrInvalidInput, fmt.Sprintf(format, args...))
}

// SplitList splits comma separated input, trimming entries and dropping empty ones.
func SplitList(raw string) []string {
	return splitTrim(raw, ",")
}

// SplitLines splits newline separated input, trimming entries and dropping empty ones.
func SplitLines(raw string) []string {
	return splitTrim(strings.ReplaceAll(raw, "\r\n", "\n"), "\n")
}

func splitTrim(raw, sep string) []string {
	out := []string{}
	for _, part := range strings.Split(raw, sep) {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// ParseInt parses a whole number, rejecting anything else.
func ParseInt(raw string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", raw)
	}
	return v, nil
}

// ParseDecimal parses a decimal amount such as 24.90. A lone comma is read
// as the decimal separator.
func ParseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, fmt.Errorf("amount is empty")
	}
	if !strings.Contains(raw, ".") {
		raw = strings.Replace(raw, ",", ".", 1)
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%q is not an amount", raw)
	}
	return v, nil
}

// ParseToggle accepts the usual spellings of a boolean.
func ParseToggle(raw string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "t", "true", "y", "yes", "on", "x":
		return true, nil
	case "", "0", "f", "false", "n", "no", "off":
		return false, nil
	}
	return false, fmt.Errorf("%q is not yes or no", raw)
}

func formatToggle(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}

func yearString(year int) string {
	if year == 0 {
		return ""
	}
	return strconv.Itoa(year)
}
