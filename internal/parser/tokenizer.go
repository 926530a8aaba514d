package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Tokenize splits one log line into its comma-separated fields. Quoted fields
// may contain commas; a quote inside a quoted field is written either doubled
// ("") or backslash-escaped (\"). Quotes are removed from the returned values.
//
// The first field must be an integer ordinal and the second a non-empty kind;
// anything else (including a blank line) fails with ErrUnparsable.
func Tokenize(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, fmt.Errorf("blank line: %w", ErrUnparsable)
	}

	fields := make([]string, 0, 16)
	var b strings.Builder
	inQuotes := false

	for i := 0; i < len(line); i++ {
		c := line[i]
		switch {
		case inQuotes && c == '\\' && i+1 < len(line) && line[i+1] == '"':
			b.WriteByte('"')
			i++
		case inQuotes && c == '"' && i+1 < len(line) && line[i+1] == '"':
			b.WriteByte('"')
			i++
		case c == '"':
			inQuotes = !inQuotes
		case c == ',' && !inQuotes:
			fields = append(fields, b.String())
			b.Reset()
		default:
			b.WriteByte(c)
		}
	}
	fields = append(fields, b.String())

	if len(fields) < 2 || strings.TrimSpace(fields[1]) == "" {
		return nil, fmt.Errorf("missing kind: %w", ErrUnparsable)
	}
	if _, err := strconv.ParseInt(strings.TrimSpace(fields[0]), 10, 64); err != nil {
		return nil, fmt.Errorf("ordinal %q: %w", fields[0], ErrUnparsable)
	}
	return fields, nil
}
