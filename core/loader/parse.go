package loader

import (
	"bufio"
	"io"
	"strings"

	"incidentdash/core/incidents"
)

const (
	fieldCount    = 6
	maxLineLength = 1 << 20
)

// ParseLine accepts a line only when it has at least six comma-separated
// fields and the last one is all decimal digits. Double quotes are dropped
// before splitting; quoted commas are not supported.
func ParseLine(line string) (incidents.Row, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return incidents.Row{}, false
	}
	line = strings.ReplaceAll(line, `"`, "")
	fields := strings.Split(line, ",")
	if !isDigits(strings.TrimSpace(fields[len(fields)-1])) {
		return incidents.Row{}, false
	}
	if len(fields) < fieldCount {
		return incidents.Row{}, false
	}
	return incidents.Row{
		IncidentID: fields[0],
		Date:       fields[1],
		Category:   fields[2],
		Grade:      fields[3],
		Severity:   fields[4],
		System:     fields[5],
	}, true
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// ReadRows returns every accepted row in file order and the number of
// non-empty lines that were rejected.
func ReadRows(r io.Reader) ([]incidents.Row, int, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), maxLineLength)
	var rows []incidents.Row
	discarded := 0
	for sc.Scan() {
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		row, ok := ParseLine(text)
		if !ok {
			discarded++
			continue
		}
		rows = append(rows, row)
	}
	if err := sc.Err(); err != nil {
		return nil, 0, err
	}
	return rows, discarded, nil
}
