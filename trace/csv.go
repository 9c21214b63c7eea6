package trace

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// LoadCSV reads one sample per line from a comma-separated file.
// skip lines are dropped before reading starts; column selects the
// zero-based column holding the values.
func LoadCSV(r io.Reader, skip, column int) ([]float32, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	var samples []float32
	line := 0
	for scanner.Scan() {
		line++
		if line <= skip {
			continue
		}
		fields := strings.Split(scanner.Text(), ",")
		if column >= len(fields) {
			return nil, fmt.Errorf("trace: line %d has no column %d", line, column)
		}
		v, err := strconv.ParseFloat(strings.TrimSpace(fields[column]), 32)
		if err != nil {
			return nil, fmt.Errorf("trace: line %d: %w", line, err)
		}
		samples = append(samples, float32(v))
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	return samples, nil
}
