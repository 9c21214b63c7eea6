// Package trace loads sample traces from capture files.
//
// Three formats are supported: NumPy .npy arrays (1-D or 2-D), plain
// CSV columns, and Tektronix .wfm waveforms including FastFrame
// captures. Every loader returns traces as []float32, the only sample
// type the renderers consume.
package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// Format identifies a trace file format.
type Format int

const (
	// FormatUnknown means the format could not be determined.
	FormatUnknown Format = iota
	// FormatNumpy is a NumPy .npy array.
	FormatNumpy
	// FormatCSV is a comma-separated text file.
	FormatCSV
	// FormatWFM is a Tektronix .wfm waveform.
	FormatWFM
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatNumpy:
		return "numpy"
	case FormatCSV:
		return "csv"
	case FormatWFM:
		return "wfm"
	default:
		return "unknown"
	}
}

// GuessFormat guesses the trace file format from the path extension.
func GuessFormat(path string) Format {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(path), ".")) {
	case "npy":
		return FormatNumpy
	case "csv":
		return FormatCSV
	case "wfm":
		return FormatWFM
	default:
		return FormatUnknown
	}
}

// Options tunes how a file is loaded. The zero value is valid for
// every format.
type Options struct {
	// Format overrides extension-based detection.
	Format Format

	// SkipLines is the number of leading CSV lines to skip.
	SkipLines int

	// Column is the zero-based CSV column holding the samples.
	Column int

	// Frames selects which WFM FastFrame frames to load, nil meaning
	// all. See ParseFrameSelection.
	Frames map[int]struct{}
}

// Load reads every trace from a capture file. Single-trace formats
// return a one-element slice.
func Load(path string, opts Options) ([][]float32, error) {
	format := opts.Format
	if format == FormatUnknown {
		format = GuessFormat(path)
	}
	if format == FormatUnknown {
		return nil, fmt.Errorf("trace: cannot guess format of %q", path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("trace: %w", err)
	}
	defer f.Close()

	switch format {
	case FormatNumpy:
		return LoadNPY(f)
	case FormatCSV:
		t, err := LoadCSV(f, opts.SkipLines, opts.Column)
		if err != nil {
			return nil, err
		}
		return [][]float32{t}, nil
	case FormatWFM:
		frames, err := LoadWFM(f)
		if err != nil {
			return nil, err
		}
		return selectFrames(frames, opts.Frames), nil
	default:
		return nil, fmt.Errorf("trace: unsupported format %v", format)
	}
}

// selectFrames keeps the frames named in the selection, all of them
// when the selection is nil.
func selectFrames(frames [][]float32, selection map[int]struct{}) [][]float32 {
	if selection == nil {
		return frames
	}
	kept := make([][]float32, 0, len(selection))
	for i, frame := range frames {
		if _, ok := selection[i]; ok {
			kept = append(kept, frame)
		}
	}
	return kept
}

// ParseFrameSelection parses a FastFrame selection like "1-3,6,12"
// into a set of frame indices.
func ParseFrameSelection(spec string) (map[int]struct{}, error) {
	set := make(map[int]struct{})
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if lo, hi, ok := strings.Cut(part, "-"); ok {
			start, err := strconv.Atoi(strings.TrimSpace(lo))
			if err != nil {
				return nil, fmt.Errorf("trace: invalid frame range start %q", lo)
			}
			end, err := strconv.Atoi(strings.TrimSpace(hi))
			if err != nil {
				return nil, fmt.Errorf("trace: invalid frame range end %q", hi)
			}
			if start > end {
				return nil, fmt.Errorf("trace: invalid frame range %d-%d", start, end)
			}
			for i := start; i <= end; i++ {
				set[i] = struct{}{}
			}
		} else {
			idx, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("trace: invalid frame index %q", part)
			}
			set[idx] = struct{}{}
		}
	}
	return set, nil
}
