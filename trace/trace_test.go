package trace

import (
	"reflect"
	"testing"
)

func TestGuessFormat(t *testing.T) {
	tests := []struct {
		path string
		want Format
	}{
		{"capture.npy", FormatNumpy},
		{"capture.NPY", FormatNumpy},
		{"data/export.csv", FormatCSV},
		{"scope.wfm", FormatWFM},
		{"scope.WFM", FormatWFM},
		{"trace.bin", FormatUnknown},
		{"noextension", FormatUnknown},
	}
	for _, tt := range tests {
		if got := GuessFormat(tt.path); got != tt.want {
			t.Errorf("GuessFormat(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestFormatString(t *testing.T) {
	if FormatNumpy.String() != "numpy" || FormatWFM.String() != "wfm" {
		t.Error("format names changed")
	}
	if Format(99).String() != "unknown" {
		t.Error("out of range format must stringify as unknown")
	}
}

func TestParseFrameSelection(t *testing.T) {
	tests := []struct {
		spec string
		want map[int]struct{}
	}{
		{"0", set(0)},
		{"1,3,5", set(1, 3, 5)},
		{"1-3", set(1, 2, 3)},
		{"1-3,6,12", set(1, 2, 3, 6, 12)},
		{" 2 , 4 - 5 ", set(2, 4, 5)},
		{"3-3", set(3)},
	}
	for _, tt := range tests {
		got, err := ParseFrameSelection(tt.spec)
		if err != nil {
			t.Errorf("ParseFrameSelection(%q): %v", tt.spec, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ParseFrameSelection(%q) = %v, want %v", tt.spec, got, tt.want)
		}
	}
}

func TestParseFrameSelectionErrors(t *testing.T) {
	for _, spec := range []string{"", "a", "1-", "-3", "1-2-3", "5-2", "1,,2"} {
		if _, err := ParseFrameSelection(spec); err == nil {
			t.Errorf("ParseFrameSelection(%q) accepted invalid input", spec)
		}
	}
}

func TestSelectFrames(t *testing.T) {
	frames := [][]float32{{0}, {1}, {2}, {3}}

	if got := selectFrames(frames, nil); len(got) != 4 {
		t.Errorf("nil selection kept %d frames, want all 4", len(got))
	}

	got := selectFrames(frames, set(1, 3))
	if len(got) != 2 || got[0][0] != 1 || got[1][0] != 3 {
		t.Errorf("selectFrames = %v, want frames 1 and 3", got)
	}

	// Out of range indices are ignored.
	if got := selectFrames(frames, set(10)); len(got) != 0 {
		t.Errorf("selection past the end kept %d frames", len(got))
	}
}

func TestLoadRejectsUnknownFormat(t *testing.T) {
	if _, err := Load("trace.bin", Options{}); err == nil {
		t.Error("Load accepted a file with no recognizable format")
	}
}

func set(indices ...int) map[int]struct{} {
	s := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		s[i] = struct{}{}
	}
	return s
}
