package trace

import (
	"strings"
	"testing"
)

func TestLoadCSV(t *testing.T) {
	samples, err := LoadCSV(strings.NewReader("1.5\n-2\n3e2\n"), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := []float32{1.5, -2, 300}
	if len(samples) != len(want) {
		t.Fatalf("got %d samples, want %d", len(samples), len(want))
	}
	for i := range want {
		if samples[i] != want[i] {
			t.Errorf("sample %d = %v, want %v", i, samples[i], want[i])
		}
	}
}

func TestLoadCSVSkipAndColumn(t *testing.T) {
	input := "time,ch1,ch2\nunits,V,V\n0,1.0,10\n1,2.0,20\n"
	samples, err := LoadCSV(strings.NewReader(input), 2, 2)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 || samples[0] != 10 || samples[1] != 20 {
		t.Errorf("samples = %v, want [10 20]", samples)
	}
}

func TestLoadCSVWhitespace(t *testing.T) {
	samples, err := LoadCSV(strings.NewReader("0, 1.5 ,x\n1, 2.5 ,y\n"), 0, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 2 || samples[0] != 1.5 || samples[1] != 2.5 {
		t.Errorf("samples = %v, want [1.5 2.5]", samples)
	}
}

func TestLoadCSVErrors(t *testing.T) {
	// Missing column: the second line has one field only.
	if _, err := LoadCSV(strings.NewReader("1,2\n3\n"), 0, 1); err == nil {
		t.Error("missing column accepted")
	} else if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name the offending line", err)
	}

	// Unparseable value.
	if _, err := LoadCSV(strings.NewReader("1\nabc\n"), 0, 0); err == nil {
		t.Error("non numeric value accepted")
	} else if !strings.Contains(err.Error(), "line 2") {
		t.Errorf("error %q does not name the offending line", err)
	}
}

func TestLoadCSVEmpty(t *testing.T) {
	samples, err := LoadCSV(strings.NewReader(""), 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(samples) != 0 {
		t.Errorf("empty input yielded %d samples", len(samples))
	}

	// Skipping more lines than exist is not an error either.
	samples, err = LoadCSV(strings.NewReader("header\n"), 5, 0)
	if err != nil || len(samples) != 0 {
		t.Errorf("over-skip: samples=%v err=%v", samples, err)
	}
}
