package dataset

import (
	"strings"
	"testing"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
)

const sampleCSV = `age, workclass, education, marital-status, hours-per-week, income
39, State-gov, Bachelors, Never-married, 40, <=50K
50, Self-emp-not-inc, Bachelors, Married-civ-spouse, 13, <=50K
52, Self-emp-inc, HS-grad, Married-civ-spouse, 45, >50K
`

func TestReadCSVTrimsWhitespace(t *testing.T) {
	f, err := ReadCSV(strings.NewReader(sampleCSV))
	if err != nil {
		t.Fatalf("ReadCSV: %v", err)
	}
	if f.Len() != 3 {
		t.Errorf("Len() = %d, want 3", f.Len())
	}
	if !f.HasColumn("marital-status") {
		t.Errorf("expected trimmed column name, got %v", f.Columns())
	}
	income, _ := f.Column("income")
	if income[2] != ">50K" {
		t.Errorf("income[2] = %q, want >50K", income[2])
	}
}

func TestReadCSVErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		wantLine int
	}{
		{name: "empty input", input: "", wantLine: 1},
		{name: "short record", input: "a,b\n1,2\n3\n", wantLine: 3},
		{name: "empty header name", input: "a,,c\n1,2,3\n", wantLine: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(tt.input))
			var pe *errors.ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ParseError, got %v", err)
			}
			if pe.Line != tt.wantLine {
				t.Errorf("Line = %d, want %d", pe.Line, tt.wantLine)
			}
		})
	}
}
