package dataset

import (
	"fmt"
	"strings"
	"testing"
)

func numberedFrame(t *testing.T, n int) *Frame {
	t.Helper()
	rows := make([][]string, n)
	for i := range rows {
		rows[i] = []string{fmt.Sprint(i), fmt.Sprintf("v%d", i%3)}
	}
	f, err := NewFrame([]string{"id", "cat"}, rows)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return f
}

func TestNewFrameValidation(t *testing.T) {
	tests := []struct {
		name    string
		columns []string
		rows    [][]string
	}{
		{name: "no columns", columns: nil},
		{name: "duplicate column", columns: []string{"a", "a"}},
		{name: "ragged row", columns: []string{"a", "b"}, rows: [][]string{{"1"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewFrame(tt.columns, tt.rows); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestFrameSelectAndColumn(t *testing.T) {
	f := numberedFrame(t, 5)

	sel, err := f.Select("cat")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := sel.Columns(); len(got) != 1 || got[0] != "cat" {
		t.Errorf("Columns() = %v", got)
	}
	if _, err := f.Select("missing"); err == nil {
		t.Error("expected error selecting a missing column")
	}

	ids, err := f.Float("id")
	if err != nil {
		t.Fatalf("Float: %v", err)
	}
	if ids[4] != 4 {
		t.Errorf("ids[4] = %v, want 4", ids[4])
	}
	if _, err := f.Float("cat"); err == nil {
		t.Error("expected error parsing a categorical column")
	}
}

func TestFrameHeadAndString(t *testing.T) {
	f := numberedFrame(t, 20)

	if f.Head(10).Len() != 10 {
		t.Errorf("Head(10).Len() = %d", f.Head(10).Len())
	}
	if f.Head(100).Len() != 20 {
		t.Errorf("Head(100).Len() = %d", f.Head(100).Len())
	}

	out := f.Head(2).String()
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header and 2 rows, got %q", out)
	}
	if !strings.Contains(lines[0], "id") || !strings.Contains(lines[0], "cat") {
		t.Errorf("header line missing columns: %q", lines[0])
	}
}

func TestRandomSplitDeterministicAndDisjoint(t *testing.T) {
	f := numberedFrame(t, 1000)

	a, err := f.RandomSplit([]float64{0.75, 0.25}, 123)
	if err != nil {
		t.Fatalf("RandomSplit: %v", err)
	}
	b, err := f.RandomSplit([]float64{3, 1}, 123)
	if err != nil {
		t.Fatalf("RandomSplit: %v", err)
	}

	for p := range a {
		if a[p].Len() != b[p].Len() {
			t.Fatalf("partition %d differs between equivalent weights: %d vs %d", p, a[p].Len(), b[p].Len())
		}
		for i := 0; i < a[p].Len(); i++ {
			if a[p].Row(i)[0] != b[p].Row(i)[0] {
				t.Fatalf("partition %d row %d differs", p, i)
			}
		}
	}

	seen := make(map[string]int)
	for _, part := range a {
		ids, _ := part.Column("id")
		for _, id := range ids {
			seen[id]++
		}
	}
	if len(seen) != 1000 {
		t.Errorf("union has %d rows, want 1000", len(seen))
	}
	for id, n := range seen {
		if n != 1 {
			t.Errorf("row %s appears %d times", id, n)
		}
	}

	if frac := float64(a[0].Len()) / 1000; frac < 0.70 || frac > 0.80 {
		t.Errorf("train fraction %v far from 0.75", frac)
	}

	c, _ := f.RandomSplit([]float64{0.75, 0.25}, 124)
	if c[0].Len() == a[0].Len() {
		same := true
		for i := 0; i < c[0].Len(); i++ {
			if c[0].Row(i)[0] != a[0].Row(i)[0] {
				same = false
				break
			}
		}
		if same {
			t.Error("different seeds produced identical partitions")
		}
	}
}

func TestRandomSplitInvalidWeights(t *testing.T) {
	f := numberedFrame(t, 3)
	for _, w := range [][]float64{nil, {0.5, 0}, {-1, 2}} {
		if _, err := f.RandomSplit(w, 1); err == nil {
			t.Errorf("expected error for weights %v", w)
		}
	}
}
