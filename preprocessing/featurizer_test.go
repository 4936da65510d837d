package preprocessing

import (
	"testing"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
)

type memTable struct {
	cols []string
	data map[string][]string
}

func (m memTable) Columns() []string { return m.cols }
func (m memTable) Len() int {
	if len(m.cols) == 0 {
		return 0
	}
	return len(m.data[m.cols[0]])
}
func (m memTable) Column(name string) ([]string, error) {
	v, ok := m.data[name]
	if !ok {
		return nil, errors.Wrapf(errors.ErrMissingColumn, "column %q", name)
	}
	return v, nil
}

func censusTable() memTable {
	return memTable{
		cols: []string{"education", "marital-status", "hours-per-week", "income"},
		data: map[string][]string{
			"education":      {"Bachelors", "HS-grad", "11th", "Masters", "HS-grad"},
			"marital-status": {"Never-married", "Divorced", "Married-civ-spouse", "Married-civ-spouse", "Never-married"},
			"hours-per-week": {"40", "40", "20", "50", "35"},
			"income":         {"<=50K", "<=50K", "<=50K", ">50K", ">50K"},
		},
	}
}

func TestLabelIndexerOrdering(t *testing.T) {
	tests := []struct {
		name         string
		values       []string
		wantNegative string
		wantPositive string
	}{
		{name: "majority is negative", values: []string{"<=50K", ">50K", "<=50K"}, wantNegative: "<=50K", wantPositive: ">50K"},
		{name: "ties are lexicographic", values: []string{"yes", "no"}, wantNegative: "no", wantPositive: "yes"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLabelIndexer()
			if err := l.Fit(tt.values); err != nil {
				t.Fatalf("Fit: %v", err)
			}
			if l.Labels[0] != tt.wantNegative || l.Positive() != tt.wantPositive {
				t.Errorf("Labels = %v, want [%s %s]", l.Labels, tt.wantNegative, tt.wantPositive)
			}
		})
	}
}

func TestLabelIndexerErrors(t *testing.T) {
	l := NewLabelIndexer()
	if _, err := l.Index("a"); err == nil {
		t.Error("expected NotFittedError before Fit")
	}
	if err := l.Fit([]string{"a", "b", "c"}); err == nil {
		t.Error("expected error for three labels")
	}
	if err := l.Fit([]string{"a", "a"}); err == nil {
		t.Error("expected error for a single label")
	}
	if err := l.Fit([]string{"a", "b"}); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if _, err := l.Transform([]string{"a", "z"}); err == nil {
		t.Error("expected error for unseen label")
	}
	if _, err := l.Label(2); err == nil {
		t.Error("expected error for out of range index")
	}
}

func TestFeatureHasherIsStable(t *testing.T) {
	h, err := NewFeatureHasher(DefaultNumFeatures)
	if err != nil {
		t.Fatalf("NewFeatureHasher: %v", err)
	}
	a := h.Bucket("education", "10th")
	b := h.Bucket("education", "10th")
	if a != b {
		t.Errorf("bucket not deterministic: %d vs %d", a, b)
	}
	if a < 0 || a >= DefaultNumFeatures {
		t.Errorf("bucket %d out of range", a)
	}
	if _, err := NewFeatureHasher(0); err == nil {
		t.Error("expected error for zero buckets")
	}
}

func TestFeaturizer(t *testing.T) {
	table := censusTable()

	f, err := NewFeaturizer("income", nil, 16)
	if err != nil {
		t.Fatalf("NewFeaturizer: %v", err)
	}
	if err := f.Fit(table); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	if len(f.NumericCols) != 1 || f.NumericCols[0] != "hours-per-week" {
		t.Errorf("NumericCols = %v, want [hours-per-week]", f.NumericCols)
	}
	if len(f.CategoricalCols) != 2 {
		t.Errorf("CategoricalCols = %v, want 2 columns", f.CategoricalCols)
	}
	if f.Width() != 17 {
		t.Errorf("Width() = %d, want 17", f.Width())
	}
	if names := f.FeatureNames(); len(names) != f.Width() || names[0] != "hours-per-week" {
		t.Errorf("FeatureNames() = %v", names)
	}

	X, err := f.Transform(table)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	rows, cols := X.Dims()
	if rows != 5 || cols != 17 {
		t.Fatalf("Transform shape = (%d,%d), want (5,17)", rows, cols)
	}
	// 各行のハッシュ部分の合計はカテゴリ列数に等しい
	for i := 0; i < rows; i++ {
		var s float64
		for j := 1; j < cols; j++ {
			s += X.At(i, j)
		}
		if s != 2 {
			t.Errorf("row %d: hashed block sums to %v, want 2", i, s)
		}
	}

	y, err := f.TransformLabels(table)
	if err != nil {
		t.Fatalf("TransformLabels: %v", err)
	}
	want := []float64{0, 0, 0, 1, 1}
	for i, w := range want {
		if y.AtVec(i) != w {
			t.Errorf("label %d = %v, want %v", i, y.AtVec(i), w)
		}
	}
}

func TestFeaturizerScoringWithoutLabel(t *testing.T) {
	table := censusTable()
	f, err := NewFeaturizer("income", []string{"education", "marital-status", "hours-per-week"}, DefaultNumFeatures)
	if err != nil {
		t.Fatalf("NewFeaturizer: %v", err)
	}
	if err := f.Fit(table); err != nil {
		t.Fatalf("Fit: %v", err)
	}

	scoring := memTable{
		cols: []string{"education", "marital-status", "hours-per-week"},
		data: map[string][]string{
			"education":      {"10th"},
			"marital-status": {"Widowed"},
			"hours-per-week": {"35"},
		},
	}
	X, err := f.Transform(scoring)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if r, c := X.Dims(); r != 1 || c != f.Width() {
		t.Errorf("shape = (%d,%d)", r, c)
	}

	scoring.data["hours-per-week"] = []string{"many"}
	if _, err := f.Transform(scoring); err == nil {
		t.Error("expected error for non-numeric value in numeric column")
	}
}

func TestNewFeaturizerValidation(t *testing.T) {
	if _, err := NewFeaturizer("", nil, 8); err == nil {
		t.Error("expected error for empty label column")
	}
	if _, err := NewFeaturizer("income", []string{"income"}, 8); err == nil {
		t.Error("expected error when features contain the label")
	}
}
