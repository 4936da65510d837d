package preprocessing

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/YuminosukeSato/adultcensus/core/model"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// Table is the column-oriented view the Featurizer reads from.
type Table interface {
	Columns() []string
	Column(name string) ([]string, error)
	Len() int
}

// Featurizer turns a table of string cells into a numeric feature matrix and
// a 0/1 label vector.
//
// Columns whose values all parse as floats are standardized; every other
// feature column is hashed into a shared block of NumFeatures buckets.
// The output layout is [numeric columns..., hash buckets...].
type Featurizer struct {
	State *model.StateManager

	LabelCol        string
	FeatureCols     []string
	NumericCols     []string
	CategoricalCols []string

	Labels *LabelIndexer
	Scaler *StandardScaler
	Hasher *FeatureHasher
}

// NewFeaturizer creates a Featurizer. When featureCols is empty every column
// except labelCol is used.
func NewFeaturizer(labelCol string, featureCols []string, numFeatures int) (*Featurizer, error) {
	if labelCol == "" {
		return nil, errors.NewValidationError("labelCol", "is required", labelCol)
	}
	if slices.Contains(featureCols, labelCol) {
		return nil, errors.NewValidationError("featureCols", "must not contain the label column", labelCol)
	}
	hasher, err := NewFeatureHasher(numFeatures)
	if err != nil {
		return nil, err
	}
	return &Featurizer{
		State:       model.NewStateManager(),
		LabelCol:    labelCol,
		FeatureCols: slices.Clone(featureCols),
		Labels:      NewLabelIndexer(),
		Scaler:      NewStandardScalerDefault(),
		Hasher:      hasher,
	}, nil
}

// Fit learns the label encoding, the column types and the numeric scaling.
func (f *Featurizer) Fit(t Table) error {
	if t.Len() == 0 {
		return errors.NewModelError("Featurizer.Fit", "empty data", errors.ErrEmptyData)
	}

	labels, err := t.Column(f.LabelCol)
	if err != nil {
		return err
	}
	if err := f.Labels.Fit(labels); err != nil {
		return err
	}

	cols := f.FeatureCols
	if len(cols) == 0 {
		for _, c := range t.Columns() {
			if c != f.LabelCol {
				cols = append(cols, c)
			}
		}
	}
	if len(cols) == 0 {
		return errors.NewValueError("Featurizer.Fit", "no feature columns")
	}

	f.NumericCols = f.NumericCols[:0]
	f.CategoricalCols = f.CategoricalCols[:0]
	for _, c := range cols {
		values, err := t.Column(c)
		if err != nil {
			return err
		}
		if allNumeric(values) {
			f.NumericCols = append(f.NumericCols, c)
		} else {
			f.CategoricalCols = append(f.CategoricalCols, c)
		}
	}
	f.FeatureCols = slices.Clone(cols)

	if len(f.NumericCols) > 0 {
		numeric, err := f.numericMatrix(t)
		if err != nil {
			return err
		}
		if err := f.Scaler.Fit(numeric); err != nil {
			return err
		}
	}

	f.State.SetDimensions(f.Width(), t.Len())
	f.State.SetFitted()
	return nil
}

// Transform encodes the feature columns of t. The label column is not read.
func (f *Featurizer) Transform(t Table) (*mat.Dense, error) {
	if err := f.State.RequireFitted("Featurizer", "Transform"); err != nil {
		return nil, err
	}
	n := t.Len()
	if n == 0 {
		return nil, errors.NewModelError("Featurizer.Transform", "empty data", errors.ErrEmptyData)
	}

	out := mat.NewDense(n, f.Width(), nil)
	nNumeric := len(f.NumericCols)

	if nNumeric > 0 {
		numeric, err := f.numericMatrix(t)
		if err != nil {
			return nil, err
		}
		scaled, err := f.Scaler.Transform(numeric)
		if err != nil {
			return nil, err
		}
		out.Slice(0, n, 0, nNumeric).(*mat.Dense).Copy(scaled)
	}

	for _, c := range f.CategoricalCols {
		values, err := t.Column(c)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			j := nNumeric + f.Hasher.Bucket(c, v)
			out.Set(i, j, out.At(i, j)+1)
		}
	}
	return out, nil
}

// TransformLabels encodes the label column of t as 0/1.
func (f *Featurizer) TransformLabels(t Table) (*mat.VecDense, error) {
	if err := f.State.RequireFitted("Featurizer", "TransformLabels"); err != nil {
		return nil, err
	}
	labels, err := t.Column(f.LabelCol)
	if err != nil {
		return nil, err
	}
	return f.Labels.Transform(labels)
}

// Width returns the number of output features.
func (f *Featurizer) Width() int {
	return len(f.NumericCols) + f.Hasher.NumFeatures
}

// FeatureNames names every output column.
func (f *Featurizer) FeatureNames() []string {
	names := make([]string, 0, f.Width())
	names = append(names, f.NumericCols...)
	for i := 0; i < f.Hasher.NumFeatures; i++ {
		names = append(names, fmt.Sprintf("hash_%d", i))
	}
	return names
}

func (f *Featurizer) numericMatrix(t Table) (*mat.Dense, error) {
	m := mat.NewDense(t.Len(), len(f.NumericCols), nil)
	for j, c := range f.NumericCols {
		values, err := t.Column(c)
		if err != nil {
			return nil, err
		}
		for i, v := range values {
			x, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if err != nil {
				return nil, errors.NewValueError("Featurizer",
					fmt.Sprintf("column %q row %d: %q is not numeric", c, i, v))
			}
			m.Set(i, j, x)
		}
	}
	return m, nil
}

func allNumeric(values []string) bool {
	if len(values) == 0 {
		return false
	}
	for _, v := range values {
		if _, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil {
			return false
		}
	}
	return true
}
