package preprocessing

import (
	"fmt"
	"sort"

	"github.com/YuminosukeSato/adultcensus/core/model"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

// LabelIndexer maps binary string labels to 0/1.
//
// Labels are ordered by descending frequency with ties broken
// lexicographically. Index 0 is the negative class and index 1 the positive
// class, so the majority label is negative.
type LabelIndexer struct {
	State  *model.StateManager
	Labels []string
}

// NewLabelIndexer creates an unfitted LabelIndexer.
func NewLabelIndexer() *LabelIndexer {
	return &LabelIndexer{State: model.NewStateManager()}
}

// Fit learns the two labels from values.
func (l *LabelIndexer) Fit(values []string) error {
	if len(values) == 0 {
		return errors.NewModelError("LabelIndexer.Fit", "empty data", errors.ErrEmptyData)
	}
	if l.State == nil {
		l.State = model.NewStateManager()
	}

	counts := make(map[string]int)
	for _, v := range values {
		counts[v]++
	}
	if len(counts) != 2 {
		return errors.NewValueError("LabelIndexer.Fit",
			fmt.Sprintf("binary classification requires exactly 2 labels, got %d", len(counts)))
	}

	labels := make([]string, 0, len(counts))
	for v := range counts {
		labels = append(labels, v)
	}
	sort.Slice(labels, func(i, j int) bool {
		if counts[labels[i]] != counts[labels[j]] {
			return counts[labels[i]] > counts[labels[j]]
		}
		return labels[i] < labels[j]
	})

	l.Labels = labels
	l.State.SetDimensions(1, len(values))
	l.State.SetFitted()
	return nil
}

// Index returns the index of label.
func (l *LabelIndexer) Index(label string) (int, error) {
	if err := l.requireFitted("Index"); err != nil {
		return 0, err
	}
	for i, v := range l.Labels {
		if v == label {
			return i, nil
		}
	}
	return 0, errors.NewValueError("LabelIndexer.Index", fmt.Sprintf("unseen label %q", label))
}

// Label returns the string label for index (0 or 1).
func (l *LabelIndexer) Label(index int) (string, error) {
	if err := l.requireFitted("Label"); err != nil {
		return "", err
	}
	if index < 0 || index >= len(l.Labels) {
		return "", errors.NewValueError("LabelIndexer.Label", fmt.Sprintf("index %d out of range", index))
	}
	return l.Labels[index], nil
}

// Transform encodes values as a 0/1 vector.
func (l *LabelIndexer) Transform(values []string) (*mat.VecDense, error) {
	if err := l.requireFitted("Transform"); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, errors.NewModelError("LabelIndexer.Transform", "empty data", errors.ErrEmptyData)
	}

	out := mat.NewVecDense(len(values), nil)
	for i, v := range values {
		idx, err := l.Index(v)
		if err != nil {
			return nil, errors.Wrapf(err, "row %d", i)
		}
		out.SetVec(i, float64(idx))
	}
	return out, nil
}

// Positive returns the label encoded as 1.
func (l *LabelIndexer) Positive() string {
	if len(l.Labels) < 2 {
		return ""
	}
	return l.Labels[1]
}

func (l *LabelIndexer) requireFitted(method string) error {
	if l.State == nil {
		return errors.NewNotFittedError("LabelIndexer", method)
	}
	return l.State.RequireFitted("LabelIndexer", method)
}
