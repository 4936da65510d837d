package preprocessing

import (
	"math"
	"testing"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"gonum.org/v1/gonum/mat"
)

func TestStandardScaler(t *testing.T) {
	X := mat.NewDense(4, 2, []float64{
		1, 10,
		2, 10,
		3, 10,
		4, 10,
	})

	s := NewStandardScalerDefault()
	scaled, err := s.FitTransform(X)
	if err != nil {
		t.Fatalf("FitTransform: %v", err)
	}

	if math.Abs(s.Mean[0]-2.5) > 1e-12 {
		t.Errorf("Mean[0] = %v, want 2.5", s.Mean[0])
	}
	// 定数列はスケール1になる
	if s.Scale[1] != 1 {
		t.Errorf("Scale[1] = %v, want 1 for constant column", s.Scale[1])
	}

	var sum float64
	for i := 0; i < 4; i++ {
		sum += scaled.At(i, 0)
	}
	if math.Abs(sum) > 1e-12 {
		t.Errorf("scaled column should have zero mean, got sum %v", sum)
	}

	back, err := s.InverseTransform(scaled)
	if err != nil {
		t.Fatalf("InverseTransform: %v", err)
	}
	if !mat.EqualApprox(back, X, 1e-12) {
		t.Errorf("InverseTransform did not restore input:\n%v", mat.Formatted(back))
	}
}

func TestStandardScalerErrors(t *testing.T) {
	s := NewStandardScalerDefault()

	_, err := s.Transform(mat.NewDense(1, 1, []float64{1}))
	var nf *errors.NotFittedError
	if !errors.As(err, &nf) {
		t.Errorf("expected NotFittedError, got %v", err)
	}

	if err := s.Fit(mat.NewDense(2, 2, []float64{1, 2, 3, 4})); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	_, err = s.Transform(mat.NewDense(1, 3, []float64{1, 2, 3}))
	var de *errors.DimensionError
	if !errors.As(err, &de) {
		t.Errorf("expected DimensionError, got %v", err)
	}
}

func TestStandardScalerWithoutMean(t *testing.T) {
	s := NewStandardScaler(false, true)
	if err := s.Fit(mat.NewDense(2, 1, []float64{2, 4})); err != nil {
		t.Fatalf("Fit: %v", err)
	}
	if s.Mean[0] != 0 {
		t.Errorf("Mean should be 0 when WithMean is false, got %v", s.Mean[0])
	}
}
