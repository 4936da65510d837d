package automl

import (
	"fmt"
	"io"

	"github.com/YuminosukeSato/adultcensus/metrics"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
)

// ModelStatistics summarizes binary classification quality.
type ModelStatistics struct {
	Accuracy  float64
	Precision float64
	Recall    float64
	AUC       float64
	LogLoss   float64
	Confusion metrics.BinaryConfusion
}

// ComputeModelStatistics evaluates scored predictions against their true
// labels. The positive class is index 1.
func ComputeModelStatistics(p *Predictions) (*ModelStatistics, error) {
	if p == nil || p.TrueLabels == nil {
		return nil, errors.NewValueError("ComputeModelStatistics", "predictions carry no true labels")
	}

	confusion, err := metrics.ConfusionMatrix(p.TrueLabels, p.ScoredLabels)
	if err != nil {
		return nil, err
	}
	accuracy, err := metrics.Accuracy(p.TrueLabels, p.ScoredLabels)
	if err != nil {
		return nil, err
	}
	auc, err := metrics.AUC(p.TrueLabels, p.Probabilities)
	if err != nil {
		return nil, err
	}
	logLoss, err := metrics.BinaryLogLoss(p.TrueLabels, p.Probabilities)
	if err != nil {
		return nil, err
	}

	return &ModelStatistics{
		Accuracy:  accuracy,
		Precision: confusion.Precision(),
		Recall:    confusion.Recall(),
		AUC:       auc,
		LogLoss:   logLoss,
		Confusion: confusion,
	}, nil
}

// Print writes the console metrics block.
func (s *ModelStatistics) Print(w io.Writer) {
	fmt.Fprintln(w, "******** MODEL METRICS ************")
	fmt.Fprintf(w, "Accuracy is %v.\n", s.Accuracy)
	fmt.Fprintf(w, "Precision is %v.\n", s.Precision)
	fmt.Fprintf(w, "Recall is %v.\n", s.Recall)
	fmt.Fprintf(w, "AUC is %v.\n", s.AUC)
	fmt.Fprintln(w, "***********************************")
}
