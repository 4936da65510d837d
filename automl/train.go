// Package automl wires featurization and the logistic regression into a
// single trainable classifier over string-celled tables.
package automl

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
	"github.com/YuminosukeSato/adultcensus/preprocessing"
	"github.com/YuminosukeSato/adultcensus/sklearn/linear_model"
)

// TrainClassifier fits a Featurizer and a LogisticRegression on a labelled
// table.
type TrainClassifier struct {
	Model       *linear_model.LogisticRegression
	LabelCol    string
	FeatureCols []string // empty means every non-label column
	NumFeatures int      // hashed categorical space, DefaultNumFeatures when 0
	Logger      log.Logger
}

// TrainedClassifier is the fitted featurizer plus model.
type TrainedClassifier struct {
	Featurizer *preprocessing.Featurizer
	Model      *linear_model.LogisticRegression
}

// Predictions is the scored output of TrainedClassifier.Transform.
type Predictions struct {
	// Labels holds the predicted label strings.
	Labels []string
	// ScoredLabels holds the predicted class index (0 or 1).
	ScoredLabels *mat.VecDense
	// Probabilities holds P(positive) per row.
	Probabilities *mat.VecDense
	// TrueLabels holds the encoded label column, nil when the input had none.
	TrueLabels *mat.VecDense
}

// Len returns the number of scored rows.
func (p *Predictions) Len() int {
	return len(p.Labels)
}

// Fit trains on t.
func (tc *TrainClassifier) Fit(ctx context.Context, t preprocessing.Table) (*TrainedClassifier, error) {
	if tc.Model == nil {
		return nil, errors.NewValidationError("Model", "is required", nil)
	}
	numFeatures := tc.NumFeatures
	if numFeatures == 0 {
		numFeatures = preprocessing.DefaultNumFeatures
	}
	logger := tc.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("automl")
	}
	logger = logger.With(log.ModelNameKey, "TrainClassifier", log.OperationKey, log.OperationFit)

	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}

	start := time.Now()
	featurizer, err := preprocessing.NewFeaturizer(tc.LabelCol, tc.FeatureCols, numFeatures)
	if err != nil {
		return nil, err
	}
	if err := featurizer.Fit(t); err != nil {
		return nil, errors.Wrap(err, "featurize")
	}
	X, err := featurizer.Transform(t)
	if err != nil {
		return nil, errors.Wrap(err, "featurize")
	}
	y, err := featurizer.TransformLabels(t)
	if err != nil {
		return nil, errors.Wrap(err, "encode labels")
	}

	logger.Info("training classifier",
		log.SamplesKey, t.Len(),
		log.FeaturesKey, featurizer.Width(),
		log.RegularizationKey, tc.Model.RegParam(),
		log.NumFeaturesKey, numFeatures,
	)

	if err := ctx.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	if err := tc.Model.Fit(X, y); err != nil {
		return nil, errors.Wrap(err, "fit logistic regression")
	}

	logger.Info("classifier trained",
		log.IterationKey, tc.Model.NIter(),
		log.LossKey, tc.Model.Loss(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return &TrainedClassifier{Featurizer: featurizer, Model: tc.Model}, nil
}

// Transform scores every row of t. The label column is optional.
func (m *TrainedClassifier) Transform(t preprocessing.Table) (*Predictions, error) {
	X, err := m.Featurizer.Transform(t)
	if err != nil {
		return nil, err
	}
	proba, err := m.Model.PredictProba(X)
	if err != nil {
		return nil, err
	}

	n, _ := proba.Dims()
	p := &Predictions{
		Labels:        make([]string, n),
		ScoredLabels:  mat.NewVecDense(n, nil),
		Probabilities: mat.NewVecDense(n, nil),
	}
	for i := 0; i < n; i++ {
		pos := proba.At(i, 1)
		idx := 0
		if pos >= 0.5 {
			idx = 1
		}
		label, err := m.Featurizer.Labels.Label(idx)
		if err != nil {
			return nil, err
		}
		p.Labels[i] = label
		p.ScoredLabels.SetVec(i, float64(idx))
		p.Probabilities.SetVec(i, pos)
	}

	if hasColumn(t, m.Featurizer.LabelCol) {
		if p.TrueLabels, err = m.Featurizer.TransformLabels(t); err != nil {
			return nil, err
		}
	}
	return p, nil
}

func hasColumn(t preprocessing.Table, name string) bool {
	for _, c := range t.Columns() {
		if c == name {
			return true
		}
	}
	return false
}
