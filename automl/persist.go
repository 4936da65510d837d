package automl

import (
	"os"
	"path/filepath"

	"github.com/YuminosukeSato/adultcensus/core/model"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/preprocessing"
	"github.com/YuminosukeSato/adultcensus/sklearn/linear_model"
)

// Files inside a saved model directory.
const (
	MetadataFile = "metadata.json"
	StagesFile   = "stages.gob"
)

// Save writes the model to dir, replacing anything already there.
func (m *TrainedClassifier) Save(dir string) error {
	weights, err := m.Model.ExportWeights()
	if err != nil {
		return err
	}
	weights.Features = m.Featurizer.FeatureNames()
	weights.Metadata["label_col"] = m.Featurizer.LabelCol
	weights.Metadata["labels"] = m.Featurizer.Labels.Labels

	if err := os.RemoveAll(dir); err != nil {
		return errors.Wrapf(err, "failed to remove %s", dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", dir)
	}

	if err := weights.SaveJSON(filepath.Join(dir, MetadataFile)); err != nil {
		return err
	}
	return model.SaveModel(m.Featurizer, filepath.Join(dir, StagesFile))
}

// Load reads a model written by Save.
func Load(dir string) (*TrainedClassifier, error) {
	weights, err := model.LoadWeightsJSON(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, err
	}
	lr := linear_model.NewLogisticRegression()
	if err := lr.ImportWeights(weights); err != nil {
		return nil, err
	}

	featurizer := &preprocessing.Featurizer{}
	if err := model.LoadModel(featurizer, filepath.Join(dir, StagesFile)); err != nil {
		return nil, err
	}
	if featurizer.Width() != len(weights.Coefficients) {
		return nil, errors.NewDimensionError("automl.Load", featurizer.Width(), len(weights.Coefficients), 1)
	}
	return &TrainedClassifier{Featurizer: featurizer, Model: lr}, nil
}
