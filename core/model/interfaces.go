// Package model provides the interfaces, fitted-state tracking and
// persistence helpers shared by the estimators in this module.
package model

import (
	"gonum.org/v1/gonum/mat"
)

// Fitter は学習可能なモデルのインターフェース
type Fitter interface {
	// Fit はモデルを訓練データで学習させる
	Fit(X, y mat.Matrix) error
}

// Predictor は予測可能なモデルのインターフェース
type Predictor interface {
	// Predict は入力データに対する予測を行う
	Predict(X mat.Matrix) (mat.Matrix, error)
}

// Classifier is a fitted-or-fittable binary or multi-class classifier.
type Classifier interface {
	Fitter
	Predictor

	// PredictProba returns probability estimates, one column per class.
	PredictProba(X mat.Matrix) (mat.Matrix, error)

	// Classes returns the class labels seen during fitting, sorted ascending.
	Classes() []int
}

// WeightExporter は重みをエクスポート可能なモデルのインターフェース
type WeightExporter interface {
	// ExportWeights はモデルの重みをエクスポート
	ExportWeights() (*ModelWeights, error)

	// ImportWeights はモデルの重みをインポート
	ImportWeights(weights *ModelWeights) error
}

// PersistableClassifier is a classifier whose learned state round-trips
// through ModelWeights.
type PersistableClassifier interface {
	Classifier
	WeightExporter
}
