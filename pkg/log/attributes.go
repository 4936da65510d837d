// Package log defines standard attribute keys for the training pipeline.
//
// Using these keys keeps log lines from the loader, the trainer, the
// evaluator and the run tracker filterable by the same field names. Keys
// follow a hierarchical naming convention (e.g. "model.name",
// "data.samples").

package log

// Model and Operation Context
const (
	// ModelNameKey identifies the type of machine learning model.
	// Examples: "LogisticRegression", "StandardScaler", "TrainClassifier"
	ModelNameKey = "model.name"

	// OperationKey specifies the machine learning operation being performed.
	// Standard values: "fit", "predict", "transform", "score"
	OperationKey = "ml.operation"

	// ComponentKey identifies which package is performing the operation.
	// Examples: "dataset", "automl", "visualize", "tracking"
	ComponentKey = "ml.component"

	// PhaseKey indicates the phase of the pipeline.
	PhaseKey = "ml.phase"
)

// Data Shape and Characteristics
const (
	// SamplesKey indicates the number of samples (rows) in the dataset.
	SamplesKey = "data.samples"

	// FeaturesKey indicates the number of features (columns) in the dataset.
	FeaturesKey = "data.features"

	// ColumnsKey lists column names selected from a frame.
	ColumnsKey = "data.columns"

	// PathKey is a filesystem path read or written by the pipeline.
	PathKey = "data.path"

	// URLKey is a remote location the dataset was fetched from.
	URLKey = "data.url"

	// DataSizeKey indicates the size of the data in bytes.
	DataSizeKey = "data.size_bytes"
)

// Performance Metrics
const (
	// DurationMsKey records the execution time of an operation in milliseconds.
	DurationMsKey = "perf.duration_ms"

	// AccuracyKey records model accuracy for evaluation operations.
	AccuracyKey = "metrics.accuracy"

	// PrecisionKey records precision of the positive class.
	PrecisionKey = "metrics.precision"

	// RecallKey records recall of the positive class.
	RecallKey = "metrics.recall"

	// AUCKey records the area under the ROC curve.
	AUCKey = "metrics.auc"

	// LossKey records loss value during training or evaluation.
	LossKey = "metrics.loss"

	// IterationKey records the current iteration number during iterative processes.
	IterationKey = "training.iteration"
)

// Error and Warning Context
const (
	// ErrorCodeKey provides a structured error code for programmatic handling.
	ErrorCodeKey = "error.code"

	// ErrorTypeKey categorizes the type of error encountered.
	ErrorTypeKey = "error.type"

	// SuggestionKey provides helpful suggestions for resolving issues.
	SuggestionKey = "error.suggestion"
)

// Hyperparameters and Configuration
const (
	// RegularizationKey records regularization strength.
	RegularizationKey = "hyperparams.regularization"

	// NumFeaturesKey records the hashing space used for categorical columns.
	NumFeaturesKey = "hyperparams.num_features"

	// RandomSeedKey records the random seed for reproducibility.
	RandomSeedKey = "config.random_seed"

	// RunIDKey identifies one pipeline execution.
	RunIDKey = "run.id"

	// MetricKeyKey is the user-facing name of a tracked run metric.
	MetricKeyKey = "run.metric_key"

	// MetricValueKey is the value of a tracked run metric.
	MetricValueKey = "run.metric_value"
)

// Standard attribute value constants for common operations.
const (
	OperationFit       = "fit"
	OperationPredict   = "predict"
	OperationTransform = "transform"
	OperationScore     = "score"
	OperationDownload  = "download"
	OperationSplit     = "split"
	OperationSave      = "save"
	OperationPlot      = "plot"

	PhaseTraining      = "training"
	PhaseTesting       = "testing"
	PhaseInference     = "inference"
	PhasePreprocessing = "preprocessing"
	PhaseExport        = "export"

	ErrorNotFitted         = "NOT_FITTED"
	ErrorDimensionMismatch = "DIMENSION_MISMATCH"
	ErrorEmptyData         = "EMPTY_DATA"
	ErrorInvalidInput      = "INVALID_INPUT"
	ErrorConvergence       = "CONVERGENCE_FAILURE"
	ErrorPlotBackend       = "PLOT_BACKEND_UNAVAILABLE"
)
