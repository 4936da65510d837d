// Package adultcensus trains and serves a binary income classifier on the
// UCI Adult Census dataset.
//
// The command in cmd/adultcensus runs one experiment: it downloads
// AdultCensusIncome.csv when no local copy exists, keeps the education,
// marital-status and hours-per-week columns plus the income label, splits
// the rows 75/25 with seed 123 and fits a logistic regression whose
// regularization rate defaults to 0.1 and can be given as the only
// positional argument.
//
// # Packages
//
//   - dataset: download, CSV parsing, Frame and seeded RandomSplit
//   - preprocessing: label indexing, standard scaling, feature hashing
//   - sklearn/linear_model: L2-regularized logistic regression (L-BFGS)
//   - automl: TrainClassifier, predictions, model statistics, persistence
//   - metrics: accuracy, precision, recall, ROC curve and AUC
//   - visualize: ROC plot with a "Could not plot." fallback
//   - score, schema: scoring entry point and its service schema
//   - tracking: run metrics to logs, OpenTelemetry and libsql
//   - pipeline: the end-to-end run
//
// # Quick Start
//
//	adultcensus          # reg = 0.1
//	adultcensus 0.5      # reg = 0.5
//	echo '[{"education":"10th","marital-status":"Married-civ-spouse","hours-per-week":35}]' |
//	    adultcensus score --model outputs/AdultCensus.mml
//
// Outputs land in ./outputs: roc.png, AdultCensus.mml/ and
// service_schema.json.
package adultcensus
