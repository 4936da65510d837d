// Package pipeline runs the census income experiment end to end: fetch,
// split, train, evaluate, plot, save and export the service schema.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/YuminosukeSato/adultcensus/automl"
	"github.com/YuminosukeSato/adultcensus/dataset"
	"github.com/YuminosukeSato/adultcensus/internal/config"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
	"github.com/YuminosukeSato/adultcensus/schema"
	"github.com/YuminosukeSato/adultcensus/score"
	"github.com/YuminosukeSato/adultcensus/sklearn/linear_model"
	"github.com/YuminosukeSato/adultcensus/tracking"
	"github.com/YuminosukeSato/adultcensus/visualize"
)

// RegularizationMetric is the run metric carrying the regularization rate.
const RegularizationMetric = "Regularization Rate"

// PreviewRows is how many training rows are echoed to the console.
const PreviewRows = 10

// SchemaInput names the single scoring input in the service schema.
const SchemaInput = "input_df"

// SampleRecord is the example scoring input written into the schema.
var SampleRecord = map[string]string{
	"education":      "10th",
	"marital-status": "Married-civ-spouse",
	"hours-per-week": "35.0",
}

// Pipeline holds the collaborators of one run.
type Pipeline struct {
	Config  *config.Config
	Out     io.Writer
	Logger  log.Logger
	Tracker tracking.Tracker
	Plotter visualize.Backend
	Loader  *dataset.Loader
	RunID   string
}

// Result summarizes a completed run.
type Result struct {
	RunID      string
	TrainRows  int
	TestRows   int
	Stats      *automl.ModelStatistics
	Model      *automl.TrainedClassifier
	Plotted    bool
	ModelDir   string
	SchemaPath string
}

// New returns a Pipeline for cfg with the default loader, plot backend and a
// log-only tracker. Callers may replace any field before Run.
func New(cfg *config.Config, out io.Writer) *Pipeline {
	runID := tracking.NewRunID()
	logger := log.GetLoggerWithName("pipeline").With(log.RunIDKey, runID)
	loader := dataset.NewLoader(cfg.DataPath, cfg.DataURL, cfg.DownloadTimeout)
	loader.Logger = logger
	return &Pipeline{
		Config:  cfg,
		Out:     out,
		Logger:  logger,
		Tracker: tracking.NewLogTracker(runID, logger),
		Plotter: visualize.NewGonumBackend(),
		Loader:  loader,
		RunID:   runID,
	}
}

// Run executes every step in order. Only a plotting failure is tolerated.
func (p *Pipeline) Run(ctx context.Context) (*Result, error) {
	cfg := p.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	start := time.Now()
	logger := p.Logger
	if logger == nil {
		logger = log.GetLoggerWithName("pipeline")
	}
	out := p.Out
	if out == nil {
		out = io.Discard
	}
	res := &Result{RunID: p.RunID, ModelDir: cfg.ModelDir(), SchemaPath: cfg.SchemaPath()}
	if p.Loader == nil {
		p.Loader = dataset.NewLoader(cfg.DataPath, cfg.DataURL, cfg.DownloadTimeout)
	}

	// load
	logger.Info("loading dataset", log.PhaseKey, log.PhasePreprocessing, log.PathKey, cfg.DataPath)
	frame, err := p.Loader.Load(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load dataset")
	}
	cols := append(append([]string{}, cfg.FeatureCols...), cfg.LabelCol)
	frame, err = frame.Select(cols...)
	if err != nil {
		return nil, errors.Wrap(err, "select columns")
	}

	// split
	parts, err := frame.RandomSplit(cfg.SplitWeights, cfg.Seed)
	if err != nil {
		return nil, errors.Wrap(err, "split dataset")
	}
	train, test := parts[0], parts[1]
	res.TrainRows, res.TestRows = train.Len(), test.Len()
	logger.Info("dataset split",
		log.OperationKey, log.OperationSplit,
		log.RandomSeedKey, cfg.Seed,
		"train_rows", train.Len(),
		"test_rows", test.Len(),
	)

	fmt.Fprintln(out, "********* TRAINING DATA ***********")
	fmt.Fprint(out, train.Head(PreviewRows).String())
	fmt.Fprintf(out, "Regularization Rate is %s.\n", formatFloat(cfg.RegParam))

	// train
	tc := &automl.TrainClassifier{
		Model: linear_model.NewLogisticRegression(
			linear_model.WithLRRegParam(cfg.RegParam),
			linear_model.WithLRMaxIter(cfg.MaxIter),
			linear_model.WithLRTol(cfg.Tol),
		),
		LabelCol:    cfg.LabelCol,
		FeatureCols: cfg.FeatureCols,
		NumFeatures: cfg.NumFeatures,
		Logger:      logger,
	}
	trained, err := tc.Fit(ctx, train)
	if err != nil {
		return nil, errors.Wrap(err, "train classifier")
	}
	res.Model = trained
	if p.Tracker != nil {
		if err := p.Tracker.Log(ctx, RegularizationMetric, cfg.RegParam); err != nil {
			return nil, errors.Wrap(err, "track regularization")
		}
	}

	// evaluate
	preds, err := trained.Transform(test)
	if err != nil {
		return nil, errors.Wrap(err, "score test set")
	}
	stats, err := automl.ComputeModelStatistics(preds)
	if err != nil {
		return nil, errors.Wrap(err, "compute model statistics")
	}
	res.Stats = stats
	stats.Print(out)
	logger.Info("model evaluated",
		log.OperationKey, log.OperationScore,
		log.SamplesKey, preds.Len(),
		log.AccuracyKey, stats.Accuracy,
		log.PrecisionKey, stats.Precision,
		log.RecallKey, stats.Recall,
		log.AUCKey, stats.AUC,
		log.LossKey, stats.LogLoss,
	)

	if err := os.MkdirAll(cfg.OutputsDir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "failed to create %s", cfg.OutputsDir)
	}

	// plot
	res.Plotted, err = visualize.PlotROC(p.Plotter, preds.TrueLabels, preds.Probabilities, cfg.ROCPath(), out, logger)
	if err != nil {
		return nil, errors.Wrap(err, "compute ROC curve")
	}

	// save
	fmt.Fprintln(out, "******** SAVE THE MODEL ***********")
	if err := trained.Save(res.ModelDir); err != nil {
		return nil, errors.Wrap(err, "save model")
	}
	logger.Info("model saved", log.OperationKey, log.OperationSave, log.PathKey, res.ModelDir)

	// schema
	sample, err := sampleFrame(cfg.FeatureCols, test)
	if err != nil {
		return nil, err
	}
	scorer := &score.Scorer{Logger: logger}
	if err := scorer.Init(res.ModelDir); err != nil {
		return nil, err
	}
	if _, err := schema.Generate(scorer.Run, map[string]schema.SampleDefinition{
		SchemaInput: {DataType: schema.DataFrame, Sample: sample},
	}, res.SchemaPath); err != nil {
		return nil, errors.Wrap(err, "generate service schema")
	}
	logger.Info("service schema written", log.PathKey, res.SchemaPath)

	logger.Info("run complete", log.DurationMsKey, time.Since(start).Milliseconds())
	return res, nil
}

// sampleFrame builds the one-row schema sample from SampleRecord, taking any
// column it lacks from the first row of fallback.
func sampleFrame(cols []string, fallback *dataset.Frame) (*dataset.Frame, error) {
	row := make([]string, len(cols))
	for i, c := range cols {
		if v, ok := SampleRecord[c]; ok {
			row[i] = v
			continue
		}
		if fallback.Len() == 0 {
			return nil, errors.NewValueError("sampleFrame", fmt.Sprintf("no sample value for column %q", c))
		}
		values, err := fallback.Column(c)
		if err != nil {
			return nil, err
		}
		row[i] = values[0]
	}
	return dataset.NewFrame(cols, [][]string{row})
}

// formatFloat always shows a fractional part, so 1 prints as 1.0.
func formatFloat(v float64) string {
	s := strconv.FormatFloat(v, 'g', -1, 64)
	if strings.ContainsAny(s, ".eIN") {
		return s
	}
	return s + ".0"
}
