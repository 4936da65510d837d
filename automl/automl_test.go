package automl

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/YuminosukeSato/adultcensus/dataset"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
	"github.com/YuminosukeSato/adultcensus/sklearn/linear_model"
	"gonum.org/v1/gonum/mat"
)

// syntheticCensus builds rows where long hours and a degree mean >50K.
func syntheticCensus(t *testing.T, n int) *dataset.Frame {
	t.Helper()
	educations := []string{"Bachelors", "HS-grad", "Masters", "11th"}
	statuses := []string{"Married-civ-spouse", "Never-married", "Divorced"}

	rows := make([][]string, n)
	for i := range rows {
		edu := educations[i%len(educations)]
		status := statuses[(i/3)%len(statuses)]
		hours := 20 + (i*7)%45
		income := "<=50K"
		if (edu == "Bachelors" || edu == "Masters") && hours >= 40 {
			income = ">50K"
		}
		rows[i] = []string{edu, status, fmt.Sprint(hours), income}
	}
	f, err := dataset.NewFrame([]string{"education", "marital-status", "hours-per-week", "income"}, rows)
	if err != nil {
		t.Fatalf("NewFrame: %v", err)
	}
	return f
}

func trainSynthetic(t *testing.T) (*TrainedClassifier, *dataset.Frame, *log.TestLogger) {
	t.Helper()
	frame := syntheticCensus(t, 400)
	logger, _ := log.NewTestLogger(log.LevelDebug)

	tc := &TrainClassifier{
		Model:       linear_model.NewLogisticRegression(linear_model.WithLRRegParam(0.01)),
		LabelCol:    "income",
		NumFeatures: 64,
		Logger:      logger,
	}
	trained, err := tc.Fit(context.Background(), frame)
	if err != nil {
		t.Fatalf("Fit: %v", err)
	}
	return trained, frame, logger
}

func TestTrainClassifierFitAndEvaluate(t *testing.T) {
	trained, frame, logger := trainSynthetic(t)

	if !logger.ContainsField(log.RegularizationKey, 0.01) {
		t.Error("expected regularization to be logged")
	}
	if !logger.ContainsField(log.LossKey, trained.Model.Loss()) {
		t.Error("expected the training loss to be logged")
	}

	preds, err := trained.Transform(frame)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if preds.Len() != frame.Len() {
		t.Fatalf("Len() = %d, want %d", preds.Len(), frame.Len())
	}
	if preds.TrueLabels == nil {
		t.Fatal("TrueLabels should be set when the label column is present")
	}

	stats, err := ComputeModelStatistics(preds)
	if err != nil {
		t.Fatalf("ComputeModelStatistics: %v", err)
	}
	if stats.Accuracy < 0.8 {
		t.Errorf("Accuracy = %v, expected the synthetic rule to be learnable", stats.Accuracy)
	}
	if stats.AUC < 0.8 {
		t.Errorf("AUC = %v", stats.AUC)
	}
	if stats.LogLoss <= 0 || stats.LogLoss >= math.Ln2 {
		t.Errorf("LogLoss = %v, want below the uninformed ln 2", stats.LogLoss)
	}
	if stats.Confusion.Total() != frame.Len() {
		t.Errorf("confusion total = %d", stats.Confusion.Total())
	}

	var buf bytes.Buffer
	stats.Print(&buf)
	for _, want := range []string{"******** MODEL METRICS ************", "Accuracy is ", "Precision is ", "Recall is ", "AUC is "} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("metrics block missing %q:\n%s", want, buf.String())
		}
	}
}

func TestComputeModelStatisticsLogLoss(t *testing.T) {
	tests := []struct {
		name  string
		truth []float64
		probs []float64
		want  float64
	}{
		{"uninformed", []float64{0, 1}, []float64{0.5, 0.5}, math.Ln2},
		{"confident", []float64{0, 1, 1}, []float64{0.1, 0.9, 0.8}, -(2*math.Log(0.9) + math.Log(0.8)) / 3},
		{"certain miss is bounded", []float64{0, 1}, []float64{1, 0}, -(math.Log(1-(1-1e-15)) + math.Log(1e-15)) / 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := len(tt.truth)
			scored := make([]float64, n)
			labels := make([]string, n)
			for i, p := range tt.probs {
				labels[i] = "<=50K"
				if p > 0.5 {
					scored[i] = 1
					labels[i] = ">50K"
				}
			}
			stats, err := ComputeModelStatistics(&Predictions{
				Labels:        labels,
				ScoredLabels:  mat.NewVecDense(n, scored),
				Probabilities: mat.NewVecDense(n, tt.probs),
				TrueLabels:    mat.NewVecDense(n, tt.truth),
			})
			if err != nil {
				t.Fatalf("ComputeModelStatistics: %v", err)
			}
			if math.Abs(stats.LogLoss-tt.want) > 1e-6 {
				t.Errorf("LogLoss = %v, want %v", stats.LogLoss, tt.want)
			}
		})
	}
}

func TestTransformWithoutLabelColumn(t *testing.T) {
	trained, frame, _ := trainSynthetic(t)

	features, err := frame.Select("education", "marital-status", "hours-per-week")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	preds, err := trained.Transform(features)
	if err != nil {
		t.Fatalf("Transform: %v", err)
	}
	if preds.TrueLabels != nil {
		t.Error("TrueLabels should be nil without a label column")
	}
	for i, l := range preds.Labels {
		if l != "<=50K" && l != ">50K" {
			t.Fatalf("row %d: unexpected label %q", i, l)
		}
	}
	if _, err := ComputeModelStatistics(preds); err == nil {
		t.Error("expected error computing statistics without labels")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	trained, frame, _ := trainSynthetic(t)
	dir := filepath.Join(t.TempDir(), "AdultCensus.mml")

	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(dir, "stale.txt")
	if err := os.WriteFile(stale, []byte("old"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := trained.Save(dir); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("Save should replace the directory contents")
	}

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	want, _ := trained.Transform(frame)
	got, err := loaded.Transform(frame)
	if err != nil {
		t.Fatalf("Transform after Load: %v", err)
	}
	for i := 0; i < want.Len(); i++ {
		if want.Probabilities.AtVec(i) != got.Probabilities.AtVec(i) {
			t.Fatalf("row %d: probability %v after reload, want %v", i, got.Probabilities.AtVec(i), want.Probabilities.AtVec(i))
		}
	}

	// 2回目の保存も成功する
	if err := trained.Save(dir); err != nil {
		t.Fatalf("second Save: %v", err)
	}
}

func TestLoadMissingDirectory(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Error("expected error loading a missing model")
	}
}

func TestFitHonoursCancelledContext(t *testing.T) {
	frame := syntheticCensus(t, 20)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tc := &TrainClassifier{Model: linear_model.NewLogisticRegression(), LabelCol: "income"}
	if _, err := tc.Fit(ctx, frame); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFitRequiresModel(t *testing.T) {
	tc := &TrainClassifier{LabelCol: "income"}
	if _, err := tc.Fit(context.Background(), syntheticCensus(t, 10)); err == nil {
		t.Error("expected error without a model")
	}
}
