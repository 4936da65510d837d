// Package score is the web-service entry point for a saved census model:
// Init loads the artifact once, Run scores a JSON batch of records.
package score

import (
	"encoding/json"
	"fmt"
	"strconv"
	"sync"

	"github.com/tidwall/gjson"

	"github.com/YuminosukeSato/adultcensus/automl"
	"github.com/YuminosukeSato/adultcensus/dataset"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
)

// RunFunc scores a JSON input document and returns a JSON output document.
type RunFunc func(input string) (string, error)

// Result is one scored record.
type Result struct {
	ScoredLabels string  `json:"scored_labels"`
	Probability  float64 `json:"probability"`
}

// Scorer holds a loaded model.
type Scorer struct {
	mu     sync.RWMutex
	model  *automl.TrainedClassifier
	Logger log.Logger
}

// New returns a Scorer wrapping an already trained model.
func New(m *automl.TrainedClassifier) *Scorer {
	return &Scorer{model: m, Logger: log.GetLoggerWithName("score")}
}

// Init loads the model saved in dir, replacing any model already held.
func (s *Scorer) Init(dir string) error {
	m, err := automl.Load(dir)
	if err != nil {
		return errors.Wrapf(err, "load model from %s", dir)
	}
	s.mu.Lock()
	s.model = m
	s.mu.Unlock()

	s.logger().Info("model loaded",
		log.PathKey, dir,
		log.FeaturesKey, m.Featurizer.Width(),
	)
	return nil
}

// Run parses input as a JSON array of records keyed by feature column and
// returns a JSON array of Result in the same order.
func (s *Scorer) Run(input string) (string, error) {
	s.mu.RLock()
	m := s.model
	s.mu.RUnlock()
	if m == nil {
		return "", errors.NewNotFittedError("Scorer", "Run")
	}

	frame, err := decodeRecords(input, m.Featurizer.FeatureCols)
	if err != nil {
		return "", err
	}
	preds, err := m.Transform(frame)
	if err != nil {
		return "", errors.Wrap(err, "score records")
	}

	results := make([]Result, preds.Len())
	for i := range results {
		results[i] = Result{
			ScoredLabels: preds.Labels[i],
			Probability:  preds.Probabilities.AtVec(i),
		}
	}
	out, err := json.Marshal(results)
	if err != nil {
		return "", errors.Wrap(err, "encode scores")
	}

	s.logger().Debug("records scored", log.OperationKey, log.OperationPredict, log.SamplesKey, len(results))
	return string(out), nil
}

func (s *Scorer) logger() log.Logger {
	if s.Logger == nil {
		return log.GetLoggerWithName("score")
	}
	return s.Logger
}

func decodeRecords(input string, columns []string) (*dataset.Frame, error) {
	if !gjson.Valid(input) {
		return nil, errors.NewValueError("Scorer.Run", "input is not valid JSON")
	}
	doc := gjson.Parse(input)
	if !doc.IsArray() {
		return nil, errors.NewValueError("Scorer.Run", "input must be a JSON array of records")
	}

	records := doc.Array()
	if len(records) == 0 {
		return nil, errors.NewModelError("Scorer.Run", "no records", errors.ErrEmptyData)
	}
	rows := make([][]string, len(records))
	for i, rec := range records {
		if !rec.IsObject() {
			return nil, errors.NewValueError("Scorer.Run", fmt.Sprintf("record %d is not an object", i))
		}
		row := make([]string, len(columns))
		for j, c := range columns {
			v := rec.Get(gjson.Escape(c))
			switch v.Type {
			case gjson.String:
				row[j] = v.Str
			case gjson.Number:
				row[j] = strconv.FormatFloat(v.Num, 'f', -1, 64)
			case gjson.Null:
				return nil, errors.NewValidationError(c, fmt.Sprintf("missing in record %d", i), nil)
			default:
				return nil, errors.NewValidationError(c, fmt.Sprintf("record %d: unsupported value", i), v.Raw)
			}
		}
		rows[i] = row
	}
	return dataset.NewFrame(columns, rows)
}
