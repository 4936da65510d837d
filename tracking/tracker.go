// Package tracking records run metrics such as the regularization rate to
// one or more sinks.
package tracking

import (
	"context"

	"github.com/google/uuid"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
)

// Tracker receives named run metrics.
type Tracker interface {
	Log(ctx context.Context, key string, value float64) error
	Close(ctx context.Context) error
}

// NewRunID returns a fresh run identifier.
func NewRunID() string {
	return uuid.NewString()
}

// LogTracker writes each metric as a structured log line.
type LogTracker struct {
	RunID  string
	Logger log.Logger
}

// NewLogTracker returns a LogTracker for runID.
func NewLogTracker(runID string, logger log.Logger) *LogTracker {
	if logger == nil {
		logger = log.GetLoggerWithName("tracking")
	}
	return &LogTracker{RunID: runID, Logger: logger}
}

// Log implements Tracker.
func (t *LogTracker) Log(_ context.Context, key string, value float64) error {
	t.Logger.Info("run metric",
		log.RunIDKey, t.RunID,
		log.MetricKeyKey, key,
		log.MetricValueKey, value,
	)
	return nil
}

// Close implements Tracker.
func (t *LogTracker) Close(context.Context) error { return nil }

// Multi fans every call out to all trackers. Errors are combined; one failing
// sink does not stop the others.
type Multi []Tracker

// Log implements Tracker.
func (m Multi) Log(ctx context.Context, key string, value float64) error {
	var err error
	for _, t := range m {
		if e := t.Log(ctx, key, value); e != nil {
			err = errors.Combine(err, errors.Wrapf(e, "track %q", key))
		}
	}
	return err
}

// Close implements Tracker.
func (m Multi) Close(ctx context.Context) error {
	var err error
	for _, t := range m {
		err = errors.Combine(err, t.Close(ctx))
	}
	return err
}

// Recorder keeps metrics in memory.
type Recorder struct {
	Values map[string][]float64
}

// NewRecorder returns an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{Values: make(map[string][]float64)}
}

// Log implements Tracker.
func (r *Recorder) Log(_ context.Context, key string, value float64) error {
	r.Values[key] = append(r.Values[key], value)
	return nil
}

// Close implements Tracker.
func (r *Recorder) Close(context.Context) error { return nil }
