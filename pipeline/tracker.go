package pipeline

import (
	"context"

	"github.com/YuminosukeSato/adultcensus/internal/config"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
	"github.com/YuminosukeSato/adultcensus/tracking"
)

// BuildTracker returns the sinks enabled in cfg. The log sink is always
// first. On error every sink opened so far is closed.
func BuildTracker(ctx context.Context, cfg *config.Config, runID string, logger log.Logger) (tracking.Tracker, error) {
	m := tracking.Multi{tracking.NewLogTracker(runID, logger)}

	if cfg.Tracking.OTLPEnabled {
		t, err := tracking.NewOTLPTracker(ctx, tracking.OTLPConfig{
			Endpoint: cfg.Tracking.OTLPEndpoint,
			Insecure: cfg.Tracking.OTLPInsecure,
		}, runID)
		if err != nil {
			return nil, errors.Combine(err, m.Close(ctx))
		}
		m = append(m, t)
	}

	if cfg.Tracking.HistoryEnabled {
		h, err := tracking.OpenHistory(ctx, cfg.Tracking.HistoryURL, runID)
		if err != nil {
			return nil, errors.Combine(err, m.Close(ctx))
		}
		m = append(m, h)
	}
	return m, nil
}
