package dataset

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
)

const (
	// DefaultURL is the published location of the census income CSV.
	DefaultURL = "https://amldockerdatasets.azureedge.net/AdultCensusIncome.csv"

	// DefaultPath is where the CSV is cached in the working directory.
	DefaultPath = "AdultCensusIncome.csv"
)

// Loader makes the dataset available locally and parses it.
type Loader struct {
	Path   string
	URL    string
	Client *resty.Client
	Logger log.Logger
}

// NewLoader returns a Loader for path and url. A zero timeout means the
// request is bounded only by the context.
func NewLoader(path, url string, timeout time.Duration) *Loader {
	client := resty.New()
	if timeout > 0 {
		client.SetTimeout(timeout)
	}
	return &Loader{
		Path:   path,
		URL:    url,
		Client: client,
		Logger: log.GetLoggerWithName("dataset"),
	}
}

// Ensure downloads the CSV when Path does not exist. It reports whether a
// request was made. A cached file is never re-validated.
func (l *Loader) Ensure(ctx context.Context) (bool, error) {
	if _, err := os.Stat(l.Path); err == nil {
		l.logger().Debug("dataset cached", log.PathKey, l.Path)
		return false, nil
	} else if !os.IsNotExist(err) {
		return false, errors.Wrapf(err, "failed to stat %s", l.Path)
	}

	start := time.Now()
	size, err := l.download(ctx)
	if err != nil {
		return true, err
	}

	l.logger().Info("dataset downloaded",
		log.OperationKey, log.OperationDownload,
		log.URLKey, l.URL,
		log.PathKey, l.Path,
		log.DataSizeKey, size,
		log.DurationMsKey, time.Since(start).Milliseconds(),
	)
	return true, nil
}

// Load ensures the CSV is present and parses it.
func (l *Loader) Load(ctx context.Context) (*Frame, error) {
	if _, err := l.Ensure(ctx); err != nil {
		return nil, err
	}
	frame, err := LoadCSV(l.Path)
	if err != nil {
		return nil, err
	}
	l.logger().Info("dataset loaded",
		log.PathKey, l.Path,
		log.SamplesKey, frame.Len(),
		log.FeaturesKey, len(frame.Columns()),
	)
	return frame, nil
}

// download streams the body to a temporary file next to Path and renames it
// into place, so a failed transfer never leaves a partial cache behind.
func (l *Loader) download(ctx context.Context) (int64, error) {
	client := l.Client
	if client == nil {
		client = resty.New()
	}

	resp, err := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		Get(l.URL)
	if err != nil {
		return 0, errors.NewDownloadError(l.URL, 0, err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.IsError() || resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return 0, errors.NewDownloadError(l.URL, resp.StatusCode(), nil)
	}

	dir := filepath.Dir(l.Path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, errors.Wrapf(err, "failed to create %s", dir)
	}
	tmp, err := os.CreateTemp(dir, filepath.Base(l.Path)+".*.part")
	if err != nil {
		return 0, errors.Wrap(err, "failed to create temporary file")
	}
	defer os.Remove(tmp.Name())

	size, err := io.Copy(tmp, body)
	if err != nil {
		_ = tmp.Close()
		return 0, errors.NewDownloadError(l.URL, resp.StatusCode(), err)
	}
	if err := tmp.Close(); err != nil {
		return 0, errors.Wrap(err, "failed to close temporary file")
	}
	if err := os.Rename(tmp.Name(), l.Path); err != nil {
		return 0, errors.Wrapf(err, "failed to move download to %s", l.Path)
	}
	return size, nil
}

func (l *Loader) logger() log.Logger {
	if l.Logger == nil {
		return log.GetLoggerWithName("dataset")
	}
	return l.Logger
}
