// Package visualize renders evaluation curves to image files.
package visualize

import (
	"fmt"
	"image/color"
	"io"
	"os"
	"path/filepath"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/adultcensus/metrics"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"github.com/YuminosukeSato/adultcensus/pkg/log"
)

// FallbackMessage is printed when the backend cannot render the curve.
const FallbackMessage = "Could not plot."

// Curve is a sequence of ROC points.
type Curve struct {
	FPR []float64
	TPR []float64
}

// Backend renders a ROC curve to path.
type Backend interface {
	RenderROC(curve Curve, path string) error
}

// GonumBackend renders with gonum/plot. The file format follows the path
// extension (png, svg, pdf ...).
type GonumBackend struct {
	Width    vg.Length
	Height   vg.Length
	FontSize vg.Length
}

// NewGonumBackend returns a 6x4.5 inch backend with 16pt text.
func NewGonumBackend() *GonumBackend {
	return &GonumBackend{
		Width:    6 * vg.Inch,
		Height:   4.5 * vg.Inch,
		FontSize: vg.Points(16),
	}
}

// RenderROC draws the curve as a blue line labelled "ROC Curve" with the
// legend in the lower right corner.
func (b *GonumBackend) RenderROC(curve Curve, path string) error {
	if len(curve.FPR) != len(curve.TPR) || len(curve.FPR) < 2 {
		return errors.NewValueError("GonumBackend.RenderROC", "curve needs at least two matching points")
	}

	p := plot.New()
	p.X.Label.Text = "False Positive Rate"
	p.Y.Label.Text = "True Positive Rate"
	p.X.Min, p.X.Max = 0, 1
	p.Y.Min, p.Y.Max = 0, 1
	for _, s := range []*vg.Length{
		&p.X.Label.TextStyle.Font.Size,
		&p.Y.Label.TextStyle.Font.Size,
		&p.X.Tick.Label.Font.Size,
		&p.Y.Tick.Label.Font.Size,
		&p.Legend.TextStyle.Font.Size,
	} {
		*s = b.FontSize
	}

	pts := make(plotter.XYs, len(curve.FPR))
	for i := range pts {
		pts[i].X = curve.FPR[i]
		pts[i].Y = curve.TPR[i]
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return errors.Wrap(err, "build ROC line")
	}
	line.Color = color.RGBA{B: 255, A: 255}
	line.Width = vg.Points(1.5)

	p.Add(line)
	p.Legend.Add("ROC Curve", line)
	p.Legend.Top = false
	p.Legend.Left = false
	p.Legend.XOffs = -vg.Points(8)
	p.Legend.YOffs = vg.Points(8)
	p.Legend.ThumbnailWidth = vg.Points(24)
	p.Legend.Padding = vg.Points(2)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "failed to create %s", filepath.Dir(path))
	}
	if err := p.Save(b.Width, b.Height, path); err != nil {
		return errors.Wrapf(err, "save %s", path)
	}
	return nil
}

// PlotROC computes the ROC curve of scores against yTrue and renders it to
// path through backend.
//
// Curve computation errors are returned. Any error or panic from the backend
// is recovered: FallbackMessage is written to out, the cause is logged, and
// PlotROC returns (false, nil).
func PlotROC(backend Backend, yTrue, scores *mat.VecDense, path string, out io.Writer, logger log.Logger) (bool, error) {
	fpr, tpr, _, err := metrics.ROCCurve(yTrue, scores)
	if err != nil {
		return false, err
	}
	if logger == nil {
		logger = log.GetLoggerWithName("visualize")
	}

	err = errors.SafeExecute("visualize.PlotROC", func() error {
		if backend == nil {
			return errors.New("no plotting backend configured")
		}
		return backend.RenderROC(Curve{FPR: fpr, TPR: tpr}, path)
	})
	if err != nil {
		fmt.Fprintln(out, FallbackMessage)
		logger.Warn("ROC plot skipped",
			log.OperationKey, log.OperationPlot,
			log.ErrorCodeKey, log.ErrorPlotBackend,
			log.PathKey, path,
			log.ErrAttrKey, err.Error(),
		)
		return false, nil
	}

	logger.Info("ROC plot written", log.OperationKey, log.OperationPlot, log.PathKey, path)
	return true, nil
}
