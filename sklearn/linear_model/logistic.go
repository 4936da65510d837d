// Package linear_model provides the binary logistic regression used by the
// income classifier.
package linear_model

import (
	"fmt"
	"math"
	"sort"

	"github.com/YuminosukeSato/adultcensus/core/model"
	"github.com/YuminosukeSato/adultcensus/core/parallel"
	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

const (
	// DefaultRegParam is the L2 strength used when none is configured.
	DefaultRegParam = 0.1

	logisticModelType = "LogisticRegression"
)

// LogisticRegression is an L2-regularized binary logistic regression.
//
// The objective is the mean log-loss plus regParam/2 * ||w||^2; the intercept
// is not penalized. A regParam of 0 disables the penalty. The penalty applies
// to w as given, not to w rescaled by per-column standard deviation. Optimization
// uses L-BFGS with the gradient summed over row chunks in parallel.
type LogisticRegression struct {
	state *model.StateManager

	// Hyperparameters
	regParam          float64 // L2 strength (lambda)
	fitIntercept      bool
	maxIter           int
	tol               float64 // gradient norm threshold
	parallelThreshold int     // rows above which gradients are computed in parallel

	// Model parameters
	coef_      []float64
	intercept_ float64
	classes_   []int
	nIter_     int
	loss_      float64
}

// LogisticRegressionOption is a functional option for LogisticRegression
type LogisticRegressionOption func(*LogisticRegression)

// NewLogisticRegression creates a new LogisticRegression classifier
func NewLogisticRegression(opts ...LogisticRegressionOption) *LogisticRegression {
	lr := &LogisticRegression{
		state:             model.NewStateManager(),
		regParam:          DefaultRegParam,
		fitIntercept:      true,
		maxIter:           100,
		tol:               1e-6,
		parallelThreshold: 2048,
	}

	for _, opt := range opts {
		opt(lr)
	}
	return lr
}

// WithLRRegParam sets the L2 regularization strength.
func WithLRRegParam(reg float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.regParam = reg
	}
}

// WithLRC sets the inverse regularization strength (regParam = 1/C).
func WithLRC(c float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		if c > 0 {
			lr.regParam = 1 / c
		}
	}
}

// WithLogisticFitIntercept sets whether to fit intercept
func WithLogisticFitIntercept(fit bool) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.fitIntercept = fit
	}
}

// WithLRMaxIter sets the maximum number of L-BFGS iterations
func WithLRMaxIter(maxIter int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.maxIter = maxIter
	}
}

// WithLRTol sets the gradient norm at which optimization stops
func WithLRTol(tol float64) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.tol = tol
	}
}

// WithLRParallelThreshold sets the row count above which gradient sums are
// computed in parallel.
func WithLRParallelThreshold(rows int) LogisticRegressionOption {
	return func(lr *LogisticRegression) {
		lr.parallelThreshold = rows
	}
}

// Fit trains the model on X (n_samples x n_features) and y (n_samples x 1).
// y must hold exactly two distinct integer labels; the larger one is the
// positive class.
func (lr *LogisticRegression) Fit(X, y mat.Matrix) error {
	if err := lr.validateParams(); err != nil {
		return err
	}

	nSamples, nFeatures := X.Dims()
	yRows, yCols := y.Dims()
	if nSamples == 0 || nFeatures == 0 {
		return errors.NewModelError("LogisticRegression.Fit", "empty data", errors.ErrEmptyData)
	}
	if nSamples != yRows {
		return errors.NewDimensionError("LogisticRegression.Fit", nSamples, yRows, 0)
	}
	if yCols != 1 {
		return errors.NewDimensionError("LogisticRegression.Fit", 1, yCols, 1)
	}

	classes, err := extractClasses(y)
	if err != nil {
		return err
	}

	Xd := mat.DenseCopyOf(X)
	target := make([]float64, nSamples)
	for i := range target {
		if int(y.At(i, 0)) == classes[1] {
			target[i] = 1
		}
	}

	lr.state.Reset()
	lr.classes_ = classes

	obj := &logisticObjective{
		X:            Xd,
		y:            target,
		regParam:     lr.regParam,
		fitIntercept: lr.fitIntercept,
		threshold:    lr.parallelThreshold,
	}

	problem := optimize.Problem{
		Func: obj.Func,
		Grad: obj.Grad,
	}
	settings := &optimize.Settings{
		GradientThreshold: lr.tol,
		MajorIterations:   lr.maxIter,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Iterations: 20,
		},
	}

	result, err := optimize.Minimize(problem, make([]float64, nFeatures+1), settings, &optimize.LBFGS{})
	if result == nil {
		return errors.NewModelError("LogisticRegression.Fit", "optimization failed", err)
	}
	if err := errors.CheckNumericalStability("LogisticRegression.Fit", result.X, result.Stats.MajorIterations); err != nil {
		return err
	}
	if err := errors.CheckScalar("LogisticRegression.Fit", result.F, result.Stats.MajorIterations); err != nil {
		return err
	}

	switch {
	case err != nil:
		errors.Warn(errors.NewConvergenceWarning(logisticModelType, result.Stats.MajorIterations, err.Error()))
	case result.Status == optimize.IterationLimit:
		errors.Warn(errors.NewConvergenceWarning(logisticModelType, result.Stats.MajorIterations,
			"maximum iterations reached before the gradient fell below tolerance"))
	}

	lr.coef_ = append([]float64(nil), result.X[:nFeatures]...)
	lr.intercept_ = result.X[nFeatures]
	lr.nIter_ = result.Stats.MajorIterations
	lr.loss_ = result.F

	lr.state.SetDimensions(nFeatures, nSamples)
	lr.state.SetFitted()
	return nil
}

func (lr *LogisticRegression) validateParams() error {
	if lr.regParam < 0 || math.IsNaN(lr.regParam) || math.IsInf(lr.regParam, 0) {
		return errors.NewValidationError("regParam", "must be a finite non-negative number", lr.regParam)
	}
	if lr.maxIter <= 0 {
		return errors.NewValidationError("maxIter", "must be positive", lr.maxIter)
	}
	if lr.tol <= 0 {
		return errors.NewValidationError("tol", "must be positive", lr.tol)
	}
	return nil
}

// extractClasses returns the two distinct labels of y, sorted ascending.
func extractClasses(y mat.Matrix) ([]int, error) {
	rows, _ := y.Dims()
	seen := make(map[int]struct{})
	for i := 0; i < rows; i++ {
		v := y.At(i, 0)
		if v != math.Trunc(v) {
			return nil, errors.NewValueError("LogisticRegression.Fit", fmt.Sprintf("label %v is not an integer", v))
		}
		seen[int(v)] = struct{}{}
	}

	classes := make([]int, 0, len(seen))
	for c := range seen {
		classes = append(classes, c)
	}
	sort.Ints(classes)

	if len(classes) != 2 {
		return nil, errors.NewValueError("LogisticRegression.Fit",
			fmt.Sprintf("binary classification requires exactly 2 classes, got %d", len(classes)))
	}
	return classes, nil
}

// logisticObjective evaluates the regularized mean log-loss over
// x = [w..., b].
type logisticObjective struct {
	X            *mat.Dense
	y            []float64
	regParam     float64
	fitIntercept bool
	threshold    int
}

type partialGrad struct {
	loss float64
	grad []float64
}

func (o *logisticObjective) margin(row []float64, x []float64) float64 {
	nFeatures := len(row)
	z := floats.Dot(row, x[:nFeatures])
	if o.fitIntercept {
		z += x[nFeatures]
	}
	return z
}

// Func returns the objective value at x.
func (o *logisticObjective) Func(x []float64) float64 {
	nSamples, nFeatures := o.X.Dims()
	loss := parallel.MapReduce(nSamples, o.threshold,
		func(start, end int) float64 {
			var s float64
			for i := start; i < end; i++ {
				s += logLoss(o.margin(o.X.RawRowView(i), x), o.y[i])
			}
			return s
		},
		func(acc, part float64) float64 { return acc + part },
	)

	w := x[:nFeatures]
	return loss/float64(nSamples) + 0.5*o.regParam*floats.Dot(w, w)
}

// Grad writes the gradient of Func at x into grad.
func (o *logisticObjective) Grad(grad, x []float64) {
	nSamples, nFeatures := o.X.Dims()
	sum := parallel.MapReduce(nSamples, o.threshold,
		func(start, end int) partialGrad {
			p := partialGrad{grad: make([]float64, nFeatures+1)}
			for i := start; i < end; i++ {
				row := o.X.RawRowView(i)
				residual := sigmoid(o.margin(row, x)) - o.y[i]
				floats.AddScaled(p.grad[:nFeatures], residual, row)
				p.grad[nFeatures] += residual
			}
			return p
		},
		func(acc, part partialGrad) partialGrad {
			floats.Add(acc.grad, part.grad)
			return acc
		},
	)

	inv := 1 / float64(nSamples)
	for j := 0; j < nFeatures; j++ {
		grad[j] = sum.grad[j]*inv + o.regParam*x[j]
	}
	if o.fitIntercept {
		grad[nFeatures] = sum.grad[nFeatures] * inv
	} else {
		grad[nFeatures] = 0
	}
}

// logLoss is log(1+exp(z)) - y*z computed without overflow.
func logLoss(z, y float64) float64 {
	if z > 0 {
		return z + math.Log1p(math.Exp(-z)) - y*z
	}
	return math.Log1p(math.Exp(z)) - y*z
}

// DecisionFunction returns the raw margin w·x + b for every row.
func (lr *LogisticRegression) DecisionFunction(X mat.Matrix) (*mat.VecDense, error) {
	if err := lr.state.RequireFitted(logisticModelType, "DecisionFunction"); err != nil {
		return nil, err
	}
	nSamples, nFeatures := X.Dims()
	if err := lr.state.RequireFeatures("LogisticRegression.DecisionFunction", nFeatures); err != nil {
		return nil, err
	}

	out := mat.NewVecDense(nSamples, nil)
	parallel.ParallelizeWithThreshold(nSamples, lr.parallelThreshold, func(start, end int) {
		row := make([]float64, nFeatures)
		for i := start; i < end; i++ {
			mat.Row(row, i, X)
			out.SetVec(i, floats.Dot(row, lr.coef_)+lr.intercept_)
		}
	})
	return out, nil
}

// Predict makes predictions for input data
func (lr *LogisticRegression) Predict(X mat.Matrix) (mat.Matrix, error) {
	margins, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	n := margins.Len()
	predictions := mat.NewDense(n, 1, nil)
	for i := 0; i < n; i++ {
		if sigmoid(margins.AtVec(i)) >= 0.5 {
			predictions.Set(i, 0, float64(lr.classes_[1]))
		} else {
			predictions.Set(i, 0, float64(lr.classes_[0]))
		}
	}
	return predictions, nil
}

// PredictProba returns probability estimates for each class
// (column 0 negative, column 1 positive).
func (lr *LogisticRegression) PredictProba(X mat.Matrix) (mat.Matrix, error) {
	margins, err := lr.DecisionFunction(X)
	if err != nil {
		return nil, err
	}

	n := margins.Len()
	probas := mat.NewDense(n, 2, nil)
	for i := 0; i < n; i++ {
		p := sigmoid(margins.AtVec(i))
		probas.Set(i, 0, 1-p)
		probas.Set(i, 1, p)
	}
	return probas, nil
}

// Score returns the mean accuracy on the given test data and labels
func (lr *LogisticRegression) Score(X, y mat.Matrix) (float64, error) {
	predictions, err := lr.Predict(X)
	if err != nil {
		return 0, err
	}

	nSamples, _ := X.Dims()
	correct := 0
	for i := 0; i < nSamples; i++ {
		if predictions.At(i, 0) == y.At(i, 0) {
			correct++
		}
	}
	return float64(correct) / float64(nSamples), nil
}

// Classes returns the class labels seen during fitting, sorted ascending.
func (lr *LogisticRegression) Classes() []int {
	return append([]int(nil), lr.classes_...)
}

// Coef returns a copy of the fitted coefficients.
func (lr *LogisticRegression) Coef() []float64 {
	return append([]float64(nil), lr.coef_...)
}

// Intercept returns the fitted intercept.
func (lr *LogisticRegression) Intercept() float64 {
	return lr.intercept_
}

// NIter returns the number of L-BFGS iterations run by the last Fit.
func (lr *LogisticRegression) NIter() int {
	return lr.nIter_
}

// Loss returns the regularized training objective at the fitted solution.
func (lr *LogisticRegression) Loss() float64 {
	return lr.loss_
}

// RegParam returns the configured L2 strength.
func (lr *LogisticRegression) RegParam() float64 {
	return lr.regParam
}

// IsFitted reports whether Fit or ImportWeights has completed.
func (lr *LogisticRegression) IsFitted() bool {
	return lr.state.IsFitted()
}

// GetParams returns the model hyperparameters
func (lr *LogisticRegression) GetParams() map[string]interface{} {
	return map[string]interface{}{
		"reg_param":     lr.regParam,
		"fit_intercept": lr.fitIntercept,
		"max_iter":      lr.maxIter,
		"tol":           lr.tol,
	}
}

// SetParams sets the model hyperparameters
func (lr *LogisticRegression) SetParams(params map[string]interface{}) error {
	for key, value := range params {
		var ok bool
		switch key {
		case "reg_param":
			lr.regParam, ok = value.(float64)
		case "fit_intercept":
			lr.fitIntercept, ok = value.(bool)
		case "max_iter":
			lr.maxIter, ok = value.(int)
		case "tol":
			lr.tol, ok = value.(float64)
		default:
			return errors.NewValidationError(key, "unknown parameter", value)
		}
		if !ok {
			return errors.NewValidationError(key, "has the wrong type", value)
		}
	}
	return nil
}

// ExportWeights exports the fitted parameters.
func (lr *LogisticRegression) ExportWeights() (*model.ModelWeights, error) {
	if err := lr.state.RequireFitted(logisticModelType, "ExportWeights"); err != nil {
		return nil, err
	}
	nFeatures, nSamples := lr.state.GetDimensions()

	return &model.ModelWeights{
		ModelType:       logisticModelType,
		Version:         model.WeightsVersion,
		Coefficients:    lr.Coef(),
		Intercept:       lr.intercept_,
		Classes:         lr.Classes(),
		Hyperparameters: lr.GetParams(),
		Metadata: map[string]interface{}{
			"n_features": nFeatures,
			"n_samples":  nSamples,
			"n_iter":     lr.nIter_,
		},
		IsFitted: true,
	}, nil
}

// ImportWeights restores a model exported with ExportWeights.
func (lr *LogisticRegression) ImportWeights(weights *model.ModelWeights) error {
	if weights == nil {
		return errors.NewValueError("LogisticRegression.ImportWeights", "weights are nil")
	}
	if err := weights.Validate(); err != nil {
		return err
	}
	if weights.ModelType != logisticModelType {
		return errors.NewValidationError("model_type", "expected "+logisticModelType, weights.ModelType)
	}
	if len(weights.Classes) != 2 {
		return errors.NewValidationError("classes", "binary model requires 2 classes", weights.Classes)
	}

	// JSON decodes numbers as float64
	if v, ok := weights.Hyperparameters["reg_param"].(float64); ok {
		lr.regParam = v
	}
	if v, ok := weights.Hyperparameters["fit_intercept"].(bool); ok {
		lr.fitIntercept = v
	}
	if v, ok := weights.Hyperparameters["tol"].(float64); ok {
		lr.tol = v
	}
	switch v := weights.Hyperparameters["max_iter"].(type) {
	case int:
		lr.maxIter = v
	case float64:
		lr.maxIter = int(v)
	}

	lr.coef_ = append([]float64(nil), weights.Coefficients...)
	lr.intercept_ = weights.Intercept
	lr.classes_ = append([]int(nil), weights.Classes...)

	nSamples := 0
	if v, ok := weights.Metadata["n_samples"].(float64); ok {
		nSamples = int(v)
	}
	lr.state.Reset()
	lr.state.SetDimensions(len(lr.coef_), nSamples)
	lr.state.SetFitted()
	return nil
}

// String returns a short description of the model.
func (lr *LogisticRegression) String() string {
	if !lr.state.IsFitted() {
		return fmt.Sprintf("LogisticRegression(reg_param=%g, max_iter=%d)", lr.regParam, lr.maxIter)
	}
	return fmt.Sprintf("LogisticRegression(reg_param=%g, max_iter=%d, n_features=%d, n_iter=%d)",
		lr.regParam, lr.maxIter, len(lr.coef_), lr.nIter_)
}

// sigmoid computes the sigmoid function
func sigmoid(z float64) float64 {
	if z >= 0 {
		return 1.0 / (1.0 + math.Exp(-z))
	}
	e := math.Exp(z)
	return e / (1.0 + e)
}

var _ model.PersistableClassifier = (*LogisticRegression)(nil)
