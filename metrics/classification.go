package metrics

import (
	"math"
	"sort"

	"github.com/YuminosukeSato/adultcensus/pkg/errors"
	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// logLossEpsilon は対数損失で確率をクリップする幅
const logLossEpsilon = 1e-15

// BinaryConfusion は二値分類の混同行列（正例ラベルは1）
type BinaryConfusion struct {
	TruePositives  int
	FalsePositives int
	TrueNegatives  int
	FalseNegatives int
}

// Total は集計したサンプル数を返す
func (c BinaryConfusion) Total() int {
	return c.TruePositives + c.FalsePositives + c.TrueNegatives + c.FalseNegatives
}

func checkPair(op string, yTrue, yPred *mat.VecDense) (int, error) {
	if yTrue == nil || yPred == nil {
		return 0, errors.NewValueError(op, "empty vector")
	}
	n := yTrue.Len()
	if n == 0 {
		return 0, errors.NewValueError(op, "empty vector")
	}
	if yPred.Len() != n {
		return 0, errors.NewDimensionError(op, n, yPred.Len(), 0)
	}
	return n, nil
}

func checkBinaryLabels(op string, yTrue *mat.VecDense) error {
	for i := 0; i < yTrue.Len(); i++ {
		if v := yTrue.AtVec(i); v != 0 && v != 1 {
			return errors.NewValueError(op, "labels must be 0 or 1")
		}
	}
	return nil
}

// Accuracy は正解率を計算する
func Accuracy(yTrue, yPred *mat.VecDense) (float64, error) {
	n, err := checkPair("Accuracy", yTrue, yPred)
	if err != nil {
		return 0, err
	}

	correct := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == yPred.AtVec(i) {
			correct++
		}
	}
	return float64(correct) / float64(n), nil
}

// ConfusionMatrix は二値ラベル（0/1）の混同行列を集計する
func ConfusionMatrix(yTrue, yPred *mat.VecDense) (BinaryConfusion, error) {
	var c BinaryConfusion
	n, err := checkPair("ConfusionMatrix", yTrue, yPred)
	if err != nil {
		return c, err
	}
	if err := checkBinaryLabels("ConfusionMatrix", yTrue); err != nil {
		return c, err
	}

	for i := 0; i < n; i++ {
		actual := yTrue.AtVec(i) == 1
		predicted := yPred.AtVec(i) == 1
		switch {
		case actual && predicted:
			c.TruePositives++
		case !actual && predicted:
			c.FalsePositives++
		case actual && !predicted:
			c.FalseNegatives++
		default:
			c.TrueNegatives++
		}
	}
	return c, nil
}

// Precision は適合率 TP / (TP + FP) を計算する
//
// 正例の予測が1件もない場合は0を返し、UndefinedMetricWarningを発行する。
func Precision(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "Precision")
	}
	return c.Precision(), nil
}

// Recall は再現率 TP / (TP + FN) を計算する
//
// 正例が1件もない場合は0を返し、UndefinedMetricWarningを発行する。
func Recall(yTrue, yPred *mat.VecDense) (float64, error) {
	c, err := ConfusionMatrix(yTrue, yPred)
	if err != nil {
		return 0, errors.Wrap(err, "Recall")
	}
	return c.Recall(), nil
}

// Precision returns TP / (TP + FP), or 0 with a warning when nothing was
// predicted positive.
func (c BinaryConfusion) Precision() float64 {
	denom := c.TruePositives + c.FalsePositives
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("precision", "no predicted positive samples", 0))
		return 0
	}
	return float64(c.TruePositives) / float64(denom)
}

// Recall returns TP / (TP + FN), or 0 with a warning when there are no
// positive samples.
func (c BinaryConfusion) Recall() float64 {
	denom := c.TruePositives + c.FalseNegatives
	if denom == 0 {
		errors.Warn(errors.NewUndefinedMetricWarning("recall", "no positive samples", 0))
		return 0
	}
	return float64(c.TruePositives) / float64(denom)
}

// ROCCurve はROC曲線の点列を返す
//
// 戻り値:
//   - fpr, tpr: 偽陽性率と真陽性率。(0,0)から始まり(1,1)で終わる
//   - thresholds: 各点の閾値（降順、先頭は+Inf）。同じスコアは1点にまとめる
//
// 正例と負例の両方が必要。どちらかが欠けている場合はValueErrorを返す。
func ROCCurve(yTrue, yScore *mat.VecDense) (fpr, tpr, thresholds []float64, err error) {
	n, err := checkPair("ROCCurve", yTrue, yScore)
	if err != nil {
		return nil, nil, nil, err
	}
	if err := checkBinaryLabels("ROCCurve", yTrue); err != nil {
		return nil, nil, nil, err
	}

	scores := make([]float64, n)
	classes := make([]bool, n)
	positives := 0
	for i := 0; i < n; i++ {
		scores[i] = yScore.AtVec(i)
		if math.IsNaN(scores[i]) {
			return nil, nil, nil, errors.NewValueError("ROCCurve", "score is NaN")
		}
		classes[i] = yTrue.AtVec(i) == 1
		if classes[i] {
			positives++
		}
	}
	if positives == 0 || positives == n {
		return nil, nil, nil, errors.NewValueError("ROCCurve", "only one class present in labels")
	}

	// stat.ROC はスコアの昇順ソートを要求する
	sort.Sort(byScore{scores: scores, classes: classes})

	tpr, fpr, thresholds = stat.ROC(nil, scores, classes, nil)
	return fpr, tpr, thresholds, nil
}

// AUC はROC曲線下面積を台形則で計算する
//
// ラベルが1クラスしかない場合は0.5を返し、UndefinedMetricWarningを発行する。
func AUC(yTrue, yScore *mat.VecDense) (float64, error) {
	n, err := checkPair("AUC", yTrue, yScore)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("AUC", yTrue); err != nil {
		return 0, err
	}

	positives := 0
	for i := 0; i < n; i++ {
		if yTrue.AtVec(i) == 1 {
			positives++
		}
	}
	if positives == 0 || positives == n {
		errors.Warn(errors.NewUndefinedMetricWarning("auc", "only one class present in labels", 0.5))
		return 0.5, nil
	}

	fpr, tpr, _, err := ROCCurve(yTrue, yScore)
	if err != nil {
		return 0, err
	}
	return integrate.Trapezoidal(fpr, tpr), nil
}

// BinaryLogLoss は二値分類の平均対数損失を計算する
//
// 予測確率は [eps, 1-eps] にクリップしてから対数を取る。
func BinaryLogLoss(yTrue, yProb *mat.VecDense) (float64, error) {
	n, err := checkPair("BinaryLogLoss", yTrue, yProb)
	if err != nil {
		return 0, err
	}
	if err := checkBinaryLabels("BinaryLogLoss", yTrue); err != nil {
		return 0, err
	}

	var sum float64
	for i := 0; i < n; i++ {
		p := errors.ClipValue(yProb.AtVec(i), logLossEpsilon, 1-logLossEpsilon)
		if yTrue.AtVec(i) == 1 {
			sum -= errors.StabilizeLog(p)
		} else {
			sum -= errors.StabilizeLog(1 - p)
		}
	}
	return sum / float64(n), nil
}

type byScore struct {
	scores  []float64
	classes []bool
}

func (b byScore) Len() int           { return len(b.scores) }
func (b byScore) Less(i, j int) bool { return b.scores[i] < b.scores[j] }
func (b byScore) Swap(i, j int) {
	b.scores[i], b.scores[j] = b.scores[j], b.scores[i]
	b.classes[i], b.classes[j] = b.classes[j], b.classes[i]
}
