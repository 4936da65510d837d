package errors

import (
	"math"
)

// logFloor は StabilizeLog が対数を取る最小値
const logFloor = 1e-15

func isUnstable(v float64) bool {
	return math.IsNaN(v) || math.IsInf(v, 0)
}

// CheckNumericalStability は values に NaN または ±Inf が含まれていれば
// NumericalInstabilityError を返す
func CheckNumericalStability(operation string, values []float64, iteration int) error {
	for _, v := range values {
		if isUnstable(v) {
			return NewNumericalInstabilityError(operation, values, iteration)
		}
	}
	return nil
}

// CheckScalar は目的関数値などのスカラー1個を検査する
func CheckScalar(operation string, value float64, iteration int) error {
	if isUnstable(value) {
		return NewNumericalInstabilityError(operation, []float64{value}, iteration)
	}
	return nil
}

// ClipValue は value を [lo, hi] に収める
func ClipValue(value, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, value))
}

// StabilizeLog は log(max(value, 1e-15)) を返す。log(0) の -Inf を避ける。
func StabilizeLog(value float64) float64 {
	return math.Log(math.Max(value, logFloor))
}
