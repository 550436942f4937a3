package regression

import "math"

// MAE is the mean absolute error between targets and predictions.
func MAE(y, pred []float64) float64 {
	if len(y) == 0 || len(y) != len(pred) {
		return math.NaN()
	}

	sum := 0.0
	for i := range y {
		sum += math.Abs(y[i] - pred[i])
	}
	return sum / float64(len(y))
}

// R2 is the coefficient of determination. A constant target yields 0 when
// predictions match it exactly, otherwise the score can go negative.
func R2(y, pred []float64) float64 {
	if len(y) == 0 || len(y) != len(pred) {
		return math.NaN()
	}

	mean := 0.0
	for _, v := range y {
		mean += v
	}
	mean /= float64(len(y))

	ssRes, ssTot := 0.0, 0.0
	for i := range y {
		ssRes += (y[i] - pred[i]) * (y[i] - pred[i])
		ssTot += (y[i] - mean) * (y[i] - mean)
	}

	if ssTot == 0 {
		if ssRes == 0 {
			return 0
		}
		return math.Inf(-1)
	}

	return 1 - ssRes/ssTot
}
