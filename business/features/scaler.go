package features

// MinMaxScaler rescales values into [Lo, Hi]. A scaler is created fresh for
// every pipeline run and threaded through explicitly, so scores from one run
// never depend on a previous catalog.
type MinMaxScaler struct {
	Lo, Hi float64
}

// FitTransform rescales in place using the min/max of the given values.
// A constant input maps everything to Lo.
func (s MinMaxScaler) FitTransform(values []float64) {
	if len(values) == 0 {
		return
	}

	min, max := values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}

	span := max - min
	if span == 0 {
		for i := range values {
			values[i] = s.Lo
		}
		return
	}

	for i := range values {
		values[i] = s.Lo + (values[i]-min)/span*(s.Hi-s.Lo)
	}
}
