package visibility

import (
	"math"

	"github.com/hupe1980/pointview/field"
)

// MinOutlierThreshold floors the divisor of the exceedance ratio.
const MinOutlierThreshold = 0.001

// AggregateOutlierRatios rebuilds dst as the element-wise maximum of
// quantile/max(threshold, MinOutlierThreshold) over every loaded obs field
// with outlier data and a threshold below field.OutlierThresholdOff.
// Points without a contributing field get ratio 0. It returns the buffer
// and the number of contributing fields.
func AggregateOutlierRatios(dst []float32, obs field.FieldSet, n int) ([]float32, int) {
	if len(dst) != n {
		dst = make([]float32, n)
	} else {
		Fill(dst, 0)
	}

	contributing := 0
	for _, f := range obs {
		if !f.Loaded || !f.HasOutlierData() || f.Continuous == nil {
			continue
		}
		t := f.Continuous.OutlierThreshold
		if t >= field.OutlierThresholdOff {
			continue
		}
		contributing++
		div := float32(math.Max(t, MinOutlierThreshold))
		q := f.OutlierQuantiles
		for i := 0; i < n && i < len(q); i++ {
			if math.IsNaN(float64(q[i])) {
				continue
			}
			if r := q[i] / div; r > dst[i] {
				dst[i] = r
			}
		}
	}
	return dst, contributing
}
