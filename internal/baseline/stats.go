package baseline

import (
	"fmt"
	"math"
	"sort"

	"github.com/sells-group/insight-cli/internal/model"
)

// defaultBucketCount is the fixed histogram width used across phase A and
// drill-downs.
const defaultBucketCount = 10

// histogram builds an equal-width bucket histogram spanning min..max of the
// values. A constant column collapses to a single bucket.
func histogram(values []float64, bucketCount int) []model.HistogramBucket {
	if len(values) == 0 {
		return nil
	}
	if bucketCount <= 0 {
		bucketCount = defaultBucketCount
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

	if min == max {
		return []model.HistogramBucket{{
			Label:      formatBucket(min, max),
			Count:      len(values),
			Percentage: 100,
		}}
	}

	width := (max - min) / float64(bucketCount)
	counts := make([]int, bucketCount)
	for _, v := range values {
		idx := int((v - min) / width)
		if idx >= bucketCount {
			idx = bucketCount - 1 // max value lands in the last bucket
		}
		counts[idx]++
	}

	buckets := make([]model.HistogramBucket, bucketCount)
	for i := range counts {
		lo := min + float64(i)*width
		hi := lo + width
		buckets[i] = model.HistogramBucket{
			Label:      formatBucket(lo, hi),
			Count:      counts[i],
			Percentage: roundPct(float64(counts[i]) / float64(len(values)) * 100),
		}
	}
	return buckets
}

func formatBucket(lo, hi float64) string {
	return fmt.Sprintf("%s - %s", formatBound(lo), formatBound(hi))
}

func formatBound(v float64) string {
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return fmt.Sprintf("%.0f", v)
	}
	return fmt.Sprintf("%.2f", v)
}

func roundPct(v float64) float64 {
	return math.Round(v*100) / 100
}

// percentile computes the p-th percentile (0..100) of sorted values using
// linear interpolation between closest ranks.
func percentile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if len(sorted) == 1 {
		return sorted[0]
	}

	rank := p / 100 * float64(len(sorted)-1)
	lower := int(math.Floor(rank))
	upper := int(math.Ceil(rank))
	if lower == upper {
		return sorted[lower]
	}
	frac := rank - float64(lower)
	return sorted[lower] + frac*(sorted[upper]-sorted[lower])
}

// sortedCopy returns an ascending copy of values.
func sortedCopy(values []float64) []float64 {
	out := make([]float64, len(values))
	copy(out, values)
	sort.Float64s(out)
	return out
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
