// Package sampling provides the outlier-trimmed averaging shared by every
// sampled sensor channel.
package sampling

import "sort"

// MinSamples is the smallest sample set the trimmed mean is defined for:
// with fewer than 3 samples there is nothing left after dropping the extremes.
const MinSamples = 3

// TrimmedMean discards one minimum and one maximum sample and returns the
// truncating mean of the remainder. Cheap analog front ends throw occasional
// single-sample spikes (rail transients, capacitive coupling); dropping the
// extremes is sufficient at these sample counts.
//
// The input slice is not modified. Returns ok=false when fewer than
// MinSamples samples were collected.
func TrimmedMean(samples []uint16) (uint16, bool) {
	if len(samples) < MinSamples {
		return 0, false
	}

	sorted := make([]uint16, len(samples))
	copy(sorted, samples)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

	trimmed := sorted[1 : len(sorted)-1]

	var sum uint64
	for _, s := range trimmed {
		sum += uint64(s)
	}
	avg := sum / uint64(len(trimmed))
	if avg > uint64(^uint16(0)) {
		return 0, false
	}
	return uint16(avg), true
}
