package data

import (
	"fmt"
	"sort"
	"time"

	"github.com/ducminhle1904/crypto-grid-sim/pkg/types"
)

// FilterByDateRange keeps samples with from <= timestamp <= to. A zero bound is open.
func FilterByDateRange(samples []types.PriceSample, from, to time.Time) []types.PriceSample {
	if len(samples) == 0 {
		return samples
	}

	filtered := make([]types.PriceSample, 0, len(samples))
	for _, s := range samples {
		if !from.IsZero() && s.Timestamp.Before(from) {
			continue
		}
		if !to.IsZero() && s.Timestamp.After(to) {
			continue
		}
		filtered = append(filtered, s)
	}
	return filtered
}

// SortByTimestamp returns a copy sorted by timestamp (ascending order)
func SortByTimestamp(samples []types.PriceSample) []types.PriceSample {
	sorted := types.CopySamples(samples)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp.Before(sorted[j].Timestamp)
	})
	return sorted
}

// RemoveDuplicates drops samples repeating an earlier timestamp, keeping the first occurrence
func RemoveDuplicates(samples []types.PriceSample) []types.PriceSample {
	if len(samples) <= 1 {
		return samples
	}

	filtered := make([]types.PriceSample, 0, len(samples))
	seen := make(map[int64]bool, len(samples))
	for _, s := range samples {
		ts := s.Timestamp.UnixNano()
		if !seen[ts] {
			seen[ts] = true
			filtered = append(filtered, s)
		}
	}
	return filtered
}

// Normalize sorts, de-duplicates and range-filters a raw series
func Normalize(samples []types.PriceSample, from, to time.Time) []types.PriceSample {
	return FilterByDateRange(RemoveDuplicates(SortByTimestamp(samples)), from, to)
}

// ValidateTimeSequence ensures samples are strictly increasing in time
func ValidateTimeSequence(samples []types.PriceSample) error {
	for i := 1; i < len(samples); i++ {
		if samples[i].Timestamp.Before(samples[i-1].Timestamp) {
			return fmt.Errorf("data not in chronological order at index %d: %s comes after %s",
				i, samples[i].Timestamp.Format(time.RFC3339), samples[i-1].Timestamp.Format(time.RFC3339))
		}

		if samples[i].Timestamp.Equal(samples[i-1].Timestamp) {
			return fmt.Errorf("duplicate timestamp at index %d: %s",
				i, samples[i].Timestamp.Format(time.RFC3339))
		}
	}
	return nil
}
