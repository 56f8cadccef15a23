package app

import (
	"context"
	"encoding/csv"
	"io"
	"sort"
	"strconv"
)

// BucketCount is one row of a distribution: a prefix or area code and how
// many numbers fall under it.
type BucketCount struct {
	Bucket string `json:"bucket"`
	Count  int    `json:"count"`
}

// Stats are the aggregate figures shown for a cached listing.
type Stats struct {
	Total          int           `json:"total"`
	UniquePrefixes int           `json:"unique_prefixes"`
	AverageLength  float64       `json:"average_length"`
	TopPrefixes    []BucketCount `json:"top_prefixes"`
	AreaCodes      []BucketCount `json:"area_codes"`
}

const topBuckets = 10

// Stats computes aggregates over the session's cached listing, fetching it
// first when nothing is cached yet.
func (a *Application) Stats(ctx context.Context, s *Session) (*Stats, error) {
	records, _, err := a.cachedRecords(ctx, s)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Total: len(records)}
	if len(records) == 0 {
		return stats, nil
	}

	prefixCounts := make(map[string]int)
	areaCounts := make(map[string]int)
	totalLength := 0
	for _, r := range records {
		prefixCounts[r.Prefix]++
		if r.AreaCode != "" {
			areaCounts[r.AreaCode]++
		}
		totalLength += len(r.Number)
	}

	stats.UniquePrefixes = len(prefixCounts)
	stats.AverageLength = float64(totalLength) / float64(len(records))
	stats.TopPrefixes = topCounts(prefixCounts, topBuckets)
	stats.AreaCodes = topCounts(areaCounts, topBuckets)
	return stats, nil
}

// topCounts sorts a bucket map by descending count (ties broken by bucket
// name for stable output) and keeps the first n.
func topCounts(counts map[string]int, n int) []BucketCount {
	buckets := make([]BucketCount, 0, len(counts))
	for bucket, count := range counts {
		buckets = append(buckets, BucketCount{Bucket: bucket, Count: count})
	}
	sort.Slice(buckets, func(i, j int) bool {
		if buckets[i].Count != buckets[j].Count {
			return buckets[i].Count > buckets[j].Count
		}
		return buckets[i].Bucket < buckets[j].Bucket
	})
	if len(buckets) > n {
		buckets = buckets[:n]
	}
	return buckets
}

// ExportCSV writes the session's cached listing as CSV. The caller owns the
// writer; nothing is written to disk.
func (a *Application) ExportCSV(ctx context.Context, s *Session, w io.Writer) (int, error) {
	records, _, err := a.cachedRecords(ctx, s)
	if err != nil {
		return 0, err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"phone_number", "prefix", "area_code", "available"}); err != nil {
		return 0, err
	}
	for _, r := range records {
		row := []string{r.Number, r.Prefix, r.AreaCode, strconv.FormatBool(r.Available)}
		if err := cw.Write(row); err != nil {
			return 0, err
		}
	}
	cw.Flush()
	return len(records), cw.Error()
}
