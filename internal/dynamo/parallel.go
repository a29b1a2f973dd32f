package dynamo

// Range is a half-open interval [Start, End) of work items.
type Range struct {
	Start, End int
}

// Split cuts [0, n) into at most workers contiguous ranges of at least
// minChunk items each. Small inputs come back as a single range.
func Split(n, workers, minChunk int) []Range {
	if n <= 0 {
		return nil
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if workers < 1 {
		workers = 1
	}
	if n <= minChunk || workers == 1 {
		return []Range{{0, n}}
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers
	ranges := make([]Range, 0, workers)
	for start := 0; start < n; start += chunkSize {
		end := start + chunkSize
		if end > n {
			end = n
		}
		ranges = append(ranges, Range{start, end})
	}
	return ranges
}
