package domain

// CoverageStats summarizes abstract coverage over a paper collection. It is
// derived read-only state: always recomputed from the records, never stored
// as authoritative data.
type CoverageStats struct {
	Total        int                    `json:"total"`
	WithAbstract int                    `json:"with_abstract"`
	BySource     map[AbstractSource]int `json:"by_source"`
}

// ComputeCoverage derives coverage statistics from a paper collection.
func ComputeCoverage(papers []*PaperRecord) CoverageStats {
	stats := CoverageStats{
		Total:    len(papers),
		BySource: make(map[AbstractSource]int),
	}
	for _, paper := range papers {
		if !paper.HasAbstract() {
			continue
		}
		stats.WithAbstract++
		if paper.AbstractSource != nil {
			stats.BySource[*paper.AbstractSource]++
		}
	}
	return stats
}

// Coverage returns the fraction of papers with a non-nil abstract.
func (s CoverageStats) Coverage() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.WithAbstract) / float64(s.Total)
}
