package algo

import (
	"slices"
	"sort"

	"github.com/huangsam/sprinthealth/schema"
)

// RankReports returns a copy of reports sorted by score in ascending order so
// the least healthy projects come first, cut to the top 'limit' reports. Ties
// are broken by project ID. A non-positive limit keeps every report. The input
// slice is left in its original order.
func RankReports(reports []schema.StatisticsReport, limit int) []schema.StatisticsReport {
	ranked := slices.Clone(reports)
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score() != ranked[j].Score() {
			return ranked[i].Score() < ranked[j].Score()
		}
		return ranked[i].ProjectID() < ranked[j].ProjectID()
	})
	if limit > 0 && len(ranked) > limit {
		return ranked[:limit]
	}
	return ranked
}
