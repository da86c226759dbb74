package calls

import (
	"sort"

	"ms-ordering/internal/models"
)

// SortCalls orders by status rank then call time. The sort is stable.
func SortCalls(list []models.ServerCall) {
	sort.SliceStable(list, func(i, j int) bool {
		ri, rj := StatusRank(list[i].Status), StatusRank(list[j].Status)
		if ri != rj {
			return ri < rj
		}
		return list[i].PlacedAt.Before(list[j].PlacedAt)
	})
}
