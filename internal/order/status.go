package order

import "ms-ordering/internal/models"

// Statuses lists the order lifecycle in kitchen order.
var Statuses = []string{models.OrderReceived, models.OrderPreparing, models.OrderReady}

// ValidStatus accepts any lifecycle value. Transitions are not guarded:
// the kitchen may move an order back to a previous step.
func ValidStatus(status string) bool {
	return StatusRank(status) < len(Statuses)
}

// StatusRank orders received before preparing before ready; unknown values sort last.
func StatusRank(status string) int {
	for i, s := range Statuses {
		if s == status {
			return i
		}
	}
	return len(Statuses)
}

// IsActive is true while the kitchen still has work on the order.
func IsActive(status string) bool {
	return status == models.OrderReceived || status == models.OrderPreparing
}
