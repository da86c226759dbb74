package order

import (
	"math"

	"ms-ordering/internal/models"
)

const (
	InitialEtaMin   = 12
	InitialEtaMax   = 60
	SuggestedEtaMin = 8
	SuggestedEtaMax = 75
	ExplicitEtaMax  = 180
	DefaultBaseEta  = 22
)

// LineStats summarizes an order's lines for ETA estimates.
type LineStats struct {
	Units    int
	Lines    int
	HasPizza bool
	HasNotes bool
}

func StatsOf(lines []*models.OrderItem) LineStats {
	var s LineStats
	for _, l := range lines {
		s.Units += l.Quantity
		s.Lines++
		if l.PizzaSizeID != nil {
			s.HasPizza = true
		}
		if l.Note != nil && *l.Note != "" {
			s.HasNotes = true
		}
	}
	return s
}

// InitialEta is the estimate given to the diner when the order is placed.
func InitialEta(s LineStats) int {
	eta := 8 + s.Units*2 + s.Lines/2
	if s.HasPizza {
		eta += 5
	}
	if s.HasNotes {
		eta += 2
	}
	return clamp(eta, InitialEtaMin, InitialEtaMax)
}

// SuggestedEta is assigned when the kitchen starts an order without an ETA.
func SuggestedEta(baseEta int, s LineStats) int {
	eta := baseEta + int(math.Floor(float64(s.Units)*1.4))
	if s.HasPizza {
		eta += 4
	}
	if s.HasNotes {
		eta += 2
	}
	return clamp(eta, SuggestedEtaMin, SuggestedEtaMax)
}

// ClampExplicitEta rounds a kitchen-entered ETA into [0, 180]. Non-finite input is rejected.
func ClampExplicitEta(minutes float64) (int, bool) {
	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0, false
	}
	rounded := math.Round(minutes)
	if rounded < 0 {
		return 0, true
	}
	if rounded > ExplicitEtaMax {
		return ExplicitEtaMax, true
	}
	return int(rounded), true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
