package analytics

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

const DailyTopItems = 3

type DailyReport struct {
	RestaurantID string                    `json:"restaurant_id"`
	Date         string                    `json:"date"`
	Summary      Summary                   `json:"report"`
	Text         string                    `json:"text"`
	Delivery     map[string]DeliveryResult `json:"delivery"`
}

// ReportText renders the plain text sent to the owners.
func ReportText(date string, s Summary) string {
	top := "Aucune vente enregistrée"
	if len(s.TopItems) > 0 {
		parts := make([]string, len(s.TopItems))
		for i, it := range s.TopItems {
			parts[i] = fmt.Sprintf("%s (%d)", it.Name, it.Quantity)
		}
		top = strings.Join(parts, " · ")
	}

	return strings.Join([]string{
		"Rapport journalier - " + date,
		"CA: " + FormatXOF(float64(s.Revenue)),
		fmt.Sprintf("Commandes: %d", s.OrderCount),
		"Ticket moyen: " + FormatXOF(s.AverageTicket),
		fmt.Sprintf("Note moyenne: %.2f/5", s.AverageRating),
		"Top ventes: " + top,
	}, "\n")
}

// FormatXOF rounds to whole francs and groups thousands with spaces.
func FormatXOF(amount float64) string {
	n := int64(math.Round(amount))
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}

	digits := strconv.FormatInt(n, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(' ')
		}
		b.WriteRune(d)
	}
	return sign + b.String() + " F CFA"
}
