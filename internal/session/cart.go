package session

import (
	"encoding/json"

	"orderly/backend/internal/models"
)

// DecodeCart unpacks a participant's JSON cart column.
func DecodeCart(p *models.Participant) ([]models.CartLine, error) {
	if len(p.CartItems) == 0 {
		return nil, nil
	}
	var lines []models.CartLine
	if err := json.Unmarshal(p.CartItems, &lines); err != nil {
		return nil, err
	}
	return lines, nil
}

// Subtotal computes a participant's cart subtotal in cents.
func Subtotal(lines []models.CartLine) int64 {
	var total int64
	for _, line := range lines {
		total += line.PriceCents * int64(line.Quantity)
	}
	return total
}

// ItemCount is the total quantity across a cart's lines.
func ItemCount(lines []models.CartLine) int {
	count := 0
	for _, line := range lines {
		count += line.Quantity
	}
	return count
}

// SessionTotalCents merges per-participant subtotals into the session-level
// order total. Subtotals are recomputed on every cart write, so reading them
// off a consistent participant snapshot is enough here.
func SessionTotalCents(s *models.GroupSession) int64 {
	var total int64
	for _, p := range s.Participants {
		total += p.SubtotalCents
	}
	return total
}
