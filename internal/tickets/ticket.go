package tickets

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urbanpizzeria/pos-backend/internal/cart"
	"github.com/urbanpizzeria/pos-backend/pkg/enums"
)

// Ticket is one printed kitchen order. Items is a value copy of the draft
// cart at print time; later draft mutations never reach a printed ticket.
// The ID is stable from creation, though queue operations stay positional.
type Ticket struct {
	ID        uuid.UUID       `json:"id"`
	Timestamp time.Time       `json:"timestamp"`
	Date      string          `json:"date"`
	Items     []cart.Line     `json:"items"`
	OrderType enums.OrderType `json:"orderType"`
}

// Age returns how long ago the ticket was printed.
func (t Ticket) Age(now time.Time) time.Duration {
	return now.Sub(t.Timestamp)
}

// Remaining returns the time left before expiry, clamped at zero.
func (t Ticket) Remaining(now time.Time, expiry time.Duration) time.Duration {
	remaining := expiry - t.Age(now)
	if remaining < 0 {
		return 0
	}
	return remaining
}

// FormatRemaining renders a countdown as HH:MM:SS.
func FormatRemaining(remaining time.Duration) string {
	if remaining <= 0 {
		return "00:00:00"
	}
	totalSeconds := int(remaining / time.Second)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60
	return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
}
