package models

import "time"

type Reservation struct {
	ID                   int       `json:"id"`
	UserID               int       `json:"user_id"`
	QueueID              int       `json:"queue_id"`
	Position             int       `json:"position"`
	GroupSize            int       `json:"group_size"`
	EstimatedWaitMinutes int       `json:"estimated_wait_minutes"`
	Status               string    `json:"status"`
	QRCode               string    `json:"qr_code"`
	NotificationSent     bool      `json:"notification_sent"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

const (
	StatusWaiting   = "waiting"
	StatusCalled    = "called"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Terminal statuses freeze the reservation: no further transition or
// position recomputation applies.
func TerminalStatus(status string) bool {
	return status == StatusCompleted || status == StatusCancelled
}

// PositionRange returns the contiguous range of positions a group
// occupies, starting at the reservation's own position.
func (r Reservation) PositionRange() (int, int) {
	if r.GroupSize <= 1 {
		return r.Position, r.Position
	}
	return r.Position, r.Position + r.GroupSize - 1
}
