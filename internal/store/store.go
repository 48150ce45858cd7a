package store

import (
	"context"
	"time"

	"github.com/ghamdiff/Line-UP/internal/models"
)

type JoinQueueInput struct {
	QueueID   int
	UserID    int
	GroupSize int
	JoinedAt  time.Time
}

type UpdateStatusInput struct {
	ReservationID int
	Status        string
	OccurredAt    time.Time
}

type CreateReviewInput struct {
	VenueID   int
	UserID    int
	Rating    int
	Comment   string
	CommentAr string
	CreatedAt time.Time
}

// ReservationDetail joins a reservation with its queue and owning venue
// for the user-facing read paths.
type ReservationDetail struct {
	models.Reservation
	Venue models.Venue `json:"venue"`
	Queue models.Queue `json:"queue"`
}

// ReservationStore is the queue ledger and position engine. Reads of
// waiting reservations recompute and persist the live position, so
// every method that returns reservations is a read-modify-write and
// implementations must apply the same mutual exclusion to reads as to
// writes.
type ReservationStore interface {
	ListVenues(ctx context.Context, category string) ([]models.Venue, error)
	GetVenue(ctx context.Context, venueID int) (models.Venue, bool, error)
	ListQueues(ctx context.Context, venueID int) ([]models.Queue, error)
	GetQueue(ctx context.Context, queueID int) (models.Queue, bool, error)
	JoinQueue(ctx context.Context, input JoinQueueInput) (models.Reservation, error)
	ListUserReservations(ctx context.Context, userID int, now time.Time) ([]ReservationDetail, error)
	GetActiveReservation(ctx context.Context, userID int, now time.Time) (ReservationDetail, bool, error)
	UpdateReservationStatus(ctx context.Context, input UpdateStatusInput) (models.Reservation, error)
	ListReviews(ctx context.Context, venueID int) ([]models.Review, error)
	CreateReview(ctx context.Context, input CreateReviewInput) (models.Review, error)
}
