package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/ghamdiff/Line-UP/internal/models"
	"github.com/ghamdiff/Line-UP/internal/store"

	"github.com/google/uuid"
)

// Store is the in-memory queue ledger. One mutex guards every counter
// and every reservation: joins serialize so no two groups are assigned
// overlapping position ranges, and read paths recompute positions under
// the same lock because a read of a waiting reservation mutates it.
type Store struct {
	mu sync.Mutex

	venues       map[int]*models.Venue
	queues       map[int]*models.Queue
	reservations map[int]*models.Reservation
	reviews      map[int]*models.Review

	nextVenueID       int
	nextQueueID       int
	nextReservationID int
	nextReviewID      int

	releaseEnabled bool
	minutesPerUnit float64
}

type Options struct {
	// ReleaseOnExit subtracts a group's size from the queue count when
	// its reservation completes or cancels. Off it reproduces the
	// original behavior where occupancy only ever grows.
	ReleaseOnExit bool
	// ServiceMinutesPerUnit is used for queues created without a rate.
	ServiceMinutesPerUnit float64
}

func NewStore(options Options) *Store {
	rate := options.ServiceMinutesPerUnit
	if rate <= 0 {
		rate = store.DefaultServiceMinutesPerUnit
	}
	return &Store{
		venues:            make(map[int]*models.Venue),
		queues:            make(map[int]*models.Queue),
		reservations:      make(map[int]*models.Reservation),
		reviews:           make(map[int]*models.Review),
		nextVenueID:       1,
		nextQueueID:       1,
		nextReservationID: 1,
		nextReviewID:      1,
		releaseEnabled:    options.ReleaseOnExit,
		minutesPerUnit:    rate,
	}
}

// AddVenue inserts a venue and assigns its id. Used by seeding and
// tests; the engine itself never creates venues.
func (s *Store) AddVenue(venue models.Venue) models.Venue {
	s.mu.Lock()
	defer s.mu.Unlock()

	venue.ID = s.nextVenueID
	s.nextVenueID++
	if venue.CreatedAt.IsZero() {
		venue.CreatedAt = time.Now().UTC()
	}
	copied := venue
	s.venues[venue.ID] = &copied
	return venue
}

func (s *Store) AddQueue(queue models.Queue) models.Queue {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue.ID = s.nextQueueID
	s.nextQueueID++
	if queue.ServiceMinutesPerUnit <= 0 {
		queue.ServiceMinutesPerUnit = s.minutesPerUnit
	}
	if queue.CreatedAt.IsZero() {
		queue.CreatedAt = time.Now().UTC()
	}
	copied := queue
	s.queues[queue.ID] = &copied
	return queue
}

func (s *Store) ListVenues(ctx context.Context, category string) ([]models.Venue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	venues := make([]models.Venue, 0, len(s.venues))
	for _, venue := range s.venues {
		if !venue.IsActive {
			continue
		}
		if category != "" && venue.Category != category && venue.CategoryAr != category {
			continue
		}
		venues = append(venues, *venue)
	}
	sort.Slice(venues, func(i, j int) bool { return venues[i].ID < venues[j].ID })
	return venues, nil
}

func (s *Store) GetVenue(ctx context.Context, venueID int) (models.Venue, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	venue, ok := s.venues[venueID]
	if !ok {
		return models.Venue{}, false, nil
	}
	return *venue, true, nil
}

func (s *Store) ListQueues(ctx context.Context, venueID int) ([]models.Queue, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var queues []models.Queue
	for _, queue := range s.queues {
		if queue.VenueID != venueID || !queue.IsActive {
			continue
		}
		queues = append(queues, *queue)
	}
	sort.Slice(queues, func(i, j int) bool { return queues[i].ID < queues[j].ID })
	return queues, nil
}

func (s *Store) GetQueue(ctx context.Context, queueID int) (models.Queue, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, ok := s.queues[queueID]
	if !ok {
		return models.Queue{}, false, nil
	}
	return *queue, true, nil
}

func (s *Store) JoinQueue(ctx context.Context, input store.JoinQueueInput) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	queue, ok := s.queues[input.QueueID]
	if !ok {
		return models.Reservation{}, store.ErrQueueNotFound
	}
	if !queue.IsActive {
		return models.Reservation{}, store.ErrQueueInactive
	}

	groupSize := input.GroupSize
	if groupSize < 1 {
		groupSize = 1
	}
	joinedAt := input.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}

	position := store.JoinPosition(queue.CurrentCount)
	estimate := store.EstimateWaitMinutes(position, queue.ServiceMinutesPerUnit)

	id := s.nextReservationID
	s.nextReservationID++

	reservation := models.Reservation{
		ID:                   id,
		UserID:               input.UserID,
		QueueID:              input.QueueID,
		Position:             position,
		GroupSize:            groupSize,
		EstimatedWaitMinutes: estimate,
		Status:               models.StatusWaiting,
		QRCode:               fmt.Sprintf("QR-%d-%s", id, uuid.NewString()),
		NotificationSent:     false,
		CreatedAt:            joinedAt,
		UpdatedAt:            joinedAt,
	}

	copied := reservation
	s.reservations[id] = &copied
	queue.CurrentCount += groupSize

	return reservation, nil
}

func (s *Store) ListUserReservations(ctx context.Context, userID int, now time.Time) ([]store.ReservationDetail, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var details []store.ReservationDetail
	for _, reservation := range s.reservations {
		if reservation.UserID != userID {
			continue
		}
		s.refreshPositionLocked(reservation, now)
		detail, err := s.detailLocked(reservation)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	sort.Slice(details, func(i, j int) bool { return details[i].ID < details[j].ID })
	return details, nil
}

func (s *Store) GetActiveReservation(ctx context.Context, userID int, now time.Time) (store.ReservationDetail, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var active *models.Reservation
	for _, reservation := range s.reservations {
		if reservation.UserID != userID || reservation.Status != models.StatusWaiting {
			continue
		}
		if active == nil || reservation.ID < active.ID {
			active = reservation
		}
	}
	if active == nil {
		return store.ReservationDetail{}, false, nil
	}

	s.refreshPositionLocked(active, now)
	detail, err := s.detailLocked(active)
	if err != nil {
		return store.ReservationDetail{}, false, err
	}
	return detail, true, nil
}

func (s *Store) UpdateReservationStatus(ctx context.Context, input store.UpdateStatusInput) (models.Reservation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	reservation, ok := s.reservations[input.ReservationID]
	if !ok {
		return models.Reservation{}, store.ErrReservationNotFound
	}
	if !store.ValidTransition(input.Status, reservation.Status) {
		return models.Reservation{}, store.ErrInvalidState
	}

	if s.releaseEnabled && models.TerminalStatus(input.Status) {
		queue, ok := s.queues[reservation.QueueID]
		if !ok {
			return models.Reservation{}, store.ErrQueueNotFound
		}
		if queue.CurrentCount-reservation.GroupSize < 0 {
			return models.Reservation{}, store.ErrNegativeCount
		}
		queue.CurrentCount -= reservation.GroupSize
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}
	reservation.Status = input.Status
	reservation.UpdatedAt = occurredAt

	return *reservation, nil
}

func (s *Store) ListReviews(ctx context.Context, venueID int) ([]models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var reviews []models.Review
	for _, review := range s.reviews {
		if review.VenueID != venueID {
			continue
		}
		reviews = append(reviews, *review)
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID < reviews[j].ID })
	return reviews, nil
}

func (s *Store) CreateReview(ctx context.Context, input store.CreateReviewInput) (models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.venues[input.VenueID]; !ok {
		return models.Review{}, store.ErrVenueNotFound
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	id := s.nextReviewID
	s.nextReviewID++
	review := models.Review{
		ID:        id,
		UserID:    input.UserID,
		VenueID:   input.VenueID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CommentAr: input.CommentAr,
		CreatedAt: createdAt,
	}
	copied := review
	s.reviews[id] = &copied
	return review, nil
}

// refreshPositionLocked recomputes a waiting reservation's position
// from elapsed time and persists it in place. Terminal and called
// reservations are left untouched.
func (s *Store) refreshPositionLocked(reservation *models.Reservation, now time.Time) {
	if reservation.Status != models.StatusWaiting {
		return
	}
	rate := s.minutesPerUnit
	if queue, ok := s.queues[reservation.QueueID]; ok && queue.ServiceMinutesPerUnit > 0 {
		rate = queue.ServiceMinutesPerUnit
	}
	reservation.Position = store.RecomputePosition(reservation.EstimatedWaitMinutes, rate, reservation.CreatedAt, now)
}

func (s *Store) detailLocked(reservation *models.Reservation) (store.ReservationDetail, error) {
	queue, ok := s.queues[reservation.QueueID]
	if !ok {
		return store.ReservationDetail{}, store.ErrQueueNotFound
	}
	venue, ok := s.venues[queue.VenueID]
	if !ok {
		return store.ReservationDetail{}, store.ErrVenueNotFound
	}
	return store.ReservationDetail{
		Reservation: *reservation,
		Venue:       *venue,
		Queue:       *queue,
	}, nil
}
