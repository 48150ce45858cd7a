package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/ghamdiff/Line-UP/internal/models"
	"github.com/ghamdiff/Line-UP/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, options Options) (*Store, models.Queue) {
	t.Helper()
	s := NewStore(options)
	venue := s.AddVenue(models.Venue{
		Name:       "High City",
		NameAr:     "المدينة العالية",
		Category:   "Entertainment",
		CategoryAr: "ترفيه",
		Rating:     "4.8",
		IsActive:   true,
	})
	queue := s.AddQueue(models.Queue{
		VenueID:               venue.ID,
		Name:                  "Main Entry",
		NameAr:                "الدخول الرئيسي",
		MaxCapacity:           100,
		ServiceMinutesPerUnit: 1.5,
		IsActive:              true,
	})
	return s, queue
}

func TestJoinQueueAssignsPositionAndEstimate(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()

	// Pre-load 13 people via one group join.
	size := 13
	_, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 9, GroupSize: size})
	require.NoError(t, err)

	reservation, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1, GroupSize: 1})
	require.NoError(t, err)

	assert.Equal(t, 14, reservation.Position)
	assert.Equal(t, 21, reservation.EstimatedWaitMinutes)
	assert.Equal(t, models.StatusWaiting, reservation.Status)
	assert.NotEmpty(t, reservation.QRCode)
	assert.False(t, reservation.NotificationSent)

	updated, found, err := s.GetQueue(ctx, queue.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 14, updated.CurrentCount)
}

func TestJoinQueueGroupOccupiesRange(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()

	_, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 2, GroupSize: 7})
	require.NoError(t, err)

	reservation, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1, GroupSize: 3})
	require.NoError(t, err)

	start, end := reservation.PositionRange()
	assert.Equal(t, 8, start)
	assert.Equal(t, 10, end)
}

func TestJoinQueueErrors(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	_, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: 999, UserID: 1})
	assert.ErrorIs(t, err, store.ErrQueueNotFound)

	closed := s.AddQueue(models.Queue{VenueID: 1, Name: "Closed", NameAr: "مغلق", IsActive: false})
	_, err = s.JoinQueue(ctx, store.JoinQueueInput{QueueID: closed.ID, UserID: 1})
	assert.ErrorIs(t, err, store.ErrQueueInactive)
}

func TestConcurrentJoinsAssignPrefixSumPositions(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()

	groupSizes := []int{1, 3, 2, 5, 1, 4, 2, 2, 1, 3}

	var wg sync.WaitGroup
	results := make([]models.Reservation, len(groupSizes))
	errs := make([]error, len(groupSizes))
	for i, size := range groupSizes {
		wg.Add(1)
		go func(i, size int) {
			defer wg.Done()
			results[i], errs[i] = s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 100 + i, GroupSize: size})
		}(i, size)
	}
	wg.Wait()
	for _, err := range errs {
		require.NoError(t, err)
	}

	// Whatever order the joins serialized in, each start position must
	// be one past the total group size admitted before it, and no two
	// ranges may overlap.
	total := 0
	for _, size := range groupSizes {
		total += size
	}
	updated, found, err := s.GetQueue(ctx, queue.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, total, updated.CurrentCount)

	byPosition := make(map[int]models.Reservation, len(results))
	for _, reservation := range results {
		_, taken := byPosition[reservation.Position]
		require.False(t, taken, "duplicate start position %d", reservation.Position)
		byPosition[reservation.Position] = reservation
	}

	expected := 1
	for expected <= total {
		reservation, ok := byPosition[expected]
		require.True(t, ok, "no reservation starts at position %d", expected)
		expected += reservation.GroupSize
	}
	assert.Equal(t, total+1, expected)
}

func TestActiveReservationRecomputesPosition(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()
	joinedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 9, GroupSize: 13, JoinedAt: joinedAt})
	require.NoError(t, err)
	created, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1, GroupSize: 1, JoinedAt: joinedAt})
	require.NoError(t, err)
	require.Equal(t, 21, created.EstimatedWaitMinutes)

	// After 3 minutes two units have been served: 14 -> 12.
	detail, found, err := s.GetActiveReservation(ctx, 1, joinedAt.Add(3*time.Minute))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 12, detail.Position)
	assert.Equal(t, queue.ID, detail.Queue.ID)
	assert.Equal(t, "High City", detail.Venue.Name)

	// Reading twice inside the same minute bucket is idempotent.
	again, found, err := s.GetActiveReservation(ctx, 1, joinedAt.Add(3*time.Minute+20*time.Second))
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, detail.Position, again.Position)
}

func TestPositionNeverIncreasesAndFloorsAtOne(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()
	joinedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 9, GroupSize: 5, JoinedAt: joinedAt})
	require.NoError(t, err)
	_, err = s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1, JoinedAt: joinedAt})
	require.NoError(t, err)

	previous := 0
	for i, elapsed := range []time.Duration{0, time.Minute, 5 * time.Minute, 30 * time.Minute, 6 * time.Hour} {
		detail, found, err := s.GetActiveReservation(ctx, 1, joinedAt.Add(elapsed))
		require.NoError(t, err)
		require.True(t, found)
		assert.GreaterOrEqual(t, detail.Position, 1)
		if i > 0 {
			assert.LessOrEqual(t, detail.Position, previous)
		}
		previous = detail.Position
	}
	assert.Equal(t, 1, previous)
}

func TestListUserReservationsJoinsVenueAndQueue(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()
	joinedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	first, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1, JoinedAt: joinedAt})
	require.NoError(t, err)
	_, err = s.UpdateReservationStatus(ctx, store.UpdateStatusInput{ReservationID: first.ID, Status: models.StatusCompleted})
	require.NoError(t, err)
	_, err = s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1, JoinedAt: joinedAt})
	require.NoError(t, err)

	details, err := s.ListUserReservations(ctx, 1, joinedAt.Add(time.Minute))
	require.NoError(t, err)
	require.Len(t, details, 2)
	for _, detail := range details {
		assert.Equal(t, "High City", detail.Venue.Name)
		assert.Equal(t, "Main Entry", detail.Queue.Name)
	}
	assert.Equal(t, models.StatusCompleted, details[0].Reservation.Status)
	assert.Equal(t, models.StatusWaiting, details[1].Reservation.Status)
}

func TestTerminalReservationIsFrozen(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()
	joinedAt := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	_, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 9, GroupSize: 10, JoinedAt: joinedAt})
	require.NoError(t, err)
	created, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1, JoinedAt: joinedAt})
	require.NoError(t, err)

	completed, err := s.UpdateReservationStatus(ctx, store.UpdateStatusInput{
		ReservationID: created.ID,
		Status:        models.StatusCompleted,
		OccurredAt:    joinedAt.Add(time.Minute),
	})
	require.NoError(t, err)

	// The terminal reservation keeps its last position and timestamps no
	// matter how much time passes.
	details, err := s.ListUserReservations(ctx, 1, joinedAt.Add(2*time.Hour))
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, completed.Position, details[0].Position)
	assert.Equal(t, completed.UpdatedAt, details[0].UpdatedAt)
	assert.Equal(t, models.StatusCompleted, details[0].Reservation.Status)

	_, err = s.UpdateReservationStatus(ctx, store.UpdateStatusInput{ReservationID: created.ID, Status: models.StatusCancelled})
	assert.ErrorIs(t, err, store.ErrInvalidState)
}

func TestCancelledReservationIsNotActive(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()

	created, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1})
	require.NoError(t, err)

	_, err = s.UpdateReservationStatus(ctx, store.UpdateStatusInput{ReservationID: created.ID, Status: models.StatusCancelled})
	require.NoError(t, err)

	_, found, err := s.GetActiveReservation(ctx, 1, time.Now().UTC())
	require.NoError(t, err)
	assert.False(t, found)
}

func TestCalledReservationStillTransitions(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()

	created, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1})
	require.NoError(t, err)

	called, err := s.UpdateReservationStatus(ctx, store.UpdateStatusInput{ReservationID: created.ID, Status: models.StatusCalled})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCalled, called.Status)

	completed, err := s.UpdateReservationStatus(ctx, store.UpdateStatusInput{ReservationID: created.ID, Status: models.StatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, completed.Status)
}

func TestUpdateStatusUnknownReservation(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	_, err := s.UpdateReservationStatus(context.Background(), store.UpdateStatusInput{ReservationID: 42, Status: models.StatusCancelled})
	assert.ErrorIs(t, err, store.ErrReservationNotFound)
}

func TestCompletionKeepsCountByDefault(t *testing.T) {
	s, queue := newTestStore(t, Options{})
	ctx := context.Background()

	created, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1, GroupSize: 4})
	require.NoError(t, err)
	_, err = s.UpdateReservationStatus(ctx, store.UpdateStatusInput{ReservationID: created.ID, Status: models.StatusCompleted})
	require.NoError(t, err)

	updated, _, err := s.GetQueue(ctx, queue.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.CurrentCount, "count is not released unless the policy flag is on")
}

func TestReleaseOnExitDecrementsCount(t *testing.T) {
	s, queue := newTestStore(t, Options{ReleaseOnExit: true})
	ctx := context.Background()

	created, err := s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 1, GroupSize: 4})
	require.NoError(t, err)
	_, err = s.JoinQueue(ctx, store.JoinQueueInput{QueueID: queue.ID, UserID: 2, GroupSize: 2})
	require.NoError(t, err)

	_, err = s.UpdateReservationStatus(ctx, store.UpdateStatusInput{ReservationID: created.ID, Status: models.StatusCancelled})
	require.NoError(t, err)

	updated, _, err := s.GetQueue(ctx, queue.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.CurrentCount)
}

func TestReviews(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	review, err := s.CreateReview(ctx, store.CreateReviewInput{VenueID: 1, UserID: 1, Rating: 5, Comment: "worth the wait"})
	require.NoError(t, err)
	assert.Equal(t, 1, review.ID)

	reviews, err := s.ListReviews(ctx, 1)
	require.NoError(t, err)
	require.Len(t, reviews, 1)
	assert.Equal(t, "worth the wait", reviews[0].Comment)

	_, err = s.CreateReview(ctx, store.CreateReviewInput{VenueID: 99, UserID: 1, Rating: 3})
	assert.ErrorIs(t, err, store.ErrVenueNotFound)
}

func TestListVenuesFiltersInactiveAndCategory(t *testing.T) {
	s, _ := newTestStore(t, Options{})
	ctx := context.Background()

	s.AddVenue(models.Venue{Name: "Shut Down", NameAr: "مغلق", Category: "Entertainment", CategoryAr: "ترفيه", IsActive: false})
	s.AddVenue(models.Venue{Name: "Carnival", NameAr: "كرنفال", Category: "Theme Park", CategoryAr: "ملاهي", IsActive: true})

	venues, err := s.ListVenues(ctx, "")
	require.NoError(t, err)
	assert.Len(t, venues, 2)

	parks, err := s.ListVenues(ctx, "Theme Park")
	require.NoError(t, err)
	require.Len(t, parks, 1)
	assert.Equal(t, "Carnival", parks[0].Name)

	arabic, err := s.ListVenues(ctx, "ملاهي")
	require.NoError(t, err)
	assert.Len(t, arabic, 1)
}
