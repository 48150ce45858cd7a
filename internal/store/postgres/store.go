package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/ghamdiff/Line-UP/internal/models"
	"github.com/ghamdiff/Line-UP/internal/store"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Store struct {
	pool           *pgxpool.Pool
	releaseOnExit  bool
	minutesPerUnit float64
}

type Options struct {
	ReleaseOnExit         bool
	ServiceMinutesPerUnit float64
}

func NewStore(pool *pgxpool.Pool, options Options) *Store {
	rate := options.ServiceMinutesPerUnit
	if rate <= 0 {
		rate = store.DefaultServiceMinutesPerUnit
	}
	return &Store{
		pool:           pool,
		releaseOnExit:  options.ReleaseOnExit,
		minutesPerUnit: rate,
	}
}

func (s *Store) ListVenues(ctx context.Context, category string) ([]models.Venue, error) {
	query := `
		SELECT id, name, name_ar, category, category_ar, description, address, phone, rating, image_url, is_active, created_at
		FROM venues
		WHERE is_active = TRUE
	`
	args := []interface{}{}
	if category != "" {
		query += " AND (category = $1 OR category_ar = $1)"
		args = append(args, category)
	}
	query += " ORDER BY id ASC"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var venues []models.Venue
	for rows.Next() {
		venue, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		venues = append(venues, venue)
	}
	return venues, rows.Err()
}

func (s *Store) GetVenue(ctx context.Context, venueID int) (models.Venue, bool, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT id, name, name_ar, category, category_ar, description, address, phone, rating, image_url, is_active, created_at
		FROM venues
		WHERE id = $1
	`, venueID)
	venue, err := scanVenue(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Venue{}, false, nil
		}
		return models.Venue{}, false, err
	}
	return venue, true, nil
}

func (s *Store) ListQueues(ctx context.Context, venueID int) ([]models.Queue, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, venue_id, name, name_ar, max_capacity, current_count, service_minutes_per_unit, is_active, created_at
		FROM queues
		WHERE venue_id = $1 AND is_active = TRUE
		ORDER BY id ASC
	`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var queues []models.Queue
	for rows.Next() {
		var queue models.Queue
		if err := rows.Scan(&queue.ID, &queue.VenueID, &queue.Name, &queue.NameAr, &queue.MaxCapacity, &queue.CurrentCount, &queue.ServiceMinutesPerUnit, &queue.IsActive, &queue.CreatedAt); err != nil {
			return nil, err
		}
		queues = append(queues, queue)
	}
	return queues, rows.Err()
}

func (s *Store) GetQueue(ctx context.Context, queueID int) (models.Queue, bool, error) {
	var queue models.Queue
	row := s.pool.QueryRow(ctx, `
		SELECT id, venue_id, name, name_ar, max_capacity, current_count, service_minutes_per_unit, is_active, created_at
		FROM queues
		WHERE id = $1
	`, queueID)
	if err := row.Scan(&queue.ID, &queue.VenueID, &queue.Name, &queue.NameAr, &queue.MaxCapacity, &queue.CurrentCount, &queue.ServiceMinutesPerUnit, &queue.IsActive, &queue.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Queue{}, false, nil
		}
		return models.Queue{}, false, err
	}
	return queue, true, nil
}

func (s *Store) JoinQueue(ctx context.Context, input store.JoinQueueInput) (models.Reservation, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reservation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	// The queue row lock serializes concurrent joins so position
	// assignment and the count increment act as one atomic unit.
	var currentCount int
	var minutesPerUnit float64
	var isActive bool
	row := tx.QueryRow(ctx, `
		SELECT current_count, service_minutes_per_unit, is_active
		FROM queues
		WHERE id = $1
		FOR UPDATE
	`, input.QueueID)
	if err = row.Scan(&currentCount, &minutesPerUnit, &isActive); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrQueueNotFound
		}
		return models.Reservation{}, err
	}
	if !isActive {
		err = store.ErrQueueInactive
		return models.Reservation{}, err
	}

	groupSize := input.GroupSize
	if groupSize < 1 {
		groupSize = 1
	}
	joinedAt := input.JoinedAt
	if joinedAt.IsZero() {
		joinedAt = time.Now().UTC()
	}
	if minutesPerUnit <= 0 {
		minutesPerUnit = s.minutesPerUnit
	}

	position := store.JoinPosition(currentCount)
	estimate := store.EstimateWaitMinutes(position, minutesPerUnit)

	reservation := models.Reservation{
		UserID:               input.UserID,
		QueueID:              input.QueueID,
		Position:             position,
		GroupSize:            groupSize,
		EstimatedWaitMinutes: estimate,
		Status:               models.StatusWaiting,
		CreatedAt:            joinedAt,
		UpdatedAt:            joinedAt,
	}
	row = tx.QueryRow(ctx, `
		INSERT INTO reservations (user_id, queue_id, position, group_size, estimated_wait_minutes, status, qr_code, notification_sent, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,'',FALSE,$7,$7)
		RETURNING id
	`, input.UserID, input.QueueID, position, groupSize, estimate, models.StatusWaiting, joinedAt)
	if err = row.Scan(&reservation.ID); err != nil {
		return models.Reservation{}, err
	}

	reservation.QRCode = fmt.Sprintf("QR-%d-%s", reservation.ID, uuid.NewString())
	if _, err = tx.Exec(ctx, `UPDATE reservations SET qr_code = $2 WHERE id = $1`, reservation.ID, reservation.QRCode); err != nil {
		return models.Reservation{}, err
	}

	if _, err = tx.Exec(ctx, `UPDATE queues SET current_count = current_count + $2 WHERE id = $1`, input.QueueID, groupSize); err != nil {
		return models.Reservation{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Reservation{}, err
	}
	return reservation, nil
}

func (s *Store) ListUserReservations(ctx context.Context, userID int, now time.Time) ([]store.ReservationDetail, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	details, err := s.loadDetails(ctx, tx, `r.user_id = $1`, userID, now)
	if err != nil {
		return nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, err
	}
	return details, nil
}

func (s *Store) GetActiveReservation(ctx context.Context, userID int, now time.Time) (store.ReservationDetail, bool, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return store.ReservationDetail{}, false, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	details, err := s.loadDetails(ctx, tx, `r.user_id = $1 AND r.status = 'waiting'`, userID, now)
	if err != nil {
		return store.ReservationDetail{}, false, err
	}
	if err = tx.Commit(ctx); err != nil {
		return store.ReservationDetail{}, false, err
	}
	if len(details) == 0 {
		return store.ReservationDetail{}, false, nil
	}
	return details[0], true, nil
}

// loadDetails reads reservations with their queue and venue and, for
// waiting rows, persists the freshly recomputed position before
// returning. Runs inside the caller's transaction so the
// read-modify-write stays atomic.
func (s *Store) loadDetails(ctx context.Context, tx pgx.Tx, where string, userID int, now time.Time) ([]store.ReservationDetail, error) {
	rows, err := tx.Query(ctx, `
		SELECT r.id, r.user_id, r.queue_id, r.position, r.group_size, r.estimated_wait_minutes, r.status, r.qr_code, r.notification_sent, r.created_at, r.updated_at,
		       q.id, q.venue_id, q.name, q.name_ar, q.max_capacity, q.current_count, q.service_minutes_per_unit, q.is_active, q.created_at,
		       v.id, v.name, v.name_ar, v.category, v.category_ar, v.description, v.address, v.phone, v.rating, v.image_url, v.is_active, v.created_at
		FROM reservations r
		JOIN queues q ON q.id = r.queue_id
		JOIN venues v ON v.id = q.venue_id
		WHERE `+where+`
		ORDER BY r.id ASC
		FOR UPDATE OF r
	`, userID)
	if err != nil {
		return nil, err
	}

	var details []store.ReservationDetail
	for rows.Next() {
		var d store.ReservationDetail
		var descNull, addrNull, phoneNull, imageNull sql.NullString
		if err := rows.Scan(
			&d.ID, &d.UserID, &d.QueueID, &d.Position, &d.GroupSize, &d.EstimatedWaitMinutes, &d.Reservation.Status, &d.QRCode, &d.NotificationSent, &d.Reservation.CreatedAt, &d.UpdatedAt,
			&d.Queue.ID, &d.Queue.VenueID, &d.Queue.Name, &d.Queue.NameAr, &d.Queue.MaxCapacity, &d.Queue.CurrentCount, &d.Queue.ServiceMinutesPerUnit, &d.Queue.IsActive, &d.Queue.CreatedAt,
			&d.Venue.ID, &d.Venue.Name, &d.Venue.NameAr, &d.Venue.Category, &d.Venue.CategoryAr, &descNull, &addrNull, &phoneNull, &d.Venue.Rating, &imageNull, &d.Venue.IsActive, &d.Venue.CreatedAt,
		); err != nil {
			rows.Close()
			return nil, err
		}
		d.Venue.Description = descNull.String
		d.Venue.Address = addrNull.String
		d.Venue.Phone = phoneNull.String
		d.Venue.ImageURL = imageNull.String
		details = append(details, d)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range details {
		d := &details[i]
		if d.Reservation.Status != models.StatusWaiting {
			continue
		}
		rate := d.Queue.ServiceMinutesPerUnit
		if rate <= 0 {
			rate = s.minutesPerUnit
		}
		fresh := store.RecomputePosition(d.EstimatedWaitMinutes, rate, d.Reservation.CreatedAt, now)
		if fresh == d.Position {
			continue
		}
		if _, err := tx.Exec(ctx, `UPDATE reservations SET position = $2 WHERE id = $1`, d.ID, fresh); err != nil {
			return nil, err
		}
		d.Position = fresh
	}
	return details, nil
}

func (s *Store) UpdateReservationStatus(ctx context.Context, input store.UpdateStatusInput) (models.Reservation, error) {
	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return models.Reservation{}, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var current string
	var queueID, groupSize int
	row := tx.QueryRow(ctx, `
		SELECT status, queue_id, group_size
		FROM reservations
		WHERE id = $1
		FOR UPDATE
	`, input.ReservationID)
	if err = row.Scan(&current, &queueID, &groupSize); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = store.ErrReservationNotFound
		}
		return models.Reservation{}, err
	}
	if !store.ValidTransition(input.Status, current) {
		err = store.ErrInvalidState
		return models.Reservation{}, err
	}

	if s.releaseOnExit && models.TerminalStatus(input.Status) {
		var count int
		row = tx.QueryRow(ctx, `SELECT current_count FROM queues WHERE id = $1 FOR UPDATE`, queueID)
		if err = row.Scan(&count); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				err = store.ErrQueueNotFound
			}
			return models.Reservation{}, err
		}
		if count-groupSize < 0 {
			err = store.ErrNegativeCount
			return models.Reservation{}, err
		}
		if _, err = tx.Exec(ctx, `UPDATE queues SET current_count = current_count - $2 WHERE id = $1`, queueID, groupSize); err != nil {
			return models.Reservation{}, err
		}
	}

	occurredAt := input.OccurredAt
	if occurredAt.IsZero() {
		occurredAt = time.Now().UTC()
	}

	var reservation models.Reservation
	row = tx.QueryRow(ctx, `
		UPDATE reservations
		SET status = $2, updated_at = $3
		WHERE id = $1
		RETURNING id, user_id, queue_id, position, group_size, estimated_wait_minutes, status, qr_code, notification_sent, created_at, updated_at
	`, input.ReservationID, input.Status, occurredAt)
	if err = row.Scan(&reservation.ID, &reservation.UserID, &reservation.QueueID, &reservation.Position, &reservation.GroupSize, &reservation.EstimatedWaitMinutes, &reservation.Status, &reservation.QRCode, &reservation.NotificationSent, &reservation.CreatedAt, &reservation.UpdatedAt); err != nil {
		return models.Reservation{}, err
	}

	if err = tx.Commit(ctx); err != nil {
		return models.Reservation{}, err
	}
	return reservation, nil
}

func (s *Store) ListReviews(ctx context.Context, venueID int) ([]models.Review, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, user_id, venue_id, rating, comment, comment_ar, created_at
		FROM reviews
		WHERE venue_id = $1
		ORDER BY id ASC
	`, venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []models.Review
	for rows.Next() {
		var review models.Review
		var commentNull, commentArNull sql.NullString
		if err := rows.Scan(&review.ID, &review.UserID, &review.VenueID, &review.Rating, &commentNull, &commentArNull, &review.CreatedAt); err != nil {
			return nil, err
		}
		review.Comment = commentNull.String
		review.CommentAr = commentArNull.String
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}

func (s *Store) CreateReview(ctx context.Context, input store.CreateReviewInput) (models.Review, error) {
	var exists bool
	row := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM venues WHERE id = $1)`, input.VenueID)
	if err := row.Scan(&exists); err != nil {
		return models.Review{}, err
	}
	if !exists {
		return models.Review{}, store.ErrVenueNotFound
	}

	createdAt := input.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	review := models.Review{
		UserID:    input.UserID,
		VenueID:   input.VenueID,
		Rating:    input.Rating,
		Comment:   input.Comment,
		CommentAr: input.CommentAr,
		CreatedAt: createdAt,
	}
	r := s.pool.QueryRow(ctx, `
		INSERT INTO reviews (user_id, venue_id, rating, comment, comment_ar, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id
	`, input.UserID, input.VenueID, input.Rating, nullIfEmpty(input.Comment), nullIfEmpty(input.CommentAr), createdAt)
	if err := r.Scan(&review.ID); err != nil {
		return models.Review{}, err
	}
	return review, nil
}

func scanVenue(row pgx.Row) (models.Venue, error) {
	var venue models.Venue
	var descNull, addrNull, phoneNull, imageNull sql.NullString
	if err := row.Scan(&venue.ID, &venue.Name, &venue.NameAr, &venue.Category, &venue.CategoryAr, &descNull, &addrNull, &phoneNull, &venue.Rating, &imageNull, &venue.IsActive, &venue.CreatedAt); err != nil {
		return models.Venue{}, err
	}
	venue.Description = descNull.String
	venue.Address = addrNull.String
	venue.Phone = phoneNull.String
	venue.ImageURL = imageNull.String
	return venue, nil
}

func nullIfEmpty(value string) interface{} {
	if value == "" {
		return nil
	}
	return value
}
