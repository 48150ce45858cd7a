package httpapi

import (
	"encoding/json"
	"errors"
	"expvar"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/ghamdiff/Line-UP/internal/models"
	"github.com/ghamdiff/Line-UP/internal/store"
)

type Handler struct {
	store store.ReservationStore
}

func NewHandler(store store.ReservationStore) *Handler {
	return &Handler{store: store}
}

func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", expvar.Handler())
	mux.HandleFunc("/healthz", h.handleHealth)
	mux.HandleFunc("/api/venues", h.handleListVenues)
	mux.HandleFunc("/api/venues/", h.handleVenueSubpaths)
	mux.HandleFunc("/api/queues/", h.handleGetQueue)
	mux.HandleFunc("/api/reservations", h.handleReservations)
	mux.HandleFunc("/api/reservations/active", h.handleActiveReservation)
	mux.HandleFunc("/api/reservations/", h.handleReservationActions)
	mux.HandleFunc("/api/reviews", h.handleCreateReview)
	return mux
}

type joinQueueRequest struct {
	QueueID   int  `json:"queue_id"`
	UserID    int  `json:"user_id"`
	GroupSize *int `json:"group_size"`
}

type statusRequest struct {
	Status string `json:"status"`
}

type createReviewRequest struct {
	VenueID   int    `json:"venue_id"`
	UserID    int    `json:"user_id"`
	Rating    int    `json:"rating"`
	Comment   string `json:"comment"`
	CommentAr string `json:"comment_ar"`
}

type errorResponse struct {
	Error responseError `json:"error"`
}

type responseError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// reservationResponse exposes the contiguous position range a group
// occupies alongside the first member's position.
type reservationResponse struct {
	models.Reservation
	PositionRange []int `json:"position_range,omitempty"`
}

type reservationDetailResponse struct {
	store.ReservationDetail
	PositionRange []int `json:"position_range,omitempty"`
}

func toReservationResponse(reservation models.Reservation) reservationResponse {
	resp := reservationResponse{Reservation: reservation}
	if reservation.GroupSize > 1 {
		start, end := reservation.PositionRange()
		resp.PositionRange = []int{start, end}
	}
	return resp
}

func toDetailResponse(detail store.ReservationDetail) reservationDetailResponse {
	resp := reservationDetailResponse{ReservationDetail: detail}
	if detail.GroupSize > 1 {
		start, end := detail.Reservation.PositionRange()
		resp.PositionRange = []int{start, end}
	}
	return resp
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) handleListVenues(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	venues, err := h.store.ListVenues(r.Context(), category)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if venues == nil {
		venues = []models.Venue{}
	}
	writeJSON(w, http.StatusOK, venues)
}

func (h *Handler) handleVenueSubpaths(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/venues/")
	parts := strings.Split(strings.Trim(path, "/"), "/")

	venueID, ok := parsePositiveInt(parts[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "venue id must be a positive integer")
		return
	}

	switch {
	case len(parts) == 1:
		h.handleGetVenue(w, r, venueID)
	case len(parts) == 2 && parts[1] == "queues":
		h.handleListQueues(w, r, venueID)
	case len(parts) == 2 && parts[1] == "reviews":
		h.handleListReviews(w, r, venueID)
	default:
		w.WriteHeader(http.StatusNotFound)
	}
}

func (h *Handler) handleGetVenue(w http.ResponseWriter, r *http.Request, venueID int) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	venue, found, err := h.store.GetVenue(r.Context(), venueID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "venue_not_found", "venue not found")
		return
	}
	writeJSON(w, http.StatusOK, venue)
}

func (h *Handler) handleListQueues(w http.ResponseWriter, r *http.Request, venueID int) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	queues, err := h.store.ListQueues(r.Context(), venueID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if queues == nil {
		queues = []models.Queue{}
	}
	writeJSON(w, http.StatusOK, queues)
}

func (h *Handler) handleListReviews(w http.ResponseWriter, r *http.Request, venueID int) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	reviews, err := h.store.ListReviews(r.Context(), venueID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if reviews == nil {
		reviews = []models.Review{}
	}
	writeJSON(w, http.StatusOK, reviews)
}

func (h *Handler) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/queues/")
	queueID, ok := parsePositiveInt(strings.Trim(path, "/"))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "queue id must be a positive integer")
		return
	}

	queue, found, err := h.store.GetQueue(r.Context(), queueID)
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if !found {
		writeError(w, http.StatusNotFound, "queue_not_found", "queue not found")
		return
	}
	writeJSON(w, http.StatusOK, queue)
}

func (h *Handler) handleReservations(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.handleJoinQueue(w, r)
	case http.MethodGet:
		h.handleListReservations(w, r)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handleJoinQueue(w http.ResponseWriter, r *http.Request) {
	var req joinQueueRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	if req.QueueID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "queue_id must be a positive integer")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id must be a positive integer")
		return
	}
	groupSize := 1
	if req.GroupSize != nil {
		if *req.GroupSize < 1 {
			writeError(w, http.StatusBadRequest, "invalid_request", "group_size must be a positive integer")
			return
		}
		groupSize = *req.GroupSize
	}

	reservation, err := h.store.JoinQueue(r.Context(), store.JoinQueueInput{
		QueueID:   req.QueueID,
		UserID:    req.UserID,
		GroupSize: groupSize,
		JoinedAt:  time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(reservation))
}

func (h *Handler) handleListReservations(w http.ResponseWriter, r *http.Request) {
	userID, ok := parsePositiveInt(strings.TrimSpace(r.URL.Query().Get("user_id")))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id must be a positive integer")
		return
	}

	details, err := h.store.ListUserReservations(r.Context(), userID, time.Now().UTC())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}

	responses := make([]reservationDetailResponse, 0, len(details))
	for _, detail := range details {
		responses = append(responses, toDetailResponse(detail))
	}
	writeJSON(w, http.StatusOK, responses)
}

func (h *Handler) handleActiveReservation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	userID, ok := parsePositiveInt(strings.TrimSpace(r.URL.Query().Get("user_id")))
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id must be a positive integer")
		return
	}

	detail, found, err := h.store.GetActiveReservation(r.Context(), userID, time.Now().UTC())
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	if !found {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, toDetailResponse(detail))
}

func (h *Handler) handleReservationActions(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	path := strings.TrimPrefix(r.URL.Path, "/api/reservations/")
	parts := strings.Split(strings.Trim(path, "/"), "/")
	if len(parts) != 2 || parts[1] != "status" {
		w.WriteHeader(http.StatusNotFound)
		return
	}

	reservationID, ok := parsePositiveInt(parts[0])
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_request", "reservation id must be a positive integer")
		return
	}

	var req statusRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	req.Status = strings.TrimSpace(req.Status)
	switch req.Status {
	case models.StatusCalled, models.StatusCompleted, models.StatusCancelled:
	default:
		writeError(w, http.StatusBadRequest, "invalid_request", "status must be one of called, completed, cancelled")
		return
	}

	reservation, err := h.store.UpdateReservationStatus(r.Context(), store.UpdateStatusInput{
		ReservationID: reservationID,
		Status:        req.Status,
		OccurredAt:    time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, toReservationResponse(reservation))
}

func (h *Handler) handleCreateReview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req createReviewRequest
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid JSON payload")
		return
	}

	if req.VenueID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "venue_id must be a positive integer")
		return
	}
	if req.Rating < 1 || req.Rating > 5 {
		writeError(w, http.StatusBadRequest, "invalid_request", "rating must be between 1 and 5")
		return
	}
	if req.UserID <= 0 {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id must be a positive integer")
		return
	}

	review, err := h.store.CreateReview(r.Context(), store.CreateReviewInput{
		VenueID:   req.VenueID,
		UserID:    req.UserID,
		Rating:    req.Rating,
		Comment:   strings.TrimSpace(req.Comment),
		CommentAr: strings.TrimSpace(req.CommentAr),
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		status, code, msg := mapError(err)
		writeError(w, status, code, msg)
		return
	}
	writeJSON(w, http.StatusOK, review)
}

func parsePositiveInt(value string) (int, bool) {
	parsed, err := strconv.Atoi(value)
	if err != nil || parsed <= 0 {
		return 0, false
	}
	return parsed, true
}

func mapError(err error) (int, string, string) {
	switch {
	case errors.Is(err, store.ErrVenueNotFound):
		return http.StatusNotFound, "venue_not_found", "venue not found"
	case errors.Is(err, store.ErrQueueNotFound):
		return http.StatusNotFound, "queue_not_found", "queue not found"
	case errors.Is(err, store.ErrReservationNotFound):
		return http.StatusNotFound, "reservation_not_found", "reservation not found"
	case errors.Is(err, store.ErrQueueInactive):
		return http.StatusConflict, "queue_inactive", "queue is not accepting joins"
	case errors.Is(err, store.ErrInvalidState):
		return http.StatusConflict, "invalid_state", "reservation state does not allow this transition"
	case errors.Is(err, store.ErrNegativeCount):
		return http.StatusInternalServerError, "invariant_violation", "queue count would become negative"
	default:
		return http.StatusInternalServerError, "internal_error", "internal server error"
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Error: responseError{
			Code:    code,
			Message: message,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(payload)
}
