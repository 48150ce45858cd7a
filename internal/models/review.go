package models

import "time"

type Review struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	VenueID   int       `json:"venue_id"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment,omitempty"`
	CommentAr string    `json:"comment_ar,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
