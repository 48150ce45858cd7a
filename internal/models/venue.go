package models

import "time"

type Venue struct {
	ID          int       `json:"id"`
	Name        string    `json:"name"`
	NameAr      string    `json:"name_ar"`
	Category    string    `json:"category"`
	CategoryAr  string    `json:"category_ar"`
	Description string    `json:"description,omitempty"`
	Address     string    `json:"address,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	Rating      string    `json:"rating"`
	ImageURL    string    `json:"image_url,omitempty"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
