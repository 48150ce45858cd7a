package seed

import (
	"strconv"

	"github.com/ghamdiff/Line-UP/internal/models"
	"github.com/ghamdiff/Line-UP/internal/store"
	"github.com/ghamdiff/Line-UP/internal/store/memory"
)

// Demo loads the demo venue catalog into an in-memory store and opens
// one entry queue per venue. Initial occupancy tracks the venue's
// rating: better-rated venues start busier.
func Demo(s *memory.Store) {
	venues := []models.Venue{
		{
			Name:        "Soudah Cable Car",
			NameAr:      "تلفريك السودة",
			Category:    "Entertainment",
			CategoryAr:  "ترفيه",
			Description: "A scenic cable car experience offering breathtaking views of the Asir mountains and valleys.",
			Address:     "Soudah, Asir Region, Saudi Arabia",
			Phone:       "+966920000089",
			Rating:      "4.7",
			IsActive:    true,
		},
		{
			Name:        "High City",
			NameAr:      "المدينة العالية",
			Category:    "Entertainment",
			CategoryAr:  "ترفيه",
			Description: "A modern mountaintop destination in Abha offering dining, entertainment, and stunning mountain views.",
			Address:     "High City, King Abdulaziz Road, Abha 62521, Saudi Arabia",
			Phone:       "+966172289090",
			Rating:      "4.8",
			IsActive:    true,
		},
		{
			Name:        "Abha Entertainment Carnival",
			NameAr:      "كرنفال أبها الترفيهي",
			Category:    "Theme Park",
			CategoryAr:  "ملاهي",
			Description: "A family-friendly carnival in Abha featuring cultural shows, games, local markets, food trucks, and scenic seating areas.",
			Address:     "Sama Abha Park & Art Street, Abha, Asir Region, Saudi Arabia",
			Phone:       "+966920000089",
			Rating:      "4.4",
			IsActive:    true,
		},
	}

	for _, venue := range venues {
		created := s.AddVenue(venue)
		s.AddQueue(models.Queue{
			VenueID:               created.ID,
			Name:                  "Main Entry",
			NameAr:                "الدخول الرئيسي",
			MaxCapacity:           100,
			CurrentCount:          initialCount(created.Rating),
			ServiceMinutesPerUnit: store.DefaultServiceMinutesPerUnit,
			IsActive:              true,
		})
	}
}

func initialCount(rating string) int {
	value, err := strconv.ParseFloat(rating, 64)
	if err != nil {
		value = 0
	}
	switch {
	case value >= 4.8:
		return 32
	case value >= 4.5:
		return 13
	default:
		return 7
	}
}
