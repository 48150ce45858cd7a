package store

import "github.com/ghamdiff/Line-UP/internal/models"

var transitionMap = map[string][]string{
	models.StatusCalled:    {models.StatusWaiting},
	models.StatusCompleted: {models.StatusWaiting, models.StatusCalled},
	models.StatusCancelled: {models.StatusWaiting, models.StatusCalled},
}

func ValidTransition(target, fromStatus string) bool {
	allowed, ok := transitionMap[target]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

func KnownStatus(status string) bool {
	switch status {
	case models.StatusWaiting, models.StatusCalled, models.StatusCompleted, models.StatusCancelled:
		return true
	}
	return false
}
