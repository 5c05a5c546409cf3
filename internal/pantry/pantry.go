package pantry

import (
	"errors"
	"strings"
	"time"
)

var (
	// ErrEmptyName is returned when an item name is blank after trimming
	ErrEmptyName = errors.New("item name is required")

	// ErrEmptyTitle is returned when saving a recipe without a title
	ErrEmptyTitle = errors.New("recipe title is required")

	// ErrNoIngredients is returned when a recipe is requested with an empty ingredient list
	ErrNoIngredients = errors.New("at least one ingredient is required")

	// ErrInvalidCapture is returned for capture ids with no stored frame, or whose frame already belongs to an item
	ErrInvalidCapture = errors.New("invalid capture id")

	// ErrEmptyFrame is returned when a capture carries no image data
	ErrEmptyFrame = errors.New("no image provided")

	// ErrNoPhoto is returned when an item has no captured photo
	ErrNoPhoto = errors.New("item has no photo")
)

// Item is a pantry record. Name is the case-folded key: "Milk" and "milk" are the same item.
type Item struct {
	Name    string    `json:"name"`
	Count   int       `json:"count"`
	Note    string    `json:"note,omitempty"`
	Photo   string    `json:"photo,omitempty"` // capture id of the item's photo in Storage
	AddedAt time.Time `json:"added_at"`        // set on first add, never overwritten
}

// Recipe is a saved generation result. Recipes are never updated, only deleted.
type Recipe struct {
	ID           string    `json:"id"`
	Title        string    `json:"title"`
	Ingredients  string    `json:"ingredients"`
	Instructions string    `json:"instructions"`
	CreatedAt    time.Time `json:"created_at"`
}

// Capture is a stored camera frame waiting for the user to confirm its label
type Capture struct {
	ID    string `json:"id"`
	Label string `json:"label"` // empty when the labeler produced nothing
}

// ItemKey folds a display name into the store key
func ItemKey(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
