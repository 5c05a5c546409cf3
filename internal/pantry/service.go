package pantry

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/zombor/pantry-tracker/internal/generation"
)

// IDGenerator generates unique IDs for recipes and captures
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates random UUIDs
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service handles pantry and recipe operations
type Service struct {
	db          DB
	labeler     generation.Labeler
	generator   generation.RecipeGenerator
	storage     Storage
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, labeler generation.Labeler, generator generation.RecipeGenerator, storage Storage) *Service {
	return NewServiceWithDeps(db, labeler, generator, storage, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, labeler generation.Labeler, generator generation.RecipeGenerator, storage Storage, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		labeler:     labeler,
		generator:   generator,
		storage:     storage,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// ListItems returns the pantry filtered and sorted by the view state
func (s *Service) ListItems(view ViewState) ([]*Item, error) {
	items, err := s.db.ListItems()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return view.Apply(items), nil
}

// AddItem stocks one of the named item. A confirmed capture becomes the item's
// photo if it does not have one yet; otherwise the frame is discarded.
func (s *Service) AddItem(name, note, captureID string) (*Item, error) {
	if ItemKey(name) == "" {
		return nil, ErrEmptyName
	}
	if captureID != "" {
		if err := s.checkCapture(captureID); err != nil {
			return nil, err
		}
	}

	item, err := s.db.IncrementItem(name, strings.TrimSpace(note), captureID, s.timeSource.Now())
	if err != nil {
		return nil, fmt.Errorf("adding item: %w", err)
	}

	if captureID != "" && item.Photo != captureID {
		s.deleteFrame(captureID)
	}
	return item, nil
}

// checkCapture accepts only a stored frame that no item has claimed yet
func (s *Service) checkCapture(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidCapture
	}
	if _, err := s.storage.Get(id); err != nil {
		return ErrInvalidCapture
	}

	items, err := s.db.ListItems()
	if err != nil {
		return fmt.Errorf("listing items: %w", err)
	}
	for _, item := range items {
		if item.Photo == id {
			return ErrInvalidCapture
		}
	}
	return nil
}

// RemoveItem takes one of the named item out of the pantry. Unknown items are ignored.
func (s *Service) RemoveItem(name string) error {
	item, deleted, err := s.db.DecrementItem(name)
	if err != nil {
		return fmt.Errorf("removing item: %w", err)
	}
	if deleted && item.Photo != "" {
		s.deleteFrame(item.Photo)
	}
	return nil
}

// RenameItem moves an item to a new name. An item already stored under the
// new name is overwritten. Unknown items are ignored and return nil.
func (s *Service) RenameItem(oldName, newName string) (*Item, error) {
	if ItemKey(newName) == "" {
		return nil, ErrEmptyName
	}

	renamed, replaced, err := s.db.RenameItem(oldName, newName)
	if err != nil {
		return nil, fmt.Errorf("renaming item: %w", err)
	}
	if replaced != nil {
		slog.Warn("Rename overwrote existing item",
			"from", ItemKey(oldName),
			"to", replaced.Name,
			"overwritten_count", replaced.Count,
		)
		if replaced.Photo != "" && replaced.Photo != renamed.Photo {
			s.deleteFrame(replaced.Photo)
		}
	}
	return renamed, nil
}

// SetNote replaces an item's note. Unknown items are ignored and return nil.
func (s *Service) SetNote(name, note string) (*Item, error) {
	item, err := s.db.SetItemNote(name, note)
	if err != nil {
		return nil, fmt.Errorf("setting note: %w", err)
	}
	return item, nil
}

// ItemPhoto returns an item's captured photo and its content type
func (s *Service) ItemPhoto(name string) ([]byte, string, error) {
	item, err := s.db.GetItem(name)
	if err != nil {
		return nil, "", fmt.Errorf("getting item: %w", err)
	}
	if item.Photo == "" {
		return nil, "", ErrNoPhoto
	}

	data, err := s.storage.Get(item.Photo)
	if err != nil {
		return nil, "", fmt.Errorf("getting photo: %w", err)
	}
	return data, http.DetectContentType(data), nil
}

// CaptureItem stores a camera frame and asks the labeler what it shows.
// A labeler failure is not an error: the capture comes back with an empty
// label and the user names the item by hand.
func (s *Service) CaptureItem(ctx context.Context, data []byte, contentType string) (*Capture, error) {
	if len(data) == 0 {
		return nil, ErrEmptyFrame
	}

	id := s.idGenerator.Generate()
	if err := s.storage.Save(id, data); err != nil {
		return nil, fmt.Errorf("saving frame: %w", err)
	}

	label, err := s.labeler.LabelItem(ctx, data, contentType)
	if err != nil {
		slog.Warn("No label produced for capture",
			"capture_id", id,
			"content_type", contentType,
			"file_size", len(data),
			"error", err,
		)
		label = ""
	}

	return &Capture{ID: id, Label: label}, nil
}

// DiscardCapture drops a frame the user retook or abandoned
func (s *Service) DiscardCapture(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidCapture
	}
	if err := s.storage.Delete(id); err != nil {
		return fmt.Errorf("discarding capture: %w", err)
	}
	return nil
}

// deleteFrame removes a frame that is no longer referenced, logging failures
func (s *Service) deleteFrame(id string) {
	if err := s.storage.Delete(id); err != nil {
		slog.Warn("Failed to delete frame", "capture_id", id, "error", err)
	}
}

// GenerateRecipe asks the generator for a recipe from the given ingredients
func (s *Service) GenerateRecipe(ctx context.Context, ingredients []string) (*generation.RecipeData, error) {
	tags := NewIngredientTags(ingredients)
	if len(tags) == 0 {
		return nil, ErrNoIngredients
	}

	recipe, err := s.generator.GenerateRecipe(ctx, tags)
	if err != nil {
		return nil, fmt.Errorf("generating recipe: %w", err)
	}
	return recipe, nil
}

// GenerateFromPantry generates a recipe from the checked pantry items.
// Names no longer in the pantry are dropped.
func (s *Service) GenerateFromPantry(ctx context.Context, names []string) (*generation.RecipeData, error) {
	items, err := s.db.ListItems()
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}

	stocked := make(map[string]bool, len(items))
	for _, item := range items {
		stocked[item.Name] = true
	}

	var selected IngredientTags
	for _, name := range names {
		if key := ItemKey(name); stocked[key] {
			selected = selected.Add(key)
		}
	}
	return s.GenerateRecipe(ctx, selected)
}

// SurpriseRecipe asks for a recipe of the generator's choosing
func (s *Service) SurpriseRecipe(ctx context.Context) (*generation.RecipeData, error) {
	return s.GenerateRecipe(ctx, []string{generation.SurpriseMe})
}

// SaveRecipe persists an accepted generation result
func (s *Service) SaveRecipe(data *generation.RecipeData) (*Recipe, error) {
	if strings.TrimSpace(data.Title) == "" {
		return nil, ErrEmptyTitle
	}

	recipe := &Recipe{
		ID:           s.idGenerator.Generate(),
		Title:        strings.TrimSpace(data.Title),
		Ingredients:  data.Ingredients,
		Instructions: data.Instructions,
		CreatedAt:    s.timeSource.Now(),
	}
	if err := s.db.SaveRecipe(recipe); err != nil {
		return nil, fmt.Errorf("saving recipe: %w", err)
	}
	return recipe, nil
}

// GetRecipe retrieves a recipe by ID
func (s *Service) GetRecipe(id string) (*Recipe, error) {
	recipe, err := s.db.GetRecipe(id)
	if err != nil {
		return nil, fmt.Errorf("getting recipe: %w", err)
	}
	return recipe, nil
}

// ListRecipes returns all saved recipes
func (s *Service) ListRecipes() ([]*Recipe, error) {
	recipes, err := s.db.ListRecipes()
	if err != nil {
		return nil, fmt.Errorf("listing recipes: %w", err)
	}
	return recipes, nil
}

// DeleteRecipe removes a saved recipe
func (s *Service) DeleteRecipe(id string) error {
	if err := s.db.DeleteRecipe(id); err != nil {
		return fmt.Errorf("deleting recipe: %w", err)
	}
	return nil
}

// RecipeBoard is what the recipe page loads when it opens
type RecipeBoard struct {
	Pantry  []string  `json:"pantry"`
	Recipes []*Recipe `json:"recipes"`
}

// RecipeBoard loads the pantry item names and the saved recipes concurrently
func (s *Service) RecipeBoard(ctx context.Context) (*RecipeBoard, error) {
	board := &RecipeBoard{}
	g, _ := errgroup.WithContext(ctx)

	g.Go(func() error {
		items, err := s.db.ListItems()
		if err != nil {
			return fmt.Errorf("listing items: %w", err)
		}
		byName := ViewState{Sort: SortNameAsc}
		board.Pantry = make([]string, 0, len(items))
		for _, item := range byName.Apply(items) {
			board.Pantry = append(board.Pantry, item.Name)
		}
		return nil
	})

	g.Go(func() error {
		recipes, err := s.ListRecipes()
		if err != nil {
			return err
		}
		board.Recipes = recipes
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return board, nil
}
