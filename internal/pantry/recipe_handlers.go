package pantry

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/zombor/pantry-tracker/internal/generation"
)

// writeGenerated writes the generation result, or the fixed failure body
func writeGenerated(w http.ResponseWriter, recipe *generation.RecipeData, err error) {
	if err != nil {
		if errors.Is(err, ErrNoIngredients) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error generating recipe", "error", err)
		jsonError(w, "Failed to generate recipe", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"recipe": recipe})
}

// handleGenerateRecipe generates from a manual ingredient list or the surprise sentinel
func (s *Server) handleGenerateRecipe(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Ingredients []string `json:"ingredients"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	recipe, err := s.service.GenerateRecipe(r.Context(), req.Ingredients)
	writeGenerated(w, recipe, err)
}

// handleGenerateFromPantry generates from the pantry items checked in the picker
func (s *Server) handleGenerateFromPantry(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Names []string `json:"names"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	recipe, err := s.service.GenerateFromPantry(r.Context(), req.Names)
	writeGenerated(w, recipe, err)
}

// handleRecipeBoard returns pantry names and saved recipes for the recipe page
func (s *Server) handleRecipeBoard(w http.ResponseWriter, r *http.Request) {
	board, err := s.service.RecipeBoard(r.Context())
	if err != nil {
		slog.Error("Error loading recipe board", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, board)
}

// handleListRecipes returns all saved recipes
func (s *Server) handleListRecipes(w http.ResponseWriter, r *http.Request) {
	recipes, err := s.service.ListRecipes()
	if err != nil {
		slog.Error("Error listing recipes", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// Ensure we always return an array, not nil
	if recipes == nil {
		recipes = []*Recipe{}
	}
	writeJSON(w, http.StatusOK, recipes)
}

// handleGetRecipe returns a single saved recipe
func (s *Server) handleGetRecipe(w http.ResponseWriter, r *http.Request) {
	recipe, err := s.service.GetRecipe(r.PathValue("id"))
	if err != nil {
		jsonError(w, "Recipe not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, recipe)
}

// handleSaveRecipe persists a generated recipe the user accepted
func (s *Server) handleSaveRecipe(w http.ResponseWriter, r *http.Request) {
	var req generation.RecipeData
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		jsonError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	recipe, err := s.service.SaveRecipe(&req)
	if err != nil {
		if errors.Is(err, ErrEmptyTitle) {
			jsonError(w, err.Error(), http.StatusBadRequest)
			return
		}
		slog.Error("Error saving recipe", "error", err)
		jsonError(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusCreated, recipe)
}

// handleDeleteRecipe removes a saved recipe
func (s *Server) handleDeleteRecipe(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := s.service.DeleteRecipe(id); err != nil {
		slog.Error("Error deleting recipe", "id", id, "error", err)
		jsonError(w, "Error deleting recipe", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
