package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"pawmatch-backend/internal/middleware"
	"pawmatch-backend/internal/models"
	"pawmatch-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// PetHandler handles pet-related HTTP requests
type PetHandler struct {
	pets *services.PetService
}

// NewPetHandler creates a new pet handler
func NewPetHandler(pets *services.PetService) *PetHandler {
	return &PetHandler{pets: pets}
}

// CreatePetRequest represents the request body for creating a pet
type CreatePetRequest struct {
	Name    string `json:"name"`
	Species string `json:"species"`
	Breed   string `json:"breed"`
	Bio     string `json:"bio"`
}

// CreatePet handles POST /api/v1/pets
func (h *PetHandler) CreatePet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req CreatePetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "Invalid request body", "bad_request", http.StatusBadRequest)
		return
	}
	if req.Name == "" || req.Species == "" {
		respondError(w, "name and species are required", "bad_request", http.StatusBadRequest)
		return
	}

	pet, err := h.pets.CreatePet(ctx, userID, req.Name, req.Species, req.Breed, req.Bio)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create pet")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("user_id", userID).Str("pet_id", pet.ID).Msg("Pet created")
	respondJSON(w, http.StatusCreated, pet)
}

// AvailablePets handles GET /api/v1/pets/available
func (h *PetHandler) AvailablePets(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	filters := services.FeedFilters{
		Species: r.URL.Query().Get("species"),
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		filters.Limit, _ = strconv.Atoi(v)
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		filters.Offset, _ = strconv.Atoi(v)
	}

	pets, err := h.pets.AvailablePets(ctx, userID, filters)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to list available pets")
		respondServiceError(w, err)
		return
	}

	if pets == nil {
		pets = []*models.Pet{}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"pets": pets})
}
