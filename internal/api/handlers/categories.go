package handlers

import (
	"errors"
	"net/http"

	"github.com/dvloznov/dompet/internal/api/middleware"
	"github.com/dvloznov/dompet/internal/categories"
	"github.com/dvloznov/dompet/internal/domain"
	"github.com/dvloznov/dompet/internal/logger"
)

// CategoriesHandler handles category-related endpoints.
type CategoriesHandler struct {
	cache *categories.Cache
}

// NewCategoriesHandler creates a new categories handler.
func NewCategoriesHandler(cache *categories.Cache) *CategoriesHandler {
	return &CategoriesHandler{cache: cache}
}

type categoriesResponse struct {
	Expense  []string `json:"expense"`
	Income   []string `json:"income"`
	Fallback string   `json:"fallback"`
	// Options are the labels the entry form offers per type.
	Options map[domain.TransactionType][]string `json:"options"`
}

// GetCategories handles GET /api/categories
func (h *CategoriesHandler) GetCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	reg, err := h.cache.Registry(ctx, middleware.UserID(ctx))
	if err != nil {
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to load categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load categories")
		return
	}

	cats := reg.Categories()
	middleware.WriteJSON(w, http.StatusOK, categoriesResponse{
		Expense:  cats.Expense,
		Income:   cats.Income,
		Fallback: categories.Fallback,
		Options: map[domain.TransactionType][]string{
			domain.Expense: reg.Options(domain.Expense),
			domain.Income:  reg.Options(domain.Income),
		},
	})
}

// PutCategories handles PUT /api/categories. Both lists are replaced.
func (h *CategoriesHandler) PutCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req struct {
		Expense []string `json:"expense"`
		Income  []string `json:"income"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	cats := domain.UserCategories{Expense: req.Expense, Income: req.Income}
	if err := h.cache.Save(ctx, middleware.UserID(ctx), cats); err != nil {
		if errors.Is(err, categories.ErrEmptyLabel) || errors.Is(err, categories.ErrDuplicateLabel) {
			middleware.WriteError(w, http.StatusBadRequest, err.Error())
			return
		}
		log := logger.FromContext(ctx)
		log.Error().Err(err).Msg("Failed to save categories")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to save categories")
		return
	}

	h.GetCategories(w, r)
}
