package http

import (
	"errors"
	"log"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/basketly/backend/internal/domain"
	"github.com/basketly/backend/internal/infrastructure/stores"
	"github.com/basketly/backend/internal/usecase"
)

// Handler holds dependencies for HTTP handlers
type Handler struct {
	search   *usecase.SearchService
	lists    *usecase.ListService
	registry *stores.Registry
	maxFetch int
}

// NewHandler creates a new HTTP handler. maxFetch caps how many results a
// single search may pull per store regardless of the requested page size.
func NewHandler(search *usecase.SearchService, lists *usecase.ListService, registry *stores.Registry, maxFetch int) *Handler {
	if maxFetch <= 0 {
		maxFetch = 100
	}
	return &Handler{
		search:   search,
		lists:    lists,
		registry: registry,
		maxFetch: maxFetch,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "basketly-backend",
		"version": "1.0.0",
	})
}

// ListStores returns the supported store selectors
func (h *Handler) ListStores(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"stores":  h.registry.List(),
	})
}

type searchRequest struct {
	Query   string `json:"query"`
	Store   string `json:"store"`
	Page    int    `json:"page"`
	PerPage int    `json:"perPage"`
}

// SearchProducts handles product search requests across one store or all
func (h *Handler) SearchProducts(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return
	}

	req.Query = strings.TrimSpace(req.Query)
	if req.Query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Query cannot be empty"})
		return
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PerPage < 1 {
		req.PerPage = 10
	}
	if req.Store == "" {
		req.Store = stores.SelectorAll
	}

	// Fetch more than one page's worth so pagination has depth, bounded by
	// the configured cap.
	maxResults := req.PerPage * 3
	if maxResults > h.maxFetch {
		maxResults = h.maxFetch
	}

	result, err := h.search.Search(c.Request.Context(), req.Query, req.Store, req.Page, req.PerPage, maxResults)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":            true,
		"query":              req.Query,
		"store":              req.Store,
		"page":               req.Page,
		"perPage":            req.PerPage,
		"totalResults":       result.TotalResults,
		"currentPageResults": result.CurrentPageResults,
		"hasMore":            result.HasMore,
		"cached":             result.Cached,
		"products":           result.Products,
		"warnings":           result.Warnings,
	})
}

// ClearCache removes all cached search results
func (h *Handler) ClearCache(c *gin.Context) {
	cleared := h.search.ClearCache(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"clearedCount": cleared,
	})
}

type generateRequest struct {
	SearchTerms        []string `json:"searchTerms"`
	Budget             float64  `json:"budget"`
	SelectedStores     []string `json:"selectedStores"`
	MaxResultsPerStore int      `json:"maxResultsPerStore"`
	UsedProductIDs     []string `json:"usedProductIds"`
	UsedListNames      []string `json:"usedListNames"`
}

func (h *Handler) validateGenerateRequest(c *gin.Context) (*generateRequest, bool) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
		return nil, false
	}

	hasTerm := false
	for _, t := range req.SearchTerms {
		if strings.TrimSpace(t) != "" {
			hasTerm = true
			break
		}
	}
	if !hasTerm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "searchTerms must contain at least one non-empty term"})
		return nil, false
	}
	if req.Budget <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "budget must be a positive number"})
		return nil, false
	}
	if req.MaxResultsPerStore < 1 || req.MaxResultsPerStore > h.maxFetch {
		req.MaxResultsPerStore = h.maxFetch / 2
	}

	return &req, true
}

// GenerateLists produces four budget-bounded shopping lists for a fresh session
func (h *Handler) GenerateLists(c *gin.Context) {
	req, ok := h.validateGenerateRequest(c)
	if !ok {
		return
	}

	result, err := h.lists.GenerateLists(c.Request.Context(), req.SearchTerms, req.Budget, req.SelectedStores, req.MaxResultsPerStore)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"sessionId":               result.SessionID,
		"lists":                   result.Lists,
		"usedProductIds":          result.UsedProductIDs,
		"usedListNames":           result.UsedListNames,
		"totalProductsFound":      result.TotalProductsFound,
		"affordableProductsCount": result.AffordableProductsCount,
		"warnings":                result.Warnings,
	})
}

// GenerateMoreLists produces four additional lists disjoint from the
// carried-over session state
func (h *Handler) GenerateMoreLists(c *gin.Context) {
	req, ok := h.validateGenerateRequest(c)
	if !ok {
		return
	}

	result, err := h.lists.GenerateMoreLists(c.Request.Context(), req.SearchTerms, req.Budget, req.SelectedStores, req.MaxResultsPerStore, req.UsedProductIDs, req.UsedListNames)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":                 true,
		"sessionId":               result.SessionID,
		"lists":                   result.Lists,
		"usedProductIds":          result.UsedProductIDs,
		"usedListNames":           result.UsedListNames,
		"totalProductsFound":      result.TotalProductsFound,
		"affordableProductsCount": result.AffordableProductsCount,
		"warnings":                result.Warnings,
	})
}

// writeError maps domain errors onto HTTP responses. Internal failures are
// logged with context and reported generically so stack detail never leaks.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrUnknownStore):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":       err.Error(),
			"validStores": h.registry.ValidIDs(),
		})
	case errors.Is(err, domain.ErrInvalidRequest):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrAllStoresFailed):
		resp := gin.H{"error": "All store fetches failed"}
		var agg *domain.AggregateError
		if errors.As(err, &agg) {
			resp["warnings"] = agg.Warnings
		}
		c.JSON(http.StatusBadGateway, resp)
	default:
		log.Printf("[HTTP] internal error on %s: %v", c.FullPath(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}
