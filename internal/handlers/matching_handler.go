package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mentorhub/mentorhub-api/internal/middleware"
	"github.com/mentorhub/mentorhub-api/internal/services"
)

// MatchingHandler serves mentor recommendations
type MatchingHandler struct {
	service services.MatchingServiceInterface
}

// NewMatchingHandler creates a new MatchingHandler
func NewMatchingHandler(service services.MatchingServiceInterface) *MatchingHandler {
	return &MatchingHandler{service: service}
}

// MatchMentors handles GET /api/v1/students/match-mentors
func (h *MatchingHandler) MatchMentors(c *gin.Context) {
	session, err := middleware.GetUserSession(c)
	if err != nil {
		respondError(c, http.StatusUnauthorized, "Unauthorized", err)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			respondErrorWithDetails(c, http.StatusBadRequest, "Validation failed",
				[]ValidationError{{Field: "limit", Message: "limit must be an integer"}}, err)
			return
		}
	}

	response, err := h.service.MatchMentors(c.Request.Context(), session.UserID, limit)
	if err != nil {
		respondServiceError(c, err, "Failed to match mentors")
		return
	}

	c.JSON(http.StatusOK, response)
}
