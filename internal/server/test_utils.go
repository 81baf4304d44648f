package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type testCleanupRequest struct {
	PayerID string `json:"payerId"`
}

// TestCleanup bulk-deletes a payer's payments. Test fixture only, never
// exposed in production.
func (s *Server) TestCleanup(c *gin.Context) {
	if s.cfg.IsProduction() {
		AbortWithError(c, ErrNotFound)
		return
	}

	var req testCleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	payerID, err := uuid.Parse(strings.TrimSpace(req.PayerID))
	if err != nil || payerID == uuid.Nil {
		AbortWithError(c, newValidationError("payerId", "invalid_payer_id", "invalid payer ID"))
		return
	}

	res := s.db.WithContext(c.Request.Context()).Exec(
		`DELETE FROM payments WHERE payer_id = ?`, payerID,
	)
	if res.Error != nil {
		AbortWithError(c, res.Error)
		return
	}

	c.JSON(http.StatusOK, gin.H{"deleted": res.RowsAffected})
}
