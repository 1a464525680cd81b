package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/surimakeskilled/carrental/internal/lifecycle"
	"github.com/surimakeskilled/carrental/pkg/utils"
)

// respondError maps a lifecycle error to its HTTP status. Anything outside
// the taxonomy is a 500 and gets logged; its detail is not leaked.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, lifecycle.ErrValidation):
		c.JSON(400, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrUnauthorized):
		c.JSON(403, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrNotFound):
		c.JSON(404, gin.H{"error": err.Error()})
	case errors.Is(err, lifecycle.ErrStateConflict):
		c.JSON(409, gin.H{"error": err.Error()})
	default:
		utils.Error("internal error", map[string]any{
			"path":  c.FullPath(),
			"error": err.Error(),
		})
		c.JSON(500, gin.H{"error": "Internal server error"})
	}
}
