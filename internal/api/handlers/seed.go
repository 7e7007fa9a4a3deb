package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/fdtrend-go/internal/services"
	"github.com/sirupsen/logrus"
)

type SeedHandler struct {
	seeder *services.SeedService
	logger *logrus.Logger
}

func NewSeedHandler(seeder *services.SeedService, logger *logrus.Logger) *SeedHandler {
	return &SeedHandler{seeder: seeder, logger: logger}
}

// Seed replaces all rates with generated sample data.
func (h *SeedHandler) Seed(c *gin.Context) {
	count, err := h.seeder.Seed(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err, "")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Sample data seeded successfully",
		"count":   count,
	})
}
