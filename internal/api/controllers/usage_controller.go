package controllers

import (
	"context"
	"crypto/subtle"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pixtouch/internal/services"
	"pixtouch/pkg/utils"
)

type UsageController struct {
	usageService services.UsageServiceInterface
}

func NewUsageController(usageService services.UsageServiceInterface) *UsageController {
	return &UsageController{
		usageService: usageService,
	}
}

// GetUsage godoc
// @Summary Current usage and balance
// @Tags Usage
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Security BearerAuth
// @Router /usage [get]
func (u *UsageController) GetUsage(c *gin.Context) {
	accountID := c.MustGet("account_id").(uuid.UUID)

	result, err := u.usageService.Snapshot(context.Background(), accountID)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Usage snapshot")
}

// ResetUsage godoc
// @Summary Reset elapsed daily usage counters
// @Description Cron endpoint, authorized by the CRON_SECRET bearer token
// @Tags Usage
// @Produce json
// @Success 200 {object} utils.APIResponse
// @Failure 401 {object} utils.APIResponse
// @Router /cron/reset-usage [get]
func (u *UsageController) ResetUsage(c *gin.Context) {
	secret := os.Getenv("CRON_SECRET")
	provided := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
	if secret == "" || subtle.ConstantTimeCompare([]byte(secret), []byte(provided)) != 1 {
		utils.RespondError(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	affected, err := u.usageService.ResetDueCounters(context.Background())
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, gin.H{"reset": affected}, "Usage counters reset")
}
