package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"pixtouch/internal/models/request_models"
	"pixtouch/internal/services"
	"pixtouch/pkg/utils"
)

type GenerationController struct {
	generationService services.GenerationServiceInterface
}

func NewGenerationController(generationService services.GenerationServiceInterface) *GenerationController {
	return &GenerationController{
		generationService: generationService,
	}
}

// Generate godoc
// @Summary Generate an edited image
// @Description Debit one credit and run the edit; the credit is refunded if the model fails
// @Tags Generation
// @Accept json
// @Produce json
// @Param request body request_models.GenerateRequest true "Generation payload"
// @Success 200 {object} utils.APIResponse
// @Failure 402 {object} utils.APIResponse
// @Failure 502 {object} utils.APIResponse
// @Security BearerAuth
// @Router /generate [post]
func (g *GenerationController) Generate(c *gin.Context) {
	var req request_models.GenerateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.RespondError(c, http.StatusBadRequest, "Invalid request format")
		return
	}

	accountID := c.MustGet("account_id").(uuid.UUID)

	// The request context is handed down so the service can detach the
	// settlement from a client disconnect.
	result, err := g.generationService.Generate(c.Request.Context(), accountID, req)
	if err != nil {
		utils.HandleServiceError(c, err)
		return
	}

	utils.RespondSuccess(c, result, "Image generated")
}
