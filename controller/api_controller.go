package controller

import (
	"net/http"

	"github.com/devspace/skills-analyzer/config"
	"github.com/devspace/skills-analyzer/model"
	"github.com/devspace/skills-analyzer/service"
	"github.com/gin-gonic/gin"
)

type APIController interface {
	AnalyzeSkills(ctx *gin.Context)
}

type apiController struct {
	analysisService service.AnalysisService
	config          config.Config
}

func NewAPIController(config config.Config, analysisService service.AnalysisService) APIController {
	return apiController{
		analysisService: analysisService,
		config:          config,
	}
}

func (s apiController) AnalyzeSkills(c *gin.Context) {
	var req model.AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, model.NewAPIError(model.ErrInvalidUsername))
		return
	}

	// the rate limit identity is the network origin, not the analyzed username
	result, err := s.analysisService.Analyze(c.Request.Context(), c.ClientIP(), req.Username)
	if err != nil {
		c.JSON(model.StatusCode(err), model.NewAPIError(err))
		return
	}

	c.JSON(http.StatusOK, result)
}
