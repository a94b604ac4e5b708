package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	pricingdomain "github.com/smallbiznis/parkpro/internal/pricing/domain"
)

type updatePricingRequest struct {
	HourlyRate              decimal.Decimal `json:"hourly_rate"`
	DailyRate               decimal.Decimal `json:"daily_rate"`
	MonthlyRate             decimal.Decimal `json:"monthly_rate"`
	DailyRateHoursThreshold decimal.Decimal `json:"daily_rate_hours_threshold"`
}

func (s *Server) GetPricingConfig(c *gin.Context) {
	cfg, err := s.pricingSvc.GetConfig(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cfg})
}

func (s *Server) UpdatePricingConfig(c *gin.Context) {
	var req updatePricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	cfg, err := s.pricingSvc.UpdateConfig(c.Request.Context(), pricingdomain.UpdateRequest{
		HourlyRate:              req.HourlyRate,
		DailyRate:               req.DailyRate,
		MonthlyRate:             req.MonthlyRate,
		DailyRateHoursThreshold: req.DailyRateHoursThreshold,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": cfg})
}
