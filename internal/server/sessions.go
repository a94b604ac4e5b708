package server

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	parkingdomain "github.com/smallbiznis/parkpro/internal/parking/domain"
)

type createSessionRequest struct {
	LicensePlate   string `json:"license_plate"`
	CustomerMobile string `json:"customer_mobile"`
	CustomerClass  string `json:"customer_class"`
}

func (s *Server) CreateSession(c *gin.Context) {
	var req createSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		AbortWithError(c, invalidRequestError())
		return
	}

	session, err := s.parkingSvc.Entry(c.Request.Context(), parkingdomain.EntryRequest{
		LicensePlate:   req.LicensePlate,
		CustomerMobile: req.CustomerMobile,
		CustomerClass:  req.CustomerClass,
	})
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"data": session})
}

func (s *Server) SearchParkedSessions(c *gin.Context) {
	plate := strings.TrimSpace(c.Query("plate"))
	if plate == "" {
		AbortWithError(c, newValidationError("plate", "required", "plate is required"))
		return
	}

	sessions, err := s.parkingSvc.FindByPlate(c.Request.Context(), plate)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": sessions})
}

func (s *Server) ListParkedSessions(c *gin.Context) {
	sessions, err := s.parkingSvc.ListParked(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if sessions == nil {
		sessions = []parkingdomain.Session{}
	}

	c.JSON(http.StatusOK, gin.H{"data": sessions})
}

func (s *Server) GetSession(c *gin.Context) {
	session, err := s.parkingSvc.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": session})
}

func (s *Server) CheckoutSession(c *gin.Context) {
	result, err := s.parkingSvc.Checkout(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": result})
}
