package server

import (
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/parkpro/internal/observability/logger"
	"github.com/smallbiznis/parkpro/internal/providers/pdf"
	"go.uber.org/zap"
)

func (s *Server) GetReceipt(c *gin.Context) {
	receipt, err := s.parkingSvc.GetReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": receipt})
}

func (s *Server) GetReceiptPDF(c *gin.Context) {
	ctx := c.Request.Context()
	receipt, err := s.parkingSvc.GetReceipt(ctx, c.Param("id"))
	if err != nil {
		AbortWithError(c, err)
		return
	}

	data := pdf.ReceiptDataFrom(receipt, s.cfg.Location())
	doc, err := s.pdf.GenerateReceipt(ctx, data)
	if err != nil {
		logger.FromContext(ctx).Error("render receipt pdf failed",
			zap.String("receipt_id", receipt.ID.String()),
			zap.Error(err),
		)
		AbortWithError(c, err)
		return
	}
	body, err := io.ReadAll(doc)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", pdf.FileName(data)))
	c.Data(http.StatusOK, "application/pdf", body)
}
