package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/pricing"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
	"github.com/noah-isme/reprint-api/pkg/response"
)

// PricingHandler serves the price calculator.
type PricingHandler struct{}

// NewPricingHandler constructs the handler.
func NewPricingHandler() *PricingHandler {
	return &PricingHandler{}
}

// Estimate godoc
// @Summary Price a print job
// @Description Returns the unit and total price. Quantities below 1 are priced as 1.
// @Tags Pricing
// @Accept json
// @Produce json
// @Param payload body models.EstimateRequest true "Print options"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /pricing/estimate [post]
func (h *PricingHandler) Estimate(c *gin.Context) {
	var req models.EstimateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid estimate payload"))
		return
	}
	quote, err := pricing.Quote(req)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, err.Error()))
		return
	}
	response.JSON(c, http.StatusOK, quote)
}

// Options godoc
// @Summary Calculator options
// @Tags Pricing
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /pricing/options [get]
func (h *PricingHandler) Options(c *gin.Context) {
	response.JSON(c, http.StatusOK, gin.H{
		"sizes":          []models.Size{models.SizeA4, models.SizeA3, models.SizeB4},
		"colors":         []models.PrintColor{models.ColorBW, models.ColorColor},
		"papers":         pricing.Papers(),
		"bulk_threshold": pricing.BulkThreshold,
	})
}
