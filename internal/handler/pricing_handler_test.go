package handler

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reprint-api/internal/models"
)

func TestPricingHandlerEstimate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewPricingHandler()

	body, _ := json.Marshal(models.EstimateRequest{Size: models.SizeA4, Color: models.ColorColor, Paper: models.PaperDoubleA, Quantity: 0})
	c, w := newGinContext(http.MethodPost, "/pricing/estimate", body)
	handler.Estimate(c)
	require.Equal(t, http.StatusOK, w.Code)

	var quote models.Quote
	require.NoError(t, json.Unmarshal(decodeEnvelope(w).Data, &quote))
	assert.Equal(t, 1, quote.Quantity)
	assert.Equal(t, 6, quote.TotalPrice)

	body, _ = json.Marshal(models.EstimateRequest{Size: models.SizeA4, Color: models.ColorColor, Paper: "cardboard", Quantity: 2})
	c, w = newGinContext(http.MethodPost, "/pricing/estimate", body)
	handler.Estimate(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPricingHandlerOptions(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, w := newGinContext(http.MethodGet, "/pricing/options", nil)
	NewPricingHandler().Options(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Double A (80g)")
}
