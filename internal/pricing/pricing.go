// Package pricing computes print prices and derives calculator prefill data
// from analysis results.
package pricing

import (
	"fmt"
	"math"

	"github.com/noah-isme/reprint-api/internal/models"
)

// BulkThreshold is the quantity above which the bulk discount applies.
const BulkThreshold = 100

const bulkDiscount = 0.9

var baseRates = map[models.Size]map[models.PrintColor]float64{
	models.SizeA4: {models.ColorBW: 1, models.ColorColor: 5},
	models.SizeA3: {models.ColorBW: 2, models.ColorColor: 10},
	models.SizeB4: {models.ColorBW: 1.5, models.ColorColor: 8},
}

var paperMultipliers = map[models.PaperType]float64{
	models.PaperPlain:   1,
	models.PaperDoubleA: 1.2,
	models.PaperCoated:  2.5,
	models.PaperIvory:   3.5,
}

// Papers lists the supported paper stocks in display order.
func Papers() []models.PaperType {
	return []models.PaperType{models.PaperPlain, models.PaperDoubleA, models.PaperCoated, models.PaperIvory}
}

// ValidPaper reports whether the paper stock has a multiplier.
func ValidPaper(p models.PaperType) bool {
	_, ok := paperMultipliers[p]
	return ok
}

// UnitPrice returns the per-sheet price after surcharges and discount.
func UnitPrice(size models.Size, color models.PrintColor, paper models.PaperType, hasMatte bool, quantity int) (float64, error) {
	rates, ok := baseRates[size]
	if !ok {
		return 0, fmt.Errorf("unsupported size %q", size)
	}
	base, ok := rates[color]
	if !ok {
		return 0, fmt.Errorf("unsupported color %q", color)
	}
	multiplier, ok := paperMultipliers[paper]
	if !ok {
		return 0, fmt.Errorf("unsupported paper %q", paper)
	}

	unit := base * multiplier
	if hasMatte {
		if size == models.SizeA3 {
			unit += 4
		} else {
			unit += 2
		}
	}
	if quantity > BulkThreshold {
		unit *= bulkDiscount
	}
	return unit, nil
}

// Estimate returns the rounded total price. Quantity must be at least 1.
func Estimate(size models.Size, color models.PrintColor, paper models.PaperType, hasMatte bool, quantity int) (int, error) {
	unit, err := UnitPrice(size, color, paper, hasMatte, quantity)
	if err != nil {
		return 0, err
	}
	return int(math.Round(unit * float64(quantity))), nil
}

// Quote prices a calculator request. Quantities below 1 are treated as 1.
func Quote(req models.EstimateRequest) (*models.Quote, error) {
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	unit, err := UnitPrice(req.Size, req.Color, req.Paper, req.HasMatte, req.Quantity)
	if err != nil {
		return nil, err
	}
	return &models.Quote{
		EstimateRequest: req,
		UnitPrice:       math.Round(unit*100) / 100,
		TotalPrice:      int(math.Round(unit * float64(req.Quantity))),
		Discounted:      req.Quantity > BulkThreshold,
	}, nil
}
