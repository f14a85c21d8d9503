package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/reprint-api/internal/models"
)

func TestEstimateTable(t *testing.T) {
	cases := []struct {
		name     string
		size     models.Size
		color    models.PrintColor
		paper    models.PaperType
		matte    bool
		quantity int
		want     int
	}{
		{"a4 colour double a", models.SizeA4, models.ColorColor, models.PaperDoubleA, false, 1, 6},
		{"a3 colour coated matte", models.SizeA3, models.ColorColor, models.PaperCoated, true, 20, 580},
		{"a4 bw plain bulk", models.SizeA4, models.ColorBW, models.PaperPlain, false, 200, 180},
		{"b4 bw ivory matte", models.SizeB4, models.ColorBW, models.PaperIvory, true, 10, 73},
		{"a4 colour at threshold", models.SizeA4, models.ColorColor, models.PaperPlain, false, 100, 500},
		{"a4 colour above threshold", models.SizeA4, models.ColorColor, models.PaperPlain, false, 110, 495},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Estimate(tc.size, tc.color, tc.paper, tc.matte, tc.quantity)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestEstimateDeterministicAndMonotonic(t *testing.T) {
	for _, paper := range Papers() {
		prev := 0
		for q := 1; q <= BulkThreshold; q++ {
			a, err := Estimate(models.SizeA3, models.ColorColor, paper, true, q)
			require.NoError(t, err)
			b, _ := Estimate(models.SizeA3, models.ColorColor, paper, true, q)
			assert.Equal(t, a, b)
			assert.GreaterOrEqual(t, a, prev)
			prev = a
		}
	}

	without, _ := Estimate(models.SizeA4, models.ColorColor, models.PaperPlain, false, 10)
	with, _ := Estimate(models.SizeA4, models.ColorColor, models.PaperPlain, true, 10)
	assert.Greater(t, with, without)
}

func TestEstimateRejectsUnknownOptions(t *testing.T) {
	_, err := Estimate("A0", models.ColorColor, models.PaperPlain, false, 1)
	assert.Error(t, err)
	_, err = Estimate(models.SizeA4, models.ColorColor, "cardboard", false, 1)
	assert.Error(t, err)
}

func TestQuoteCoercesQuantity(t *testing.T) {
	q, err := Quote(models.EstimateRequest{Size: models.SizeA4, Color: models.ColorColor, Paper: models.PaperDoubleA, Quantity: 0})
	require.NoError(t, err)
	assert.Equal(t, 1, q.Quantity)
	assert.Equal(t, 6, q.TotalPrice)
	assert.InDelta(t, 6.0, q.UnitPrice, 0.001)
	assert.False(t, q.Discounted)
}

func TestDeriveEstimate(t *testing.T) {
	poster := DeriveEstimate(&models.AnalysisResult{Summary: "海報分析完成 (需修正)"}, "demo.pdf")
	assert.Equal(t, models.SizeA3, poster.Size)
	assert.Equal(t, models.PaperCoated, poster.Paper)
	assert.Equal(t, models.SourceAIAuto, poster.Source)
	assert.Equal(t, 1, poster.Quantity)
	assert.Equal(t, models.ColorColor, poster.Color)
	assert.False(t, poster.HasMatte)

	byName := DeriveEstimate(&models.AnalysisResult{Summary: "完美檔案"}, "Club_POSTER.pdf")
	assert.Equal(t, models.SizeA3, byName.Size)

	b4 := DeriveEstimate(&models.AnalysisResult{Summary: "B4 講義"}, "handout.pdf")
	assert.Equal(t, models.SizeB4, b4.Size)
	assert.Equal(t, models.PaperDoubleA, b4.Paper)

	general := DeriveEstimate(&models.AnalysisResult{Summary: "一般文件分析完成"}, "report.pdf")
	assert.Equal(t, models.SizeA4, general.Size)
	assert.Equal(t, models.PaperPlain, general.Paper)
	assert.Equal(t, "report.pdf", general.FileName)

	empty := DeriveEstimate(nil, "")
	assert.Equal(t, models.SizeA4, empty.Size)
	assert.Equal(t, models.PaperDoubleA, empty.Paper)
}
