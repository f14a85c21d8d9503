package pricing

import (
	"strings"

	"github.com/noah-isme/reprint-api/internal/models"
)

// DeriveEstimate maps an analysis result and file name to calculator prefill
// data. Poster keywords win over B4; the plain-paper keywords apply on top.
func DeriveEstimate(result *models.AnalysisResult, fileName string) models.EstimateData {
	data := models.EstimateData{
		FileName: fileName,
		Size:     models.SizeA4,
		Color:    models.ColorColor,
		Paper:    models.PaperDoubleA,
		Quantity: 1,
		HasMatte: false,
		Source:   models.SourceAIAuto,
	}

	summary := ""
	if result != nil {
		summary = strings.ToLower(result.Summary)
	}
	name := strings.ToLower(fileName)

	switch {
	case containsAny(summary, "poster", "海報", "a3") || containsAny(name, "poster", "海報", "a3"):
		data.Size = models.SizeA3
		data.Paper = models.PaperCoated
	case strings.Contains(summary, "b4") || strings.Contains(name, "b4"):
		data.Size = models.SizeB4
	}

	if containsAny(summary, "一般", "文件") {
		data.Paper = models.PaperPlain
	}
	return data
}

func containsAny(s string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}
