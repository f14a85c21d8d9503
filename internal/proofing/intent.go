package proofing

import (
	"strings"

	"github.com/noah-isme/reprint-api/internal/models"
)

type intentKeyword struct {
	word string
	kind models.VisualKind
}

// intentKeywords are checked in order; the first keyword with an unfixed
// issue of its kind wins.
var intentKeywords = []intentKeyword{
	{"出血", models.VisualBleed},
	{"bleed", models.VisualBleed},
	{"邊緣", models.VisualBleed},
	{"解析度", models.VisualResolution},
	{"dpi", models.VisualResolution},
	{"畫質", models.VisualResolution},
	{"模糊", models.VisualResolution},
	{"安全區", models.VisualSafeZone},
	{"文字", models.VisualSafeZone},
	{"靠邊", models.VisualSafeZone},
	{"rgb", models.VisualGlobal},
	{"色彩", models.VisualGlobal},
	{"顏色", models.VisualGlobal},
}

// HighlightIntent flashes the first unfixed issue matching a chat message
// and forces the AI marker layer visible. It returns the issue index.
func (w *Workspace) HighlightIntent(text string) (int, bool) {
	if w.current == nil || w.current.project.AnalysisResult == nil {
		return -1, false
	}
	lower := strings.ToLower(text)
	issues := w.current.project.AnalysisResult.Issues
	for _, kw := range intentKeywords {
		if !strings.Contains(lower, kw.word) {
			continue
		}
		for i, issue := range issues {
			if issue.VisualKind != kw.kind {
				continue
			}
			if _, done := w.current.fixed[i]; done {
				continue
			}
			w.highlight = &highlight{index: i, until: w.opts.Now().Add(HighlightDuration)}
			w.layers.AIMarkers = true
			return i, true
		}
	}
	return -1, false
}

func (w *Workspace) activeHighlight() *int {
	if w.highlight == nil {
		return nil
	}
	if !w.opts.Now().Before(w.highlight.until) {
		w.highlight = nil
		return nil
	}
	idx := w.highlight.index
	return &idx
}
