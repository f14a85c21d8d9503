package proofing

import "github.com/noah-isme/reprint-api/internal/models"

// Marker is one overlay drawn for an unfixed issue. Concrete types are
// BleedFrame, SafeZoneFrame, ResolutionPin and GlobalBanner.
type Marker interface {
	Kind() models.VisualKind
}

type markerBase struct {
	Type        models.VisualKind `json:"type"`
	IssueIndex  int               `json:"issue_index"`
	Label       string            `json:"label"`
	Highlighted bool              `json:"highlighted"`
}

func (m markerBase) Kind() models.VisualKind { return m.Type }

// BleedFrame is a solid frame around the trim area with outward arrows.
type BleedFrame struct {
	markerBase
	Frame       models.Rect  `json:"frame"`
	LabelAnchor models.Point `json:"label_anchor"`
}

// SafeZoneFrame is a dashed frame around content too close to the edge.
type SafeZoneFrame struct {
	markerBase
	Frame models.Rect `json:"frame"`
}

// ResolutionPin marks a low resolution image.
type ResolutionPin struct {
	markerBase
	At models.Point `json:"at"`
}

// GlobalBanner flags a document-wide problem such as the colour space.
type GlobalBanner struct {
	markerBase
	Message string `json:"message"`
}

// CommentPin is a positioned user comment drawn on the canvas.
type CommentPin struct {
	CommentID  string          `json:"comment_id"`
	At         models.Point    `json:"at"`
	Role       models.UserRole `json:"role"`
	AuthorName string          `json:"author_name"`
	Text       string          `json:"text"`
}

// markerFor picks the overlay for an issue. Issues without a region draw
// nothing except global ones.
func markerFor(index int, issue models.Issue, highlighted bool) Marker {
	base := markerBase{Type: issue.VisualKind, IssueIndex: index, Label: issue.VisualLabel, Highlighted: highlighted}
	switch issue.VisualKind {
	case models.VisualBleed:
		if issue.Rect == nil {
			return nil
		}
		if base.Label == "" {
			base.Label = issue.Title
		}
		frame := *issue.Rect
		return BleedFrame{
			markerBase:  base,
			Frame:       frame,
			LabelAnchor: models.Point{X: 50, Y: frame.Y - deref(frame.H)/2},
		}
	case models.VisualSafeZone:
		if issue.Rect == nil {
			return nil
		}
		if base.Label == "" {
			base.Label = "文字請往內移"
		}
		return SafeZoneFrame{markerBase: base, Frame: *issue.Rect}
	case models.VisualResolution:
		if issue.Rect == nil {
			return nil
		}
		if base.Label == "" {
			base.Label = "DPI 過低"
		}
		return ResolutionPin{markerBase: base, At: models.Point{X: issue.Rect.X, Y: issue.Rect.Y}}
	case models.VisualGlobal:
		if base.Label == "" {
			base.Label = issue.Title
		}
		return GlobalBanner{markerBase: base, Message: issue.Description}
	case models.VisualNone:
		return nil
	}
	return nil
}

// Markers returns the overlays for the current project. Fixed issues and a
// hidden AI layer draw nothing.
func (w *Workspace) Markers() []Marker {
	out := make([]Marker, 0)
	if !w.layers.AIMarkers || w.current == nil || w.current.project.AnalysisResult == nil {
		return out
	}
	hi := w.activeHighlight()
	for i, issue := range w.current.project.AnalysisResult.Issues {
		if _, done := w.current.fixed[i]; done {
			continue
		}
		if m := markerFor(i, issue, hi != nil && *hi == i); m != nil {
			out = append(out, m)
		}
	}
	return out
}

// CommentPins returns positioned comments when the comment layer is visible.
func (w *Workspace) CommentPins() []CommentPin {
	out := make([]CommentPin, 0)
	if !w.layers.Comments || w.current == nil {
		return out
	}
	for _, c := range w.current.project.Comments {
		if c.IsSystem || c.Position == nil {
			continue
		}
		out = append(out, CommentPin{CommentID: c.ID, At: *c.Position, Role: c.Role, AuthorName: c.AuthorName, Text: c.Text})
	}
	return out
}

func deref(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
