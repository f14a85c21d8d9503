package models

// IssueKind classifies an analysis finding.
type IssueKind string

const (
	IssueError   IssueKind = "error"
	IssueWarning IssueKind = "warning"
	IssueSuccess IssueKind = "success"
)

// VisualKind selects how an issue is drawn on the canvas.
type VisualKind string

const (
	VisualBleed      VisualKind = "bleed"
	VisualSafeZone   VisualKind = "safe-zone"
	VisualResolution VisualKind = "resolution"
	VisualGlobal     VisualKind = "global"
	VisualNone       VisualKind = "none"
)

// Rect is a region in percent of the canvas. X and Y are the centre.
type Rect struct {
	X float64  `json:"x"`
	Y float64  `json:"y"`
	W *float64 `json:"w,omitempty"`
	H *float64 `json:"h,omitempty"`
}

// NewRect builds a rect with width and height.
func NewRect(x, y, w, h float64) *Rect {
	return &Rect{X: x, Y: y, W: &w, H: &h}
}

// NewPoint builds a rect without extent.
func NewPoint(x, y float64) *Rect {
	return &Rect{X: x, Y: y}
}

// Issue is a single analysis finding. Issues are identified by position.
type Issue struct {
	Kind        IssueKind  `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	VisualKind  VisualKind `json:"visual_kind"`
	VisualLabel string     `json:"visual_label,omitempty"`
	Rect        *Rect      `json:"rect,omitempty"`
}

// Actionable reports whether the issue can be fixed. Success items cannot.
func (i Issue) Actionable() bool {
	return i.Kind != IssueSuccess
}

// AnalysisResult is the immutable output of one file analysis.
type AnalysisResult struct {
	Score      int     `json:"score"`
	Summary    string  `json:"summary"`
	PreviewRef string  `json:"preview_ref,omitempty"`
	Issues     []Issue `json:"issues"`
}

// Clone returns a deep copy so callers cannot mutate a stored result.
func (r *AnalysisResult) Clone() *AnalysisResult {
	if r == nil {
		return nil
	}
	out := *r
	out.Issues = make([]Issue, len(r.Issues))
	for i, issue := range r.Issues {
		if issue.Rect != nil {
			rect := *issue.Rect
			issue.Rect = &rect
		}
		out.Issues[i] = issue
	}
	return &out
}
