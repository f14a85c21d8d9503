package proofing

import "github.com/noah-isme/reprint-api/internal/models"

// View is a render-ready snapshot of the workspace.
type View struct {
	Mode          Mode              `json:"mode"`
	Tab           Tab               `json:"tab"`
	Zoom          int               `json:"zoom"`
	Tool          Tool              `json:"tool"`
	Layers        Layers            `json:"layers"`
	Plan          Plan              `json:"plan"`
	User          *models.User      `json:"user,omitempty"`
	LoginPrompt   bool              `json:"login_prompt"`
	Analyzing     bool              `json:"analyzing"`
	Generation    uint64            `json:"generation"`
	Project       *models.Project   `json:"project,omitempty"`
	FixedIssues   []int             `json:"fixed_issues"`
	UnfixedIssues []UnfixedIssue    `json:"unfixed_issues"`
	PendingMarker *models.Point     `json:"pending_marker,omitempty"`
	ForcePrint    *ForcePrintPrompt `json:"force_print,omitempty"`
	Highlighted   *int              `json:"highlighted_issue,omitempty"`
	Markers       []Marker          `json:"markers"`
	CommentPins   []CommentPin      `json:"comment_pins"`
}

// Snapshot captures the current workspace state.
func (w *Workspace) Snapshot() View {
	v := View{
		Mode:          w.mode,
		Tab:           w.tab,
		Zoom:          w.zoom,
		Tool:          w.tool,
		Layers:        w.layers,
		Plan:          w.plan,
		User:          w.User(),
		LoginPrompt:   w.loginPrompt,
		Analyzing:     w.Analyzing(),
		Generation:    w.generation,
		Project:       w.CurrentProject(),
		FixedIssues:   w.FixedIssues(),
		UnfixedIssues: w.UnfixedIssues(),
		Highlighted:   w.activeHighlight(),
		Markers:       w.Markers(),
		CommentPins:   w.CommentPins(),
	}
	if v.FixedIssues == nil {
		v.FixedIssues = []int{}
	}
	if v.UnfixedIssues == nil {
		v.UnfixedIssues = []UnfixedIssue{}
	}
	if w.pendingMarker != nil {
		p := *w.pendingMarker
		v.PendingMarker = &p
	}
	if w.forcePrint != nil {
		fp := *w.forcePrint
		v.ForcePrint = &fp
	}
	return v
}
