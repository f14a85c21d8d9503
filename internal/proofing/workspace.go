// Package proofing implements the proofing and annotation workspace: a
// per-session state machine over projects, versions, comments and the
// analysis issues drawn on the canvas.
package proofing

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/reprint-api/internal/models"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
)

// Mode is the workspace open state.
type Mode string

const (
	ModeClosed Mode = "closed"
	ModeOpen   Mode = "open"
)

// Tab is the active side panel of an open workspace.
type Tab string

const (
	TabEditor   Tab = "editor"
	TabComments Tab = "comments"
	TabHistory  Tab = "history"
	TabProjects Tab = "projects"
	TabSettings Tab = "settings"
	TabChat     Tab = "chat"
)

// Tool is the editor interaction mode. It has no effect on data.
type Tool string

const (
	ToolMove   Tool = "move"
	ToolCrop   Tool = "crop"
	ToolText   Tool = "text"
	ToolLayers Tool = "layers"
)

// Layer names a toggleable canvas layer.
type Layer string

const (
	LayerImage     Layer = "image"
	LayerAIMarkers Layer = "ai_markers"
	LayerComments  Layer = "comments"
)

// Plan is the subscription tier chosen in the settings tab.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
	PlanEdu  Plan = "edu"
)

const (
	DefaultZoom           = 85
	MinZoom               = 10
	MaxZoom               = 200
	ZoomStep              = 10
	DefaultScoreIncrement = 10
	DefaultReviewerEmail  = "teacher@demo.edu"
	HighlightDuration     = 4 * time.Second
)

// Layers holds canvas layer visibility.
type Layers struct {
	Image     bool `json:"image"`
	AIMarkers bool `json:"ai_markers"`
	Comments  bool `json:"comments"`
}

// Options configures a workspace.
type Options struct {
	ScoreIncrement int
	DefaultZoom    int
	ReviewerEmail  string
	Now            func() time.Time
	NewID          func() string
	// SkipFixtures starts the workspace without the demo projects.
	SkipFixtures bool
}

func (o Options) withDefaults() Options {
	if o.ScoreIncrement <= 0 {
		o.ScoreIncrement = DefaultScoreIncrement
	}
	if o.DefaultZoom == 0 {
		o.DefaultZoom = DefaultZoom
	}
	o.DefaultZoom = clampZoom(o.DefaultZoom)
	if o.ReviewerEmail == "" {
		o.ReviewerEmail = DefaultReviewerEmail
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.NewID == nil {
		o.NewID = uuid.NewString
	}
	return o
}

type projectState struct {
	project models.Project
	fixed   map[int]struct{}
}

type pendingAnalysis struct {
	ticket     uint64
	fileName   string
	previewRef string
	path       string
}

type highlight struct {
	index int
	until time.Time
}

// Workspace is the proofing state of one session. It is not safe for
// concurrent use; callers serialise access.
type Workspace struct {
	opts Options

	user        *models.User
	loginPrompt bool

	mode   Mode
	tab    Tab
	zoom   int
	tool   Tool
	layers Layers
	plan   Plan

	projects []*projectState
	current  *projectState

	pendingMarker *models.Point
	forcePrint    *ForcePrintPrompt
	highlight     *highlight

	generation uint64
	analysis   *pendingAnalysis
}

// New builds a closed workspace seeded with the demo projects.
func New(opts Options) *Workspace {
	opts = opts.withDefaults()
	w := &Workspace{
		opts:   opts,
		mode:   ModeClosed,
		tab:    TabEditor,
		zoom:   opts.DefaultZoom,
		tool:   ToolMove,
		layers: Layers{Image: true, AIMarkers: true, Comments: true},
		plan:   PlanFree,
	}
	if !opts.SkipFixtures {
		for _, p := range demoProjects() {
			w.projects = append(w.projects, &projectState{project: p, fixed: map[int]struct{}{}})
		}
	}
	return w
}

// User returns the session user, if any.
func (w *Workspace) User() *models.User {
	if w.user == nil {
		return nil
	}
	u := *w.user
	return &u
}

// Mode returns the current mode.
func (w *Workspace) Mode() Mode { return w.mode }

// Tab returns the active tab.
func (w *Workspace) Tab() Tab { return w.tab }

// Zoom returns the zoom percentage.
func (w *Workspace) Zoom() int { return w.zoom }

// Generation returns the current async request generation.
func (w *Workspace) Generation() uint64 { return w.generation }

// Open enters the workspace in the editor tab. Without a session user the
// login prompt is raised and ErrLoginRequired returned.
func (w *Workspace) Open() error {
	if w.user == nil {
		w.loginPrompt = true
		return appErrors.ErrLoginRequired
	}
	w.mode = ModeOpen
	w.tab = TabEditor
	return nil
}

// Login sets the acting user, replacing any earlier one. When a login prompt
// is pending the workspace opens straight into the editor.
func (w *Workspace) Login(user models.User) error {
	if !user.Role.Valid() {
		return appErrors.Field("role", "unknown role")
	}
	w.user = &user
	if w.loginPrompt {
		w.loginPrompt = false
		w.mode = ModeOpen
		w.tab = TabEditor
	}
	return nil
}

// Logout drops the acting user. Projects and view state are kept.
func (w *Workspace) Logout() {
	w.user = nil
}

// Close leaves the workspace without touching the score.
func (w *Workspace) Close() {
	w.mode = ModeClosed
	w.pendingMarker = nil
}

// SetTab switches the side panel.
func (w *Workspace) SetTab(tab Tab) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	switch tab {
	case TabEditor, TabComments, TabHistory, TabProjects, TabSettings, TabChat:
	default:
		return appErrors.Field("tab", fmt.Sprintf("unknown tab %q", tab))
	}
	w.tab = tab
	return nil
}

// SetZoom sets the zoom percentage, clamped to the supported range.
func (w *Workspace) SetZoom(level int) int {
	w.zoom = clampZoom(level)
	return w.zoom
}

// ZoomIn raises the zoom by one step.
func (w *Workspace) ZoomIn() int { return w.SetZoom(w.zoom + ZoomStep) }

// ZoomOut lowers the zoom by one step.
func (w *Workspace) ZoomOut() int { return w.SetZoom(w.zoom - ZoomStep) }

// SelectTool changes the editor tool. Only valid in the editor tab.
func (w *Workspace) SelectTool(tool Tool) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	if w.tab != TabEditor {
		return appErrors.Field("tool", "tools are only available in the editor tab")
	}
	switch tool {
	case ToolMove, ToolCrop, ToolText, ToolLayers:
	default:
		return appErrors.Field("tool", fmt.Sprintf("unknown tool %q", tool))
	}
	w.tool = tool
	return nil
}

// ToggleLayer flips a layer and returns its new visibility.
func (w *Workspace) ToggleLayer(layer Layer) (bool, error) {
	switch layer {
	case LayerImage:
		w.layers.Image = !w.layers.Image
		return w.layers.Image, nil
	case LayerAIMarkers:
		w.layers.AIMarkers = !w.layers.AIMarkers
		return w.layers.AIMarkers, nil
	case LayerComments:
		w.layers.Comments = !w.layers.Comments
		return w.layers.Comments, nil
	default:
		return false, appErrors.Field("layer", fmt.Sprintf("unknown layer %q", layer))
	}
}

// SetPlan records the plan selected in settings.
func (w *Workspace) SetPlan(plan Plan) error {
	switch plan {
	case PlanFree, PlanPro, PlanEdu:
		w.plan = plan
		return nil
	default:
		return appErrors.Field("plan", fmt.Sprintf("unknown plan %q", plan))
	}
}

// Save closes the workspace and bumps the displayed score of the current
// project by the configured increment per fixed issue, capped at 100. The
// score is derived from the analysed score so repeated saves agree.
func (w *Workspace) Save() (*int, error) {
	if err := w.requireOpen(); err != nil {
		return nil, err
	}
	w.Close()
	if w.current == nil || w.current.project.AnalysisResult == nil {
		return nil, nil
	}
	score := w.current.project.AnalysisResult.Score + w.opts.ScoreIncrement*len(w.current.fixed)
	if score > 100 {
		score = 100
	}
	w.current.project.DisplayedScore = &score
	w.current.project.LastModified = w.stamp()
	out := score
	return &out, nil
}

func (w *Workspace) requireOpen() error {
	if w.mode != ModeOpen {
		return appErrors.ErrWorkspaceClosed
	}
	return nil
}

func (w *Workspace) requireProject() (*projectState, error) {
	if w.current == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no project selected")
	}
	if w.current.project.AnalysisResult == nil {
		return nil, appErrors.ErrAnalysisPending
	}
	return w.current, nil
}

func (w *Workspace) requireRole(role models.UserRole) error {
	if w.user == nil {
		return appErrors.ErrLoginRequired
	}
	if w.user.Role != role {
		return appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("only a %s may do this", role))
	}
	return nil
}

func (w *Workspace) stamp() string {
	return w.opts.Now().Format("15:04")
}

func clampZoom(level int) int {
	if level < MinZoom {
		return MinZoom
	}
	if level > MaxZoom {
		return MaxZoom
	}
	return level
}
