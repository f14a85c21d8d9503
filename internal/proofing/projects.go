package proofing

import (
	"errors"
	"strings"

	"github.com/noah-isme/reprint-api/internal/models"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
)

// ErrStaleResult is returned when an analysis result arrives for a request
// that has since been superseded.
var ErrStaleResult = errors.New("stale analysis result")

// Ticket identifies one analysis request.
type Ticket struct {
	Generation uint64 `json:"generation"`
	FileName   string `json:"file_name"`
}

// BeginAnalysis registers an upload awaiting analysis and returns its ticket.
// Any earlier pending analysis is abandoned.
func (w *Workspace) BeginAnalysis(fileName, previewRef, storedPath string) (Ticket, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return Ticket{}, appErrors.Field("file", "file name required")
	}
	w.generation++
	w.analysis = &pendingAnalysis{
		ticket:     w.generation,
		fileName:   fileName,
		previewRef: previewRef,
		path:       storedPath,
	}
	return Ticket{Generation: w.generation, FileName: fileName}, nil
}

// Analyzing reports whether an upload is awaiting its analysis result.
func (w *Workspace) Analyzing() bool {
	return w.analysis != nil
}

// CancelAnalysis abandons the pending upload, if any.
func (w *Workspace) CancelAnalysis() bool {
	if w.analysis == nil {
		return false
	}
	w.generation++
	w.analysis = nil
	return true
}

// CompleteAnalysis ingests an analysis result as a new current project. A
// result whose ticket is not the live one is rejected with ErrStaleResult.
func (w *Workspace) CompleteAnalysis(ticket Ticket, result *models.AnalysisResult) (*models.Project, error) {
	if w.analysis == nil || ticket.Generation != w.generation || w.analysis.ticket != ticket.Generation {
		return nil, ErrStaleResult
	}
	if result == nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "analysis produced no result")
	}
	pending := w.analysis
	w.analysis = nil

	author := models.GuestName
	if w.user != nil {
		author = w.user.Name
	}
	stored := result.Clone()
	if stored.PreviewRef == "" {
		stored.PreviewRef = pending.previewRef
	}
	ps := &projectState{
		project: models.Project{
			ID:             "new_" + w.opts.NewID(),
			Name:           pending.fileName,
			Status:         models.ProjectReviewNeeded,
			LastModified:   "剛剛",
			PreviewPath:    pending.path,
			AnalysisResult: stored,
			Versions: []models.Version{{
				ID:           "v1",
				Name:         "Version 1.0",
				Author:       author,
				Date:         w.stamp(),
				Changes:      "原始上傳檔案",
				IsActive:     true,
				ReviewStatus: models.ReviewPending,
			}},
			Comments: []models.Comment{},
		},
		fixed: map[int]struct{}{},
	}
	w.projects = append([]*projectState{ps}, w.projects...)
	w.selectProject(ps)
	w.layers.AIMarkers = true
	out := cloneProject(ps.project)
	return &out, nil
}

// SwitchProject makes the given project current. Zoom is workspace-wide and
// is kept. Any analysis in flight is abandoned.
func (w *Workspace) SwitchProject(id string) (*models.Project, error) {
	if err := w.requireOpen(); err != nil {
		return nil, err
	}
	ps := w.find(id)
	if ps == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "project not found")
	}
	w.CancelAnalysis()
	if ps.project.AnalysisResult == nil {
		ps.project.AnalysisResult = synthesizeResult(ps.project)
	}
	w.selectProject(ps)
	w.layers.AIMarkers = ps.project.Status != models.ProjectApproved
	out := cloneProject(ps.project)
	return &out, nil
}

// Projects lists every project, newest first.
func (w *Workspace) Projects() []models.ProjectSummary {
	out := make([]models.ProjectSummary, 0, len(w.projects))
	for _, ps := range w.projects {
		out = append(out, models.ProjectSummary{
			ID:           ps.project.ID,
			Name:         ps.project.Name,
			Status:       ps.project.Status,
			LastModified: ps.project.LastModified,
			Current:      ps == w.current,
		})
	}
	return out
}

// CurrentProject returns a copy of the current project.
func (w *Workspace) CurrentProject() *models.Project {
	if w.current == nil {
		return nil
	}
	out := cloneProject(w.current.project)
	return &out
}

// OwnsPreview reports whether a stored preview path belongs to a project of
// this workspace.
func (w *Workspace) OwnsPreview(path string) bool {
	if path == "" {
		return false
	}
	for _, ps := range w.projects {
		if ps.project.PreviewPath == path {
			return true
		}
	}
	return w.analysis != nil && w.analysis.path == path
}

func (w *Workspace) selectProject(ps *projectState) {
	w.current = ps
	w.pendingMarker = nil
	w.forcePrint = nil
	w.highlight = nil
}

func (w *Workspace) find(id string) *projectState {
	for _, ps := range w.projects {
		if ps.project.ID == id {
			return ps
		}
	}
	return nil
}

// synthesizeResult stands in for a stored result of a fixture project.
func synthesizeResult(p models.Project) *models.AnalysisResult {
	switch p.Status {
	case models.ProjectApproved:
		return &models.AnalysisResult{Score: 98, Summary: p.Name, Issues: []models.Issue{}}
	case models.ProjectRejected:
		return &models.AnalysisResult{Score: 45, Summary: p.Name, Issues: []models.Issue{{
			Kind:        models.IssueError,
			Title:       "嚴重解析度不足",
			Description: "請依照指示修正。",
			VisualKind:  models.VisualResolution,
			VisualLabel: "72 DPI",
			Rect:        models.NewRect(50, 50, 60, 60),
		}}}
	default:
		return &models.AnalysisResult{Score: 70, Summary: p.Name, Issues: []models.Issue{{
			Kind:        models.IssueError,
			Title:       "出血設定錯誤",
			Description: "請依照指示修正。",
			VisualKind:  models.VisualBleed,
			VisualLabel: "未設定出血",
			Rect:        models.NewRect(50, 50, 60, 60),
		}}}
	}
}

func cloneProject(p models.Project) models.Project {
	out := p
	out.AnalysisResult = p.AnalysisResult.Clone()
	out.Versions = append([]models.Version(nil), p.Versions...)
	out.Comments = make([]models.Comment, len(p.Comments))
	for i, c := range p.Comments {
		if c.Position != nil {
			pos := *c.Position
			c.Position = &pos
		}
		out.Comments[i] = c
	}
	if p.DisplayedScore != nil {
		score := *p.DisplayedScore
		out.DisplayedScore = &score
	}
	return out
}

func demoProjects() []models.Project {
	return []models.Project{
		{
			ID:           "p1",
			Name:         "社團海報_v1.pdf",
			Status:       models.ProjectReviewNeeded,
			LastModified: "剛剛",
			Versions: []models.Version{
				{ID: "v1", Name: "Version 1.0", Author: "陳同學", Date: "10:30", Changes: "原始上傳", IsActive: true, ReviewStatus: models.ReviewPending},
			},
			Comments: []models.Comment{
				{ID: "c1", AuthorID: "teacher1", AuthorName: "王老師", Role: models.RoleTeacher, Text: "出血看起來還是不夠，請再檢查一下。", Timestamp: "10:35", Position: &models.Point{X: 85, Y: 15}},
			},
		},
		{
			ID:           "p2",
			Name:         "期末報告封面_被退回.pdf",
			Status:       models.ProjectRejected,
			LastModified: "2小時前",
			Versions: []models.Version{
				{ID: "v2", Name: "Version 1.2", Author: "陳同學", Date: "昨天", Changes: "調整標題", IsActive: true, ReviewStatus: models.ReviewRejected},
			},
			Comments: []models.Comment{
				{ID: "c2", AuthorID: systemAuthorID, AuthorName: systemAuthorName, Role: models.RoleTeacher, Text: "❌ 老師已退回此版本。原因：解析度嚴重不足，印出來會糊掉。", Timestamp: "09:00", IsSystem: true},
			},
		},
		{
			ID:           "p3",
			Name:         "活動傳單_Final.pdf",
			Status:       models.ProjectApproved,
			LastModified: "3小時前",
			Versions: []models.Version{
				{ID: "v3", Name: "Version 2.0", Author: "AI 自動修復", Date: "昨天", Changes: "已修正所有錯誤", IsActive: true, ReviewStatus: models.ReviewApproved},
			},
			Comments: []models.Comment{
				{ID: "c3", AuthorID: systemAuthorID, AuthorName: systemAuthorName, Role: models.RoleTeacher, Text: "✅ 老師已確認並通過此版本 (Version 2.0)。", Timestamp: "08:30", IsSystem: true},
			},
		},
	}
}
