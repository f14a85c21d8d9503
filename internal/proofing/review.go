package proofing

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/pricing"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
)

const (
	fixAuthor        = "AI Assistant"
	systemAuthorID   = "system"
	systemAuthorName = "系統通知"
)

// BoundingBox is the on-screen rectangle of the canvas in pixels.
type BoundingBox struct {
	Left   float64 `json:"left"`
	Top    float64 `json:"top"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// NormalizeClick converts a pixel click into percent coordinates relative to
// the canvas bounding box.
func NormalizeClick(clientX, clientY float64, box BoundingBox) (models.Point, error) {
	if box.Width <= 0 || box.Height <= 0 {
		return models.Point{}, appErrors.Field("bounds", "canvas bounds must have a positive size")
	}
	return models.Point{
		X: (clientX - box.Left) / box.Width * 100,
		Y: (clientY - box.Top) / box.Height * 100,
	}, nil
}

// FixIssue marks issue i resolved and appends an active version describing
// the fix. Fixing an already fixed issue is a no-op and reports false.
func (w *Workspace) FixIssue(i int) (bool, error) {
	if err := w.requireOpen(); err != nil {
		return false, err
	}
	ps, err := w.requireProject()
	if err != nil {
		return false, err
	}
	issues := ps.project.AnalysisResult.Issues
	if i < 0 || i >= len(issues) {
		return false, appErrors.Field("index", fmt.Sprintf("issue index %d out of range", i))
	}
	if !issues[i].Actionable() {
		return false, appErrors.Field("index", "passed checks cannot be fixed")
	}
	if _, done := ps.fixed[i]; done {
		return false, nil
	}

	ps.fixed[i] = struct{}{}
	n := len(ps.project.Versions)
	for v := range ps.project.Versions {
		ps.project.Versions[v].IsActive = false
	}
	ps.project.Versions = append(ps.project.Versions, models.Version{
		ID:           nextVersionID(ps.project.Versions),
		Name:         fmt.Sprintf("Version 1.%d", n),
		Author:       fixAuthor,
		Date:         w.stamp(),
		Changes:      fmt.Sprintf("修復問題 #%d", i+1),
		IsActive:     true,
		ReviewStatus: models.ReviewPending,
	})
	ps.project.LastModified = w.stamp()
	return true, nil
}

// nextVersionID numbers past the highest "v<n>" id so fixture ids that skip
// numbers are never reused.
func nextVersionID(versions []models.Version) string {
	highest := 0
	for _, v := range versions {
		if n, err := strconv.Atoi(strings.TrimPrefix(v.ID, "v")); err == nil && n > highest {
			highest = n
		}
	}
	return fmt.Sprintf("v%d", highest+1)
}

// FixedIssues returns the fixed indices of the current project in ascending order.
func (w *Workspace) FixedIssues() []int {
	if w.current == nil {
		return nil
	}
	return sortedKeys(w.current.fixed)
}

// UnfixedIssues returns actionable issues of the current project not yet fixed.
func (w *Workspace) UnfixedIssues() []UnfixedIssue {
	if w.current == nil || w.current.project.AnalysisResult == nil {
		return nil
	}
	out := make([]UnfixedIssue, 0)
	for i, issue := range w.current.project.AnalysisResult.Issues {
		if !issue.Actionable() {
			continue
		}
		if _, done := w.current.fixed[i]; done {
			continue
		}
		out = append(out, UnfixedIssue{Index: i, Kind: issue.Kind, Title: issue.Title})
	}
	return out
}

// PlaceMarker records the pending comment anchor. Only valid in the comments tab.
func (w *Workspace) PlaceMarker(p models.Point) error {
	if err := w.requireOpen(); err != nil {
		return err
	}
	if w.tab != TabComments {
		return appErrors.Field("position", "markers can only be placed in the comments tab")
	}
	if p.X < 0 || p.X > 100 || p.Y < 0 || p.Y > 100 {
		return appErrors.Field("position", "marker must lie within the canvas")
	}
	w.pendingMarker = &p
	return nil
}

// ClearMarker discards the pending comment anchor.
func (w *Workspace) ClearMarker() {
	w.pendingMarker = nil
}

// SendComment appends a positioned comment from the session user. Both text
// and a pending marker are required.
func (w *Workspace) SendComment(text string) (*models.Comment, error) {
	if err := w.requireOpen(); err != nil {
		return nil, err
	}
	if w.user == nil {
		return nil, appErrors.ErrLoginRequired
	}
	if w.current == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no project selected")
	}
	if strings.TrimSpace(text) == "" {
		return nil, appErrors.Field("text", "請輸入留言內容")
	}
	if w.pendingMarker == nil {
		return nil, appErrors.Field("position", "請先點擊圖片選擇留言標籤的位置！")
	}

	pos := *w.pendingMarker
	comment := models.Comment{
		ID:         w.opts.NewID(),
		AuthorID:   w.user.ID,
		AuthorName: w.user.Name,
		Role:       w.user.Role,
		Text:       text,
		Timestamp:  w.stamp(),
		Position:   &pos,
	}
	w.current.project.Comments = append(w.current.project.Comments, comment)
	w.pendingMarker = nil
	return &comment, nil
}

// Approve marks the active version approved. It reports false when the
// version is already approved.
func (w *Workspace) Approve() (bool, error) {
	ps, idx, err := w.reviewTarget()
	if err != nil {
		return false, err
	}
	version := &ps.project.Versions[idx]
	if version.ReviewStatus == models.ReviewApproved {
		return false, nil
	}
	version.ReviewStatus = models.ReviewApproved
	w.appendSystemComment(ps, models.RoleTeacher, fmt.Sprintf("✅ 老師已確認並通過此版本 (%s)。", version.Name))
	ps.project.Status = models.ProjectApproved
	w.tab = TabComments
	return true, nil
}

// Reject marks the active version rejected with a reason. An empty reason is
// a validation error; an already rejected version reports false.
func (w *Workspace) Reject(reason string) (bool, error) {
	if err := w.requireOpen(); err != nil {
		return false, err
	}
	if err := w.requireRole(models.RoleTeacher); err != nil {
		return false, err
	}
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return false, appErrors.Field("reason", "請輸入退回原因")
	}
	ps, idx, err := w.reviewTarget()
	if err != nil {
		return false, err
	}
	version := &ps.project.Versions[idx]
	if version.ReviewStatus == models.ReviewRejected {
		return false, nil
	}
	version.ReviewStatus = models.ReviewRejected
	w.appendSystemComment(ps, models.RoleTeacher, "❌ 老師已退回此版本。原因："+reason)
	ps.project.Status = models.ProjectRejected
	w.tab = TabComments
	return true, nil
}

func (w *Workspace) reviewTarget() (*projectState, int, error) {
	if err := w.requireOpen(); err != nil {
		return nil, 0, err
	}
	if err := w.requireRole(models.RoleTeacher); err != nil {
		return nil, 0, err
	}
	if w.current == nil {
		return nil, 0, appErrors.Clone(appErrors.ErrNotFound, "no project selected")
	}
	idx := w.current.project.ActiveVersion()
	if idx < 0 {
		return nil, 0, appErrors.Field("version", "no active version to review")
	}
	return w.current, idx, nil
}

// Submission describes a review request for the notifier.
type Submission struct {
	ProjectID     string      `json:"project_id"`
	ProjectName   string      `json:"project_name"`
	Student       models.User `json:"student"`
	ReviewerEmail string      `json:"reviewer_email"`
}

// SubmitForReview sends the current project back to the teacher. It may be
// repeated but is refused once the project is approved.
func (w *Workspace) SubmitForReview() (*Submission, error) {
	if err := w.requireOpen(); err != nil {
		return nil, err
	}
	if err := w.requireRole(models.RoleStudent); err != nil {
		return nil, err
	}
	if w.current == nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "no project selected")
	}
	ps := w.current
	if ps.project.Status == models.ProjectApproved {
		return nil, appErrors.Clone(appErrors.ErrConflict, "project already approved")
	}
	ps.project.Status = models.ProjectReviewNeeded
	w.appendSystemComment(ps, models.RoleStudent, "📧 學生已送出審核。通知信已發送至 "+w.opts.ReviewerEmail)
	return &Submission{
		ProjectID:     ps.project.ID,
		ProjectName:   ps.project.Name,
		Student:       *w.user,
		ReviewerEmail: w.opts.ReviewerEmail,
	}, nil
}

func (w *Workspace) appendSystemComment(ps *projectState, role models.UserRole, text string) {
	ps.project.Comments = append(ps.project.Comments, models.Comment{
		ID:         w.opts.NewID(),
		AuthorID:   systemAuthorID,
		AuthorName: systemAuthorName,
		Role:       role,
		Text:       text,
		Timestamp:  w.stamp(),
		IsSystem:   true,
	})
	ps.project.LastModified = w.stamp()
}

// UnfixedIssue is listed on the force print confirmation.
type UnfixedIssue struct {
	Index int              `json:"index"`
	Kind  models.IssueKind `json:"kind"`
	Title string           `json:"title"`
}

// ForcePrintPrompt is the pending confirmation of a force print.
type ForcePrintPrompt struct {
	ProjectID string         `json:"project_id"`
	Unfixed   []UnfixedIssue `json:"unfixed"`
}

// ForcePrint raises the confirmation listing every unfixed issue.
func (w *Workspace) ForcePrint() (*ForcePrintPrompt, error) {
	if err := w.requireOpen(); err != nil {
		return nil, err
	}
	ps, err := w.requireProject()
	if err != nil {
		return nil, err
	}
	w.forcePrint = &ForcePrintPrompt{ProjectID: ps.project.ID, Unfixed: w.UnfixedIssues()}
	out := *w.forcePrint
	return &out, nil
}

// ConfirmForcePrint proceeds to the estimate regardless of open issues. It
// needs a pending confirmation and an explicit acknowledgement.
func (w *Workspace) ConfirmForcePrint(acknowledged bool) (*models.EstimateData, error) {
	if err := w.requireOpen(); err != nil {
		return nil, err
	}
	if w.forcePrint == nil {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "no force print awaiting confirmation")
	}
	if !acknowledged {
		return nil, appErrors.Field("acknowledged", "請確認了解未修正問題可能影響印刷品質")
	}
	w.forcePrint = nil
	return w.Estimate()
}

// CancelForcePrint discards a pending confirmation.
func (w *Workspace) CancelForcePrint() bool {
	pending := w.forcePrint != nil
	w.forcePrint = nil
	return pending
}

// Estimate derives calculator prefill data from the current project.
func (w *Workspace) Estimate() (*models.EstimateData, error) {
	if err := w.requireOpen(); err != nil {
		return nil, err
	}
	ps, err := w.requireProject()
	if err != nil {
		return nil, err
	}
	data := pricing.DeriveEstimate(ps.project.AnalysisResult, ps.project.Name)
	return &data, nil
}

func sortedKeys(set map[int]struct{}) []int {
	out := make([]int, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Ints(out)
	return out
}
