package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/proofing"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
	"github.com/noah-isme/reprint-api/pkg/storage"
)

type previewStore interface {
	SaveStream(name string, r io.Reader, limit int64) (string, int64, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

type analysisSubmitter interface {
	Submit(req AnalysisRequest, done AnalysisCallback) error
}

type reviewNotifier interface {
	NotifyReviewer(ctx context.Context, sub proofing.Submission) error
}

type chatSender interface {
	Send(ctx context.Context, key, text string) (*models.ChatReply, error)
}

// ProofingConfig tunes the proofing workspaces.
type ProofingConfig struct {
	APIPrefix      string
	ScoreIncrement int
	DefaultZoom    int
	ReviewerEmail  string
	MaxUploadBytes int64
}

// WorkspaceResult is returned by every workspace operation. Changed is false
// when the operation did not apply, e.g. approving an approved project.
type WorkspaceResult struct {
	Changed    bool                       `json:"changed"`
	Workspace  proofing.View              `json:"workspace"`
	Comment    *models.Comment            `json:"comment,omitempty"`
	Estimate   *models.EstimateData       `json:"estimate,omitempty"`
	Score      *int                       `json:"score,omitempty"`
	Ticket     *proofing.Ticket           `json:"ticket,omitempty"`
	Prompt     *proofing.ForcePrintPrompt `json:"force_print,omitempty"`
	Submission *proofing.Submission       `json:"submission,omitempty"`
}

// ProofingChatResult is the embedded consultant reply plus any issue it highlighted.
type ProofingChatResult struct {
	Reply       *models.ChatReply `json:"reply"`
	Highlighted *int              `json:"highlighted_issue,omitempty"`
	Workspace   proofing.View     `json:"workspace"`
}

// Preview is an opened preview file.
type Preview struct {
	File        *os.File
	Name        string
	ContentType string
}

type workspaceEntry struct {
	mu sync.Mutex
	ws *proofing.Workspace
}

// ProofingService keeps one proofing workspace per session and serialises
// every operation on it.
type ProofingService struct {
	cfg      ProofingConfig
	analysis analysisSubmitter
	store    previewStore
	signer   *storage.SignedURLSigner
	notifier reviewNotifier
	chat     chatSender
	metrics  *MetricsService
	logger   *zap.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*workspaceEntry
}

// NewProofingService constructs a ProofingService.
func NewProofingService(cfg ProofingConfig, analysis analysisSubmitter, store previewStore, signer *storage.SignedURLSigner, notifier reviewNotifier, chat chatSender, metrics *MetricsService, logger *zap.Logger) *ProofingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 50 * 1024 * 1024
	}
	return &ProofingService{
		cfg:      cfg,
		analysis: analysis,
		store:    store,
		signer:   signer,
		notifier: notifier,
		chat:     chat,
		metrics:  metrics,
		logger:   logger,
		now:      time.Now,
		sessions: map[string]*workspaceEntry{},
	}
}

func (s *ProofingService) entry(key string) *workspaceEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.sessions[key]
	if !ok {
		e = &workspaceEntry{ws: proofing.New(proofing.Options{
			ScoreIncrement: s.cfg.ScoreIncrement,
			DefaultZoom:    s.cfg.DefaultZoom,
			ReviewerEmail:  s.cfg.ReviewerEmail,
			Now:            s.now,
		})}
		s.sessions[key] = e
	}
	return e
}

// mutate runs fn on the session workspace under its lock. The acting user of
// the request replaces the workspace user, so a browser session switching
// roles keeps working on the same projects.
func (s *ProofingService) mutate(key string, user *models.User, operation string, fn func(ws *proofing.Workspace, res *WorkspaceResult) error) (*WorkspaceResult, error) {
	e := s.entry(key)
	e.mu.Lock()
	defer e.mu.Unlock()

	if user != nil {
		if err := e.ws.Login(*user); err != nil {
			return nil, err
		}
	} else {
		e.ws.Logout()
	}
	res := &WorkspaceResult{}
	if err := fn(e.ws, res); err != nil {
		return nil, err
	}
	s.metrics.RecordWorkspaceEvent(operation)
	res.Workspace = e.ws.Snapshot()
	return res, nil
}

// State returns the workspace snapshot.
func (s *ProofingService) State(key string, user *models.User) (*WorkspaceResult, error) {
	return s.mutate(key, user, "view", func(ws *proofing.Workspace, res *WorkspaceResult) error { return nil })
}

// Open enters the workspace. Without a user the login prompt is raised.
func (s *ProofingService) Open(key string, user *models.User) (*WorkspaceResult, error) {
	return s.mutate(key, user, "open", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		if err := ws.Open(); err != nil {
			return err
		}
		res.Changed = true
		return nil
	})
}

// Close leaves the workspace without saving.
func (s *ProofingService) Close(key string, user *models.User) (*WorkspaceResult, error) {
	return s.mutate(key, user, "close", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		res.Changed = ws.Mode() == proofing.ModeOpen
		ws.Close()
		return nil
	})
}

// SetTab switches the side panel.
func (s *ProofingService) SetTab(key string, user *models.User, tab proofing.Tab) (*WorkspaceResult, error) {
	return s.mutate(key, user, "set_tab", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		before := ws.Tab()
		if err := ws.SetTab(tab); err != nil {
			return err
		}
		res.Changed = before != ws.Tab()
		return nil
	})
}

// Zoom adjusts the zoom level. Direction "in" and "out" step; otherwise level is set.
func (s *ProofingService) Zoom(key string, user *models.User, direction string, level int) (*WorkspaceResult, error) {
	return s.mutate(key, user, "zoom", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		before := ws.Zoom()
		switch direction {
		case "in":
			ws.ZoomIn()
		case "out":
			ws.ZoomOut()
		case "", "set":
			ws.SetZoom(level)
		default:
			return appErrors.Field("direction", "direction must be in, out or set")
		}
		res.Changed = before != ws.Zoom()
		return nil
	})
}

// SelectTool picks the editor tool.
func (s *ProofingService) SelectTool(key string, user *models.User, tool proofing.Tool) (*WorkspaceResult, error) {
	return s.mutate(key, user, "select_tool", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		if err := ws.SelectTool(tool); err != nil {
			return err
		}
		res.Changed = true
		return nil
	})
}

// ToggleLayer flips a canvas layer.
func (s *ProofingService) ToggleLayer(key string, user *models.User, layer proofing.Layer) (*WorkspaceResult, error) {
	return s.mutate(key, user, "toggle_layer", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		if _, err := ws.ToggleLayer(layer); err != nil {
			return err
		}
		res.Changed = true
		return nil
	})
}

// SetPlan records the plan chosen in the settings tab.
func (s *ProofingService) SetPlan(key string, user *models.User, plan proofing.Plan) (*WorkspaceResult, error) {
	return s.mutate(key, user, "set_plan", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		if err := ws.SetPlan(plan); err != nil {
			return err
		}
		res.Changed = true
		return nil
	})
}

// FixIssue marks an issue fixed and appends a version.
func (s *ProofingService) FixIssue(key string, user *models.User, index int) (*WorkspaceResult, error) {
	return s.mutate(key, user, "fix_issue", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		changed, err := ws.FixIssue(index)
		res.Changed = changed
		return err
	})
}

// PlaceMarker sets the pending comment position in percent coordinates.
func (s *ProofingService) PlaceMarker(key string, user *models.User, p models.Point) (*WorkspaceResult, error) {
	return s.mutate(key, user, "place_marker", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		if err := ws.PlaceMarker(p); err != nil {
			return err
		}
		res.Changed = true
		return nil
	})
}

// ClearMarker discards the pending comment position.
func (s *ProofingService) ClearMarker(key string, user *models.User) (*WorkspaceResult, error) {
	return s.mutate(key, user, "clear_marker", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		res.Changed = ws.Snapshot().PendingMarker != nil
		ws.ClearMarker()
		return nil
	})
}

// SendComment posts a comment at the pending marker.
func (s *ProofingService) SendComment(key string, user *models.User, text string) (*WorkspaceResult, error) {
	return s.mutate(key, user, "comment", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		comment, err := ws.SendComment(text)
		if err != nil {
			return err
		}
		res.Changed = true
		res.Comment = comment
		return nil
	})
}

// Approve approves the active version. Teachers only.
func (s *ProofingService) Approve(key string, user *models.User) (*WorkspaceResult, error) {
	return s.mutate(key, user, "approve", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		changed, err := ws.Approve()
		res.Changed = changed
		return err
	})
}

// Reject rejects the active version with a reason. Teachers only.
func (s *ProofingService) Reject(key string, user *models.User, reason string) (*WorkspaceResult, error) {
	return s.mutate(key, user, "reject", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		changed, err := ws.Reject(reason)
		res.Changed = changed
		return err
	})
}

// Submit sends the current project for review and notifies the reviewer.
func (s *ProofingService) Submit(ctx context.Context, key string, user *models.User) (*WorkspaceResult, error) {
	res, err := s.mutate(key, user, "submit", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		sub, err := ws.SubmitForReview()
		if err != nil {
			return err
		}
		res.Changed = true
		res.Submission = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyReviewer(ctx, *res.Submission); err != nil {
			s.logger.Warn("review notification failed", zap.String("project_id", res.Submission.ProjectID), zap.Error(err))
		}
	}
	return res, nil
}

// ForcePrint opens the confirmation listing unfixed issues.
func (s *ProofingService) ForcePrint(key string, user *models.User) (*WorkspaceResult, error) {
	return s.mutate(key, user, "force_print", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		prompt, err := ws.ForcePrint()
		if err != nil {
			return err
		}
		res.Changed = true
		res.Prompt = prompt
		return nil
	})
}

// ConfirmForcePrint proceeds to the estimate hand-off.
func (s *ProofingService) ConfirmForcePrint(key string, user *models.User, acknowledged bool) (*WorkspaceResult, error) {
	return s.mutate(key, user, "confirm_force_print", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		estimate, err := ws.ConfirmForcePrint(acknowledged)
		if err != nil {
			return err
		}
		res.Changed = true
		res.Estimate = estimate
		return nil
	})
}

// CancelForcePrint discards a pending force print confirmation.
func (s *ProofingService) CancelForcePrint(key string, user *models.User) (*WorkspaceResult, error) {
	return s.mutate(key, user, "cancel_force_print", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		res.Changed = ws.CancelForcePrint()
		return nil
	})
}

// Estimate returns the calculator hand-off for the current project.
func (s *ProofingService) Estimate(key string, user *models.User) (*WorkspaceResult, error) {
	return s.mutate(key, user, "estimate", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		estimate, err := ws.Estimate()
		if err != nil {
			return err
		}
		res.Estimate = estimate
		return nil
	})
}

// Projects lists the session projects.
func (s *ProofingService) Projects(key string, user *models.User) ([]models.ProjectSummary, error) {
	var out []models.ProjectSummary
	_, err := s.mutate(key, user, "list_projects", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		out = ws.Projects()
		return nil
	})
	return out, err
}

// SwitchProject makes another project current.
func (s *ProofingService) SwitchProject(key string, user *models.User, id string) (*WorkspaceResult, error) {
	return s.mutate(key, user, "switch_project", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		if _, err := ws.SwitchProject(id); err != nil {
			return err
		}
		res.Changed = true
		return nil
	})
}

// Save closes the workspace and writes back the displayed score.
func (s *ProofingService) Save(key string, user *models.User) (*WorkspaceResult, error) {
	return s.mutate(key, user, "save", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		score, err := ws.Save()
		if err != nil {
			return err
		}
		res.Changed = true
		res.Score = score
		return nil
	})
}

// Upload stores a preview copy of the file and queues its analysis. The
// result becomes the current project once the analysis finishes.
func (s *ProofingService) Upload(ctx context.Context, key string, user *models.User, fileName string, body io.Reader) (*WorkspaceResult, error) {
	fileName = strings.TrimSpace(filepath.Base(fileName))
	if fileName == "" || fileName == "." || fileName == string(filepath.Separator) {
		return nil, appErrors.Field("file", "file name required")
	}

	e := s.entry(key)
	e.mu.Lock()
	open := e.ws.Mode() == proofing.ModeOpen
	e.mu.Unlock()
	if !open {
		return nil, appErrors.ErrWorkspaceClosed
	}

	owner := previewOwner(key)
	relPath, _, err := s.store.SaveStream(fmt.Sprintf("%s/%s%s", owner, uuid.NewString(), strings.ToLower(filepath.Ext(fileName))), body, s.cfg.MaxUploadBytes)
	if err != nil {
		if errors.Is(err, storage.ErrTooLarge) {
			return nil, appErrors.ErrPayloadTooLarge
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	token, _, err := s.signer.Generate(owner, relPath)
	if err != nil {
		_ = s.store.Delete(relPath)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign preview")
	}
	previewRef := fmt.Sprintf("%s/files/preview?token=%s", strings.TrimRight(s.cfg.APIPrefix, "/"), token)

	res, err := s.mutate(key, user, "upload", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		if ws.Mode() != proofing.ModeOpen {
			return appErrors.ErrWorkspaceClosed
		}
		ticket, err := ws.BeginAnalysis(fileName, previewRef, relPath)
		if err != nil {
			return err
		}
		req := AnalysisRequest{SessionKey: key, Ticket: ticket, FileName: fileName, PreviewRef: previewRef}
		if err := s.analysis.Submit(req, s.completeAnalysis); err != nil {
			ws.CancelAnalysis()
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to queue analysis")
		}
		res.Changed = true
		res.Ticket = &ticket
		return nil
	})
	if err != nil {
		_ = s.store.Delete(relPath)
		return nil, err
	}
	s.logger.Sugar().Infow("upload queued for analysis", "session", key, "file", fileName, "generation", res.Ticket.Generation)
	return res, nil
}

func (s *ProofingService) completeAnalysis(req AnalysisRequest, result *models.AnalysisResult, err error) {
	e := s.entry(req.SessionKey)
	e.mu.Lock()
	defer e.mu.Unlock()

	if err != nil {
		s.logger.Warn("analysis failed", zap.String("session", req.SessionKey), zap.String("file", req.FileName), zap.Error(err))
		if e.ws.Generation() == req.Ticket.Generation {
			e.ws.CancelAnalysis()
		}
		return
	}
	project, err := e.ws.CompleteAnalysis(req.Ticket, result)
	if err != nil {
		if errors.Is(err, proofing.ErrStaleResult) {
			s.metrics.RecordStaleResult()
			s.logger.Sugar().Infow("discarding stale analysis result", "session", req.SessionKey, "file", req.FileName, "generation", req.Ticket.Generation)
			return
		}
		s.logger.Warn("analysis result rejected", zap.String("session", req.SessionKey), zap.Error(err))
		return
	}
	s.metrics.RecordWorkspaceEvent("analysis_complete")
	s.logger.Sugar().Infow("analysis ingested", "session", req.SessionKey, "project_id", project.ID, "score", project.AnalysisResult.Score)
}

// Chat relays a question from the embedded consultant and highlights the
// first unfixed issue the question refers to.
func (s *ProofingService) Chat(ctx context.Context, key string, user *models.User, text string) (*ProofingChatResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, appErrors.Field("message", "message required")
	}
	out := &ProofingChatResult{}
	if _, err := s.mutate(key, user, "chat", func(ws *proofing.Workspace, res *WorkspaceResult) error {
		if idx, ok := ws.HighlightIntent(text); ok {
			out.Highlighted = &idx
		}
		return nil
	}); err != nil {
		return nil, err
	}

	reply, err := s.chat.Send(ctx, proofingChatKey(key), text)
	if err != nil {
		return nil, err
	}
	out.Reply = reply

	e := s.entry(key)
	e.mu.Lock()
	out.Workspace = e.ws.Snapshot()
	e.mu.Unlock()
	return out, nil
}

// ResolvePreview opens the stored preview a signed token refers to.
func (s *ProofingService) ResolvePreview(token string) (*Preview, error) {
	grant, err := s.signer.Parse(token, false)
	if err != nil {
		if errors.Is(err, storage.ErrTokenExpired) {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "preview link expired")
		}
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid preview token")
	}
	if !s.ownsPreview(grant.OwnerID, grant.Path) {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "preview not found")
	}
	file, err := s.store.Open(grant.Path)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "preview not found")
	}
	contentType := mime.TypeByExtension(filepath.Ext(grant.Path))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Preview{File: file, Name: filepath.Base(grant.Path), ContentType: contentType}, nil
}

func (s *ProofingService) ownsPreview(owner, path string) bool {
	s.mu.Lock()
	entries := make([]*workspaceEntry, 0, len(s.sessions))
	for key, e := range s.sessions {
		if previewOwner(key) == owner {
			entries = append(entries, e)
		}
	}
	s.mu.Unlock()

	for _, e := range entries {
		e.mu.Lock()
		owned := e.ws.OwnsPreview(path)
		e.mu.Unlock()
		if owned {
			return true
		}
	}
	return false
}

// previewOwner maps a session key to a token-safe storage owner.
func previewOwner(key string) string {
	return strings.NewReplacer(".", "_", "/", "_", ":", "_").Replace(key)
}

func proofingChatKey(key string) string {
	return EmbeddedSessionPrefix + key
}
