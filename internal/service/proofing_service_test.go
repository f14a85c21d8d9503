package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/proofing"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
	"github.com/noah-isme/reprint-api/pkg/storage"
)

type queuedAnalysis struct {
	req  AnalysisRequest
	done AnalysisCallback
}

type fakeSubmitter struct {
	mu     sync.Mutex
	queued []queuedAnalysis
	err    error
}

func (f *fakeSubmitter) Submit(req AnalysisRequest, done AnalysisCallback) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queued = append(f.queued, queuedAnalysis{req: req, done: done})
	return nil
}

// finish runs the canned analysis for the i-th queued request.
func (f *fakeSubmitter) finish(t *testing.T, i int) {
	t.Helper()
	f.mu.Lock()
	q := f.queued[i]
	f.mu.Unlock()
	result, err := NewAnalysisService(AnalysisConfig{}, nil, nil).Analyze(context.Background(), q.req.FileName, q.req.PreviewRef)
	require.NoError(t, err)
	q.done(q.req, result, nil)
}

type proofingFixture struct {
	svc      *ProofingService
	queue    *fakeSubmitter
	notifier *NotificationService
	metrics  *MetricsService
}

func newProofingFixture(t *testing.T, maxUpload int64) *proofingFixture {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	f := &proofingFixture{
		queue:    &fakeSubmitter{},
		notifier: NewNotificationService(zap.NewNop()),
		metrics:  NewMetricsService(),
	}
	chat := NewChatService(ChatConfig{}, &stubHTTPClient{}, f.metrics, zap.NewNop())
	f.svc = NewProofingService(
		ProofingConfig{APIPrefix: "/api/v1", MaxUploadBytes: maxUpload},
		f.queue,
		store,
		storage.NewSignedURLSigner("secret", time.Hour),
		f.notifier,
		chat,
		f.metrics,
		zap.NewNop(),
	)
	return f
}

func TestProofingServiceLoginPromptOpensOnLogin(t *testing.T) {
	f := newProofingFixture(t, 0)
	key := "session:abc"

	_, err := f.svc.Open(key, nil)
	assert.True(t, errors.Is(err, appErrors.ErrLoginRequired))

	res, err := f.svc.State(key, &studentUser)
	require.NoError(t, err)
	assert.Equal(t, proofing.ModeOpen, res.Workspace.Mode)
	assert.Equal(t, proofing.TabEditor, res.Workspace.Tab)
	assert.Equal(t, "陳同學", res.Workspace.User.Name)

	res, err = f.svc.State(key, nil)
	require.NoError(t, err)
	assert.Nil(t, res.Workspace.User)
	assert.Equal(t, proofing.ModeOpen, res.Workspace.Mode)
}

func TestProofingServiceReviewCycleAcrossRoles(t *testing.T) {
	f := newProofingFixture(t, 0)
	ctx := context.Background()
	key := "session:classroom-pc"

	_, err := f.svc.Open(key, &studentUser)
	require.NoError(t, err)
	_, err = f.svc.SwitchProject(key, &studentUser, "p2")
	require.NoError(t, err)
	submitted, err := f.svc.Submit(ctx, key, &studentUser)
	require.NoError(t, err)
	assert.Equal(t, models.ProjectReviewNeeded, submitted.Workspace.Project.Status)

	_, err = f.svc.Approve(key, &studentUser)
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	view, err := f.svc.State(key, &teacherUser)
	require.NoError(t, err)
	require.NotNil(t, view.Workspace.Project)
	assert.Equal(t, "p2", view.Workspace.Project.ID)
	assert.Equal(t, models.ProjectReviewNeeded, view.Workspace.Project.Status)
	assert.Equal(t, "王老師", view.Workspace.User.Name)

	approved, err := f.svc.Approve(key, &teacherUser)
	require.NoError(t, err)
	assert.True(t, approved.Changed)

	back, err := f.svc.State(key, &studentUser)
	require.NoError(t, err)
	project := back.Workspace.Project
	require.NotNil(t, project)
	assert.Equal(t, models.ProjectApproved, project.Status)
	assert.Equal(t, models.ReviewApproved, project.Versions[len(project.Versions)-1].ReviewStatus)

	var system []string
	for _, c := range project.Comments {
		if c.IsSystem {
			system = append(system, c.Text)
		}
	}
	require.Len(t, system, 3)
	assert.Contains(t, system[1], "學生已送出審核")
	assert.Contains(t, system[2], "老師已確認並通過此版本")

	_, err = f.svc.Submit(ctx, key, &studentUser)
	assert.True(t, errors.Is(err, appErrors.ErrConflict))
}

func TestProofingServiceUploadFixSave(t *testing.T) {
	f := newProofingFixture(t, 0)
	ctx := context.Background()
	key := "user:student-demo"

	_, err := f.svc.Upload(ctx, key, &studentUser, "poster.pdf", strings.NewReader("%PDF"))
	assert.True(t, errors.Is(err, appErrors.ErrWorkspaceClosed))

	_, err = f.svc.Open(key, &studentUser)
	require.NoError(t, err)
	res, err := f.svc.Upload(ctx, key, &studentUser, "demo_poster.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	require.NotNil(t, res.Ticket)
	assert.True(t, res.Workspace.Analyzing)
	require.Len(t, f.queue.queued, 1)

	f.queue.finish(t, 0)
	state, err := f.svc.State(key, &studentUser)
	require.NoError(t, err)
	require.NotNil(t, state.Workspace.Project)
	assert.Equal(t, "demo_poster.pdf", state.Workspace.Project.Name)
	assert.Equal(t, 65, state.Workspace.Project.AnalysisResult.Score)
	assert.False(t, state.Workspace.Analyzing)

	fixed, err := f.svc.FixIssue(key, &studentUser, 0)
	require.NoError(t, err)
	assert.True(t, fixed.Changed)
	again, err := f.svc.FixIssue(key, &studentUser, 0)
	require.NoError(t, err)
	assert.False(t, again.Changed)

	saved, err := f.svc.Save(key, &studentUser)
	require.NoError(t, err)
	require.NotNil(t, saved.Score)
	assert.Equal(t, 75, *saved.Score)
	assert.Equal(t, proofing.ModeClosed, saved.Workspace.Mode)
}

func TestProofingServiceDiscardsStaleAnalysis(t *testing.T) {
	f := newProofingFixture(t, 0)
	ctx := context.Background()
	key := "user:student-demo"

	_, err := f.svc.Open(key, &studentUser)
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, key, &studentUser, "poster.pdf", strings.NewReader("a"))
	require.NoError(t, err)
	_, err = f.svc.Upload(ctx, key, &studentUser, "report_final.pdf", strings.NewReader("b"))
	require.NoError(t, err)

	f.queue.finish(t, 0)
	state, err := f.svc.State(key, &studentUser)
	require.NoError(t, err)
	assert.True(t, state.Workspace.Analyzing)
	assert.Nil(t, state.Workspace.Project)

	f.queue.finish(t, 1)
	state, err = f.svc.State(key, &studentUser)
	require.NoError(t, err)
	assert.Equal(t, "report_final.pdf", state.Workspace.Project.Name)
	assert.Equal(t, 98, state.Workspace.Project.AnalysisResult.Score)
}

func TestProofingServiceUploadLimits(t *testing.T) {
	f := newProofingFixture(t, 4)
	ctx := context.Background()
	key := "user:student-demo"
	_, err := f.svc.Open(key, &studentUser)
	require.NoError(t, err)

	_, err = f.svc.Upload(ctx, key, &studentUser, "big.pdf", bytes.NewReader(make([]byte, 10)))
	assert.True(t, errors.Is(err, appErrors.ErrPayloadTooLarge))

	_, err = f.svc.Upload(ctx, key, &studentUser, "  ", strings.NewReader("x"))
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	f.queue.err = errors.New("queue full")
	_, err = f.svc.Upload(ctx, key, &studentUser, "ok.pdf", strings.NewReader("x"))
	require.Error(t, err)
	state, err := f.svc.State(key, &studentUser)
	require.NoError(t, err)
	assert.False(t, state.Workspace.Analyzing)
}

func TestProofingServiceResolvePreview(t *testing.T) {
	f := newProofingFixture(t, 0)
	key := "user:student-demo"
	_, err := f.svc.Open(key, &studentUser)
	require.NoError(t, err)
	_, err = f.svc.Upload(context.Background(), key, &studentUser, "notes.pdf", strings.NewReader("%PDF-1.4"))
	require.NoError(t, err)
	f.queue.finish(t, 0)

	state, err := f.svc.State(key, &studentUser)
	require.NoError(t, err)
	ref := state.Workspace.Project.AnalysisResult.PreviewRef
	require.True(t, strings.HasPrefix(ref, "/api/v1/files/preview?token="))
	token := strings.TrimPrefix(ref, "/api/v1/files/preview?token=")

	preview, err := f.svc.ResolvePreview(token)
	require.NoError(t, err)
	defer preview.File.Close()
	assert.Equal(t, "application/pdf", preview.ContentType)

	_, err = f.svc.ResolvePreview(token + "x")
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))
}

func TestProofingServiceSubmitNotifiesReviewer(t *testing.T) {
	f := newProofingFixture(t, 0)
	key := "user:student-demo"
	_, err := f.svc.Open(key, &studentUser)
	require.NoError(t, err)
	_, err = f.svc.SwitchProject(key, &studentUser, "p1")
	require.NoError(t, err)

	res, err := f.svc.Submit(context.Background(), key, &studentUser)
	require.NoError(t, err)
	require.NotNil(t, res.Submission)
	assert.Equal(t, models.ProjectReviewNeeded, res.Workspace.Project.Status)

	sent := f.notifier.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "teacher@demo.edu", sent[0].To)
	assert.Equal(t, "p1", sent[0].ProjectID)
}

func TestProofingServiceReviewChangedFlag(t *testing.T) {
	f := newProofingFixture(t, 0)
	key := "user:teacher-demo"
	_, err := f.svc.Open(key, &teacherUser)
	require.NoError(t, err)
	_, err = f.svc.SwitchProject(key, &teacherUser, "p1")
	require.NoError(t, err)

	_, err = f.svc.Reject(key, &teacherUser, "")
	assert.True(t, errors.Is(err, appErrors.ErrValidation))

	res, err := f.svc.Approve(key, &teacherUser)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, proofing.TabComments, res.Workspace.Tab)

	res, err = f.svc.Approve(key, &teacherUser)
	require.NoError(t, err)
	assert.False(t, res.Changed)
}

func TestProofingServiceChatHighlightsIssue(t *testing.T) {
	f := newProofingFixture(t, 0)
	key := "user:student-demo"
	_, err := f.svc.Open(key, &studentUser)
	require.NoError(t, err)
	_, err = f.svc.Upload(context.Background(), key, &studentUser, "poster.pdf", strings.NewReader("x"))
	require.NoError(t, err)
	f.queue.finish(t, 0)

	out, err := f.svc.Chat(context.Background(), key, &studentUser, "出血要怎麼加？")
	require.NoError(t, err)
	require.NotNil(t, out.Highlighted)
	assert.Equal(t, 0, *out.Highlighted)
	assert.Equal(t, ReplyMissingKey, out.Reply.Reply.Text)
	assert.Contains(t, out.Reply.History[0].Text, "印刷規格顧問")
	assert.True(t, out.Workspace.Layers.AIMarkers)

	_, err = f.svc.Chat(context.Background(), key, &studentUser, " ")
	assert.Error(t, err)
}
