package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/proofing"
)

func countActionable(issues []models.Issue) int {
	n := 0
	for _, issue := range issues {
		if issue.Actionable() {
			n++
		}
	}
	return n
}

func TestAnalysisServiceScenarios(t *testing.T) {
	svc := NewAnalysisService(AnalysisConfig{}, nil, zap.NewNop())
	ctx := context.Background()

	poster, err := svc.Analyze(ctx, "poster.pdf", "ref")
	require.NoError(t, err)
	assert.Equal(t, 65, poster.Score)
	require.Len(t, poster.Issues, 4)
	globals := 0
	for _, issue := range poster.Issues {
		if issue.VisualKind == models.VisualGlobal {
			globals++
		}
	}
	assert.Equal(t, 1, globals)
	assert.Equal(t, "ref", poster.PreviewRef)
	assert.Equal(t, models.NewRect(50, 50, 90, 90), poster.Issues[0].Rect)

	final, err := svc.Analyze(ctx, "report_final.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, 98, final.Score)
	assert.Zero(t, countActionable(final.Issues))

	notes, err := svc.Analyze(ctx, "notes.pdf", "")
	require.NoError(t, err)
	assert.Equal(t, 70, notes.Score)
	require.Len(t, notes.Issues, 1)
	assert.Equal(t, models.VisualBleed, notes.Issues[0].VisualKind)

	assert.Equal(t, ScenarioPoster, Scenario("社團海報.PDF"))
	assert.Equal(t, ScenarioPoster, Scenario("DEMO.pdf"))
	assert.Equal(t, ScenarioPerfect, Scenario("Book_OK.pdf"))
}

func TestAnalysisServiceHonoursContext(t *testing.T) {
	svc := NewAnalysisService(AnalysisConfig{Latency: time.Hour}, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Analyze(ctx, "poster.pdf", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAnalysisServiceSubmit(t *testing.T) {
	svc := NewAnalysisService(AnalysisConfig{Latency: 10 * time.Millisecond, Workers: 1}, NewMetricsService(), zap.NewNop())
	svc.Start(context.Background())
	defer svc.Stop()

	type outcome struct {
		req    AnalysisRequest
		result *models.AnalysisResult
		err    error
	}
	done := make(chan outcome, 1)
	req := AnalysisRequest{SessionKey: "s1", Ticket: proofing.Ticket{Generation: 3, FileName: "demo.pdf"}, FileName: "demo.pdf"}
	require.NoError(t, svc.Submit(req, func(r AnalysisRequest, res *models.AnalysisResult, err error) {
		done <- outcome{r, res, err}
	}))

	select {
	case got := <-done:
		require.NoError(t, got.err)
		assert.Equal(t, uint64(3), got.req.Ticket.Generation)
		assert.Equal(t, 65, got.result.Score)
	case <-time.After(2 * time.Second):
		t.Fatal("analysis callback not invoked")
	}

	assert.Error(t, svc.Submit(req, nil))
}
