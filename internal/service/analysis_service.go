package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/proofing"
	"github.com/noah-isme/reprint-api/pkg/jobs"
)

const analysisJobType = "file_analysis"

// Analysis scenarios selected by file name.
const (
	ScenarioPoster  = "poster"
	ScenarioPerfect = "perfect"
	ScenarioGeneral = "general"
)

// AnalysisConfig tunes the simulated analysis.
type AnalysisConfig struct {
	Latency    time.Duration
	Workers    int
	BufferSize int
}

// AnalysisRequest identifies one upload awaiting analysis.
type AnalysisRequest struct {
	SessionKey string
	Ticket     proofing.Ticket
	FileName   string
	PreviewRef string
}

// AnalysisCallback receives the outcome of a queued analysis.
type AnalysisCallback func(req AnalysisRequest, result *models.AnalysisResult, err error)

type analysisJob struct {
	req  AnalysisRequest
	done AnalysisCallback
}

// AnalysisService produces canned analysis results after a simulated delay.
// Queued requests run on a worker pool and report through a callback.
type AnalysisService struct {
	cfg     AnalysisConfig
	metrics *MetricsService
	logger  *zap.Logger
	queue   *jobs.Queue
}

// NewAnalysisService constructs the analysis service and its worker queue.
func NewAnalysisService(cfg AnalysisConfig, metrics *MetricsService, logger *zap.Logger) *AnalysisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Latency < 0 {
		cfg.Latency = 0
	}
	s := &AnalysisService{cfg: cfg, metrics: metrics, logger: logger}
	s.queue = jobs.NewQueue("analysis", s.handle, jobs.QueueConfig{
		Workers:    cfg.Workers,
		BufferSize: cfg.BufferSize,
		MaxRetries: 0,
		JobTimeout: cfg.Latency + 30*time.Second,
		Logger:     logger,
	})
	return s
}

// Start launches the analysis workers.
func (s *AnalysisService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop halts the workers; queued analyses are dropped.
func (s *AnalysisService) Stop() {
	s.queue.Stop()
}

// Scenario returns which canned result a file name selects.
func Scenario(fileName string) string {
	name := strings.ToLower(fileName)
	switch {
	case strings.Contains(name, "poster") || strings.Contains(name, "海報") || strings.Contains(name, "demo"):
		return ScenarioPoster
	case strings.Contains(name, "final") || strings.Contains(name, "ok"):
		return ScenarioPerfect
	default:
		return ScenarioGeneral
	}
}

// Analyze waits for the simulated latency and returns the canned result for
// the file name. It returns early when ctx is done.
func (s *AnalysisService) Analyze(ctx context.Context, fileName, previewRef string) (*models.AnalysisResult, error) {
	start := time.Now()
	if s.cfg.Latency > 0 {
		timer := time.NewTimer(s.cfg.Latency)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	scenario := Scenario(fileName)
	result := cannedResult(scenario)
	result.PreviewRef = previewRef
	s.metrics.ObserveAnalysis(scenario, time.Since(start))
	s.logger.Debug("analysis finished", zap.String("file", fileName), zap.String("scenario", scenario), zap.Int("score", result.Score))
	return result, nil
}

// Submit queues an analysis; done is invoked from a worker goroutine.
func (s *AnalysisService) Submit(req AnalysisRequest, done AnalysisCallback) error {
	if done == nil {
		return fmt.Errorf("analysis callback required")
	}
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    analysisJobType,
		Payload: analysisJob{req: req, done: done},
	})
}

func (s *AnalysisService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(analysisJob)
	if !ok {
		return fmt.Errorf("%w: unexpected payload %T", jobs.ErrPermanent, job.Payload)
	}
	result, err := s.Analyze(ctx, payload.req.FileName, payload.req.PreviewRef)
	payload.done(payload.req, result, err)
	if err != nil {
		return fmt.Errorf("%w: %v", jobs.ErrPermanent, err)
	}
	return nil
}

func cannedResult(scenario string) *models.AnalysisResult {
	switch scenario {
	case ScenarioPoster:
		return &models.AnalysisResult{
			Score:   65,
			Summary: "海報分析完成 (需修正)",
			Issues: []models.Issue{
				{
					Kind:        models.IssueError,
					Title:       "出血不足",
					Description: "背景圖未延伸至紅色框線處，裁切時可能會留下白邊。請將背景圖片往外拉滿 3mm。",
					VisualKind:  models.VisualBleed,
					VisualLabel: "需往外拉 3mm",
					Rect:        models.NewRect(50, 50, 90, 90),
				},
				{
					Kind:        models.IssueWarning,
					Title:       "文字太靠邊 (安全區)",
					Description: "標題文字距離邊緣過近，可能會被裁切到。請將重要文字往內移動至黃色虛線框內。",
					VisualKind:  models.VisualSafeZone,
					VisualLabel: "請往內縮",
					Rect:        models.NewRect(88, 92, 20, 8),
				},
				{
					Kind:        models.IssueWarning,
					Title:       "圖片解析度偏低",
					Description: "此區域圖片僅 72dpi，印刷後會出現馬賽克或模糊。建議更換為 300dpi 以上的素材。",
					VisualKind:  models.VisualResolution,
					VisualLabel: "僅 72 DPI (模糊警告)",
					Rect:        models.NewPoint(30, 40),
				},
				{
					Kind:        models.IssueError,
					Title:       "檔案為 RGB 模式",
					Description: "偵測到檔案使用螢幕顯色 (RGB)，印刷會產生明顯色差。請轉為 CMYK 模式。",
					VisualKind:  models.VisualGlobal,
					VisualLabel: "RGB 模式警告",
				},
			},
		}
	case ScenarioPerfect:
		return &models.AnalysisResult{
			Score:   98,
			Summary: "完美檔案",
			Issues: []models.Issue{
				{Kind: models.IssueSuccess, Title: "解析度 300dpi", Description: "圖片解析度足夠，印刷效果清晰。", VisualKind: models.VisualNone},
				{Kind: models.IssueSuccess, Title: "含出血設定 (3mm)", Description: "出血設定正確。", VisualKind: models.VisualNone},
			},
		}
	default:
		return &models.AnalysisResult{
			Score:   70,
			Summary: "一般文件分析完成",
			Issues: []models.Issue{{
				Kind:        models.IssueError,
				Title:       "出血不足",
				Description: "請將背景往外延伸至紅色框線處。",
				VisualKind:  models.VisualBleed,
				VisualLabel: "出血不足",
				Rect:        models.NewRect(50, 50, 95, 95),
			}},
		}
	}
}
