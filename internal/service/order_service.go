package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/pricing"
	"github.com/noah-isme/reprint-api/internal/repository"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
)

const (
	orderTimeLayout   = "01-02 15:04"
	orderPickupLayout = "2006-01-02 15:04"
	matteTurnaround   = 24 * time.Hour
	plainTurnaround   = 3 * time.Hour
	processingMatte   = "上霧膜"
	processingNone    = "無"
)

type orderStore interface {
	Insert(ctx context.Context, order models.Order) error
	List(ctx context.Context) ([]models.Order, error)
	FindByID(ctx context.Context, id string) (*models.Order, error)
}

// OrderConfig tunes dashboard behaviour.
type OrderConfig struct {
	StatsCacheTTL time.Duration
}

// OrderService places print orders and serves the dashboard views.
type OrderService struct {
	repo      orderStore
	cache     *CacheService
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	cfg       OrderConfig
	now       func() time.Time
	newSuffix func() string
}

// NewOrderService constructs an OrderService.
func NewOrderService(repo orderStore, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg OrderConfig) *OrderService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = time.Minute
	}
	return &OrderService{
		repo:      repo,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		cfg:       cfg,
		now:       time.Now,
		newSuffix: func() string { return strings.ReplaceAll(uuid.NewString(), "-", "")[:6] },
	}
}

// Create prices and stores a new order. A nil user places the order as a guest.
func (s *OrderService) Create(ctx context.Context, req models.CreateOrderRequest, user *models.User) (*models.Order, error) {
	fileName := strings.TrimSpace(req.FileName)
	if fileName == "" {
		return nil, appErrors.Field("file_name", "請輸入檔案名稱或專案名稱")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid order options")
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}

	price, err := pricing.Estimate(req.Size, req.Color, req.Paper, req.HasMatte, req.Quantity)
	if err != nil {
		return nil, appErrors.Field("paper", err.Error())
	}

	now := s.now()
	pickup := now.Add(plainTurnaround)
	processing := processingNone
	if req.HasMatte {
		pickup = now.Add(matteTurnaround)
		processing = processingMatte
	}

	owner := models.GuestName
	if user != nil && strings.TrimSpace(user.Name) != "" {
		owner = user.Name
	}

	details := []string{string(req.Size), string(req.Color), string(req.Paper)}
	if req.HasMatte {
		details = append(details, processingMatte)
	}
	details = append(details, fmt.Sprintf("%d份", req.Quantity))

	stamp := now.Format(orderTimeLayout)
	order := models.Order{
		ID:         fmt.Sprintf("ORD-%d-%s", now.Year(), s.newSuffix()),
		Owner:      owner,
		FileName:   fileName,
		Status:     models.OrderReadyToPrint,
		UploadDate: now.Format("2006-01-02"),
		Details:    strings.Join(details, " / "),
		Price:      price,
		Issues:     []string{},
		Specs: models.OrderSpecs{
			Size:       req.Size,
			Color:      req.Color,
			Paper:      req.Paper,
			Processing: processing,
			Quantity:   req.Quantity,
		},
		Timeline: []models.TimelineStep{
			{Label: "訂單建立", Time: stamp, IsCompleted: true},
			{Label: "檔案審核", Time: stamp, IsCompleted: true},
			{Label: "排程印製", Time: "等待中", IsCurrent: true},
			{Label: "可以取件", Time: "預計 " + pickup.Format(orderTimeLayout)},
		},
		EstimatedPickup: pickup.Format(orderPickupLayout),
		CreatedAt:       now,
	}

	if err := s.repo.Insert(ctx, order); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store order")
	}
	_ = s.cache.Invalidate(ctx, Key("orders", "stats", "*"))
	s.metrics.RecordOrder(req.Size)
	s.logger.Sugar().Infow("order created", "order_id", order.ID, "owner", owner, "price", price)
	return &order, nil
}

// List returns the orders visible to the user for the requested view.
func (s *OrderService) List(ctx context.Context, user models.User, filter models.OrderFilter) ([]models.Order, error) {
	view, err := resolveView(user, filter.View)
	if err != nil {
		return nil, err
	}
	orders, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list orders")
	}

	out := make([]models.Order, 0, len(orders))
	for _, o := range orders {
		if view == models.ViewMyOrders && o.Owner != user.Name {
			continue
		}
		if filter.Status != "" && string(o.Status) != filter.Status {
			continue
		}
		out = append(out, o)
	}
	return out, nil
}

// Stats summarises the orders of a view. Results are cached until the next
// order; the flag reports a cache hit.
func (s *OrderService) Stats(ctx context.Context, user models.User, filter models.OrderFilter) (*models.OrderStats, bool, error) {
	view, err := resolveView(user, filter.View)
	if err != nil {
		return nil, false, err
	}
	key := Key("orders", "stats", string(view), user.Name)

	var cached models.OrderStats
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	orders, err := s.List(ctx, user, models.OrderFilter{View: view})
	if err != nil {
		return nil, false, err
	}
	stats := &models.OrderStats{Total: len(orders)}
	for _, o := range orders {
		switch o.Status {
		case models.OrderPrinting, models.OrderReadyToPrint:
			stats.Active++
		case models.OrderReviewNeeded:
			stats.NeedsReview++
		}
	}
	_ = s.cache.Set(ctx, key, stats, s.cfg.StatsCacheTTL)
	return stats, false, nil
}

// Get returns one order. Students only see their own.
func (s *OrderService) Get(ctx context.Context, user models.User, id string) (*models.Order, error) {
	order, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrOrderNotFound) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load order")
	}
	if user.Role != models.RoleTeacher && order.Owner != user.Name {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "order not found")
	}
	return order, nil
}

func resolveView(user models.User, view models.OrderView) (models.OrderView, error) {
	switch view {
	case "", models.ViewMyOrders:
		return models.ViewMyOrders, nil
	case models.ViewClassOrders:
		if user.Role != models.RoleTeacher {
			return "", appErrors.Clone(appErrors.ErrForbidden, "only teachers can view class orders")
		}
		return models.ViewClassOrders, nil
	default:
		return "", appErrors.Field("view", "view must be my_orders or class_orders")
	}
}
