package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/reprint-api/internal/models"
	"github.com/noah-isme/reprint-api/internal/repository"
	appErrors "github.com/noah-isme/reprint-api/pkg/errors"
)

var (
	studentUser = models.User{ID: "student-demo", Name: "陳同學", Role: models.RoleStudent}
	teacherUser = models.User{ID: "teacher-demo", Name: "王老師", Role: models.RoleTeacher}
)

func newTestOrderService(t *testing.T) (*OrderService, *memoryCacheRepo) {
	t.Helper()
	cacheRepo := newMemoryCacheRepo()
	cache := NewCacheService(cacheRepo, nil, time.Minute, zap.NewNop(), true)
	svc := NewOrderService(repository.NewSeededOrderRepository(), cache, NewMetricsService(), nil, zap.NewNop(), OrderConfig{})
	svc.now = func() time.Time { return time.Date(2026, 3, 5, 14, 20, 0, 0, time.UTC) }
	svc.newSuffix = func() string { return "a1b2c3" }
	return svc, cacheRepo
}

func TestOrderServiceCreate(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	order, err := svc.Create(ctx, models.CreateOrderRequest{
		FileName: " 社團海報 ",
		Size:     models.SizeA3,
		Color:    models.ColorColor,
		Paper:    models.PaperCoated,
		Quantity: 10,
		HasMatte: true,
	}, &studentUser)
	require.NoError(t, err)

	assert.Equal(t, "ORD-2026-a1b2c3", order.ID)
	assert.Equal(t, "社團海報", order.FileName)
	assert.Equal(t, "陳同學", order.Owner)
	assert.Equal(t, models.OrderReadyToPrint, order.Status)
	assert.Equal(t, "2026-03-05", order.UploadDate)
	assert.Equal(t, 290, order.Price)
	assert.Equal(t, "A3 / 彩色 / 銅版紙 (150g) / 上霧膜 / 10份", order.Details)
	assert.Equal(t, "上霧膜", order.Specs.Processing)
	assert.Equal(t, "2026-03-06 14:20", order.EstimatedPickup)
	require.Len(t, order.Timeline, 4)
	assert.Equal(t, "排程印製", order.Timeline[2].Label)
	assert.True(t, order.Timeline[2].IsCurrent)
	assert.Equal(t, "預計 03-06 14:20", order.Timeline[3].Time)

	orders, err := svc.List(ctx, studentUser, models.OrderFilter{})
	require.NoError(t, err)
	assert.Equal(t, order.ID, orders[0].ID)
}

func TestOrderServiceCreateGuestAndDefaults(t *testing.T) {
	svc, _ := newTestOrderService(t)

	order, err := svc.Create(context.Background(), models.CreateOrderRequest{
		FileName: "講義",
		Size:     models.SizeA4,
		Color:    models.ColorBW,
		Paper:    models.PaperPlain,
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, models.GuestName, order.Owner)
	assert.Equal(t, 1, order.Specs.Quantity)
	assert.Equal(t, 1, order.Price)
	assert.Equal(t, "無", order.Specs.Processing)
	assert.Equal(t, "2026-03-05 17:20", order.EstimatedPickup)
}

func TestOrderServiceCreateRejectsEmptyFileName(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, models.CreateOrderRequest{FileName: "   ", Size: models.SizeA4, Color: models.ColorBW, Paper: models.PaperPlain}, &studentUser)
	require.Error(t, err)
	assert.True(t, errors.Is(err, appErrors.ErrValidation))
	assert.Equal(t, "請輸入檔案名稱或專案名稱", appErrors.FromError(err).Details["file_name"])

	_, err = svc.Create(ctx, models.CreateOrderRequest{FileName: "x", Size: models.SizeA4, Color: models.ColorBW, Paper: "cardboard"}, &studentUser)
	require.Error(t, err)

	orders, err := svc.List(ctx, teacherUser, models.OrderFilter{View: models.ViewClassOrders})
	require.NoError(t, err)
	assert.Len(t, orders, 3)
}

func TestOrderServiceViews(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	mine, err := svc.List(ctx, studentUser, models.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.List(ctx, studentUser, models.OrderFilter{View: models.ViewClassOrders})
	assert.True(t, errors.Is(err, appErrors.ErrForbidden))

	teacherOwn, err := svc.List(ctx, teacherUser, models.OrderFilter{})
	require.NoError(t, err)
	assert.Len(t, teacherOwn, 1)

	review, err := svc.List(ctx, teacherUser, models.OrderFilter{View: models.ViewClassOrders, Status: "review_needed"})
	require.NoError(t, err)
	require.Len(t, review, 1)
	assert.Equal(t, "ORD-2025-002", review[0].ID)

	_, err = svc.Get(ctx, studentUser, "ORD-2025-003")
	assert.True(t, errors.Is(err, appErrors.ErrNotFound))
	found, err := svc.Get(ctx, teacherUser, "ORD-2025-001")
	require.NoError(t, err)
	assert.Equal(t, "陳同學", found.Owner)
}

func TestOrderServiceStatsCachedAndInvalidated(t *testing.T) {
	svc, cacheRepo := newTestOrderService(t)
	ctx := context.Background()

	stats, hit, err := svc.Stats(ctx, studentUser, models.OrderFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.OrderStats{Active: 1, NeedsReview: 1, Total: 2}, *stats)
	assert.Len(t, cacheRepo.data, 1)

	_, hit, err = svc.Stats(ctx, studentUser, models.OrderFilter{})
	require.NoError(t, err)
	assert.True(t, hit)

	class, _, err := svc.Stats(ctx, teacherUser, models.OrderFilter{View: models.ViewClassOrders})
	require.NoError(t, err)
	assert.Equal(t, 3, class.Total)

	_, err = svc.Create(ctx, models.CreateOrderRequest{FileName: "新檔案", Size: models.SizeA4, Color: models.ColorColor, Paper: models.PaperDoubleA, Quantity: 2}, &studentUser)
	require.NoError(t, err)
	assert.Empty(t, cacheRepo.data)

	stats, hit, err = svc.Stats(ctx, studentUser, models.OrderFilter{})
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, models.OrderStats{Active: 2, NeedsReview: 1, Total: 3}, *stats)
}

type failingOrderStore struct {
	*repository.OrderRepository
	err error
}

func (f failingOrderStore) FindByID(context.Context, string) (*models.Order, error) {
	return nil, f.err
}

func TestOrderServiceGetMapsStoreErrors(t *testing.T) {
	svc, _ := newTestOrderService(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, teacherUser, "ORD-2099-missing")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Status, appErr.Status)
	assert.Equal(t, "order not found", appErr.Message)

	store := failingOrderStore{OrderRepository: repository.NewSeededOrderRepository(), err: errors.New("disk unavailable")}
	broken := NewOrderService(store, svc.cache, NewMetricsService(), nil, zap.NewNop(), OrderConfig{})
	_, err = broken.Get(ctx, teacherUser, "ORD-2025-001")
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrInternal.Code, appErr.Code)
	assert.False(t, errors.Is(err, appErrors.ErrNotFound))
}
