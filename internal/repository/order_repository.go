package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/noah-isme/reprint-api/internal/models"
)

// ErrOrderNotFound is returned when no order has the requested id.
var ErrOrderNotFound = errors.New("order not found")

// OrderRepository keeps print orders in memory, newest first.
type OrderRepository struct {
	mu     sync.RWMutex
	orders []models.Order
}

// NewOrderRepository creates a repository holding the given orders.
func NewOrderRepository(seed ...models.Order) *OrderRepository {
	orders := make([]models.Order, 0, len(seed))
	for _, o := range seed {
		orders = append(orders, cloneOrder(o))
	}
	return &OrderRepository{orders: orders}
}

// NewSeededOrderRepository creates a repository with the demo orders.
func NewSeededOrderRepository() *OrderRepository {
	return NewOrderRepository(DemoOrders()...)
}

// Insert prepends an order.
func (r *OrderRepository) Insert(_ context.Context, order models.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders = append([]models.Order{cloneOrder(order)}, r.orders...)
	return nil
}

// List returns every order, newest first.
func (r *OrderRepository) List(_ context.Context) ([]models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, cloneOrder(o))
	}
	return out, nil
}

// FindByID returns an order by identifier or ErrOrderNotFound.
func (r *OrderRepository) FindByID(_ context.Context, id string) (*models.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, o := range r.orders {
		if o.ID == id {
			clone := cloneOrder(o)
			return &clone, nil
		}
	}
	return nil, ErrOrderNotFound
}

func cloneOrder(o models.Order) models.Order {
	o.Issues = append([]string(nil), o.Issues...)
	o.Timeline = append([]models.TimelineStep(nil), o.Timeline...)
	return o
}

// DemoOrders returns the orders the dashboard starts with.
func DemoOrders() []models.Order {
	loc := time.FixedZone("CST", 8*60*60)
	return []models.Order{
		{
			ID:         "ORD-2025-001",
			Owner:      "陳同學",
			FileName:   "期末專題報告_final_v3.pdf",
			Status:     models.OrderPrinting,
			UploadDate: "2025-10-27",
			Details:    "A4 / 彩色 / Double A / 膠裝",
			Price:      350,
			Specs: models.OrderSpecs{
				Size: models.SizeA4, Color: models.ColorColor, Paper: models.PaperDoubleA, Processing: "膠裝", Quantity: 50,
			},
			Timeline: []models.TimelineStep{
				{Label: "訂單建立", Time: "10-27 10:30", IsCompleted: true},
				{Label: "檔案審核", Time: "10-27 10:35", IsCompleted: true},
				{Label: "印製中", Time: "10-27 11:00", IsCurrent: true},
				{Label: "可以取件", Time: "預計 16:30"},
			},
			EstimatedPickup: "2025-10-27 16:30",
			CreatedAt:       time.Date(2025, 10, 27, 10, 30, 0, 0, loc),
		},
		{
			ID:         "ORD-2025-002",
			Owner:      "陳同學",
			FileName:   "社團海報.pdf",
			Status:     models.OrderReviewNeeded,
			UploadDate: "2025-10-28",
			Details:    "A3 / 銅版紙 / 20張",
			Price:      400,
			Issues:     []string{"解析度不足 (72dpi)", "出血區未設定"},
			Specs: models.OrderSpecs{
				Size: models.SizeA3, Color: models.ColorColor, Paper: models.PaperCoated, Processing: "無", Quantity: 20,
			},
			Timeline: []models.TimelineStep{
				{Label: "訂單建立", Time: "10-28 09:00", IsCompleted: true},
				{Label: "檔案審核", Time: "10-28 09:02", IsCurrent: true},
				{Label: "印製中", Time: "-"},
				{Label: "可以取件", Time: "-"},
			},
			EstimatedPickup: "待確認",
			CreatedAt:       time.Date(2025, 10, 28, 9, 0, 0, 0, loc),
		},
		{
			ID:         "ORD-2025-003",
			Owner:      "王老師",
			FileName:   "課程講義_Week5.pdf",
			Status:     models.OrderCompleted,
			UploadDate: "2025-10-20",
			Details:    "A4 / 黑白 / 一般紙 / 100份",
			Price:      100,
			Specs: models.OrderSpecs{
				Size: models.SizeA4, Color: models.ColorBW, Paper: models.PaperPlain, Processing: "無", Quantity: 100,
			},
			Timeline: []models.TimelineStep{
				{Label: "訂單建立", Time: "10-20 08:00", IsCompleted: true},
				{Label: "檔案審核", Time: "10-20 08:05", IsCompleted: true},
				{Label: "印製中", Time: "10-20 09:00", IsCompleted: true},
				{Label: "可以取件", Time: "10-20 12:00", IsCompleted: true, IsCurrent: true},
			},
			EstimatedPickup: "2025-10-20 12:00",
			CreatedAt:       time.Date(2025, 10, 20, 8, 0, 0, 0, loc),
		},
	}
}
