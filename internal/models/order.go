package models

import "time"

// OrderStatus tracks an order through the print shop.
type OrderStatus string

const (
	OrderAnalyzing    OrderStatus = "analyzing"
	OrderReviewNeeded OrderStatus = "review_needed"
	OrderReadyToPrint OrderStatus = "ready_to_print"
	OrderPrinting     OrderStatus = "printing"
	OrderCompleted    OrderStatus = "completed"
)

// OrderView selects which orders the dashboard lists.
type OrderView string

const (
	ViewMyOrders    OrderView = "my_orders"
	ViewClassOrders OrderView = "class_orders"
)

// OrderSpecs holds the print options of an order.
type OrderSpecs struct {
	Size       Size       `json:"size"`
	Color      PrintColor `json:"color"`
	Paper      PaperType  `json:"paper"`
	Processing string     `json:"processing"`
	Quantity   int        `json:"quantity"`
}

// TimelineStep is one milestone shown on the order detail view.
type TimelineStep struct {
	Label       string `json:"label"`
	Time        string `json:"time"`
	IsCompleted bool   `json:"is_completed"`
	IsCurrent   bool   `json:"is_current"`
}

// Order is an immutable print order.
type Order struct {
	ID              string         `json:"id"`
	Owner           string         `json:"owner"`
	FileName        string         `json:"file_name"`
	Status          OrderStatus    `json:"status"`
	UploadDate      string         `json:"upload_date"`
	Details         string         `json:"details"`
	Price           int            `json:"price"`
	Issues          []string       `json:"issues"`
	Specs           OrderSpecs     `json:"specs"`
	Timeline        []TimelineStep `json:"timeline"`
	EstimatedPickup string         `json:"estimated_pickup"`
	CreatedAt       time.Time      `json:"created_at"`
}

// CreateOrderRequest is the order placement payload. The file name check is
// performed by the service so the field error carries the user-facing text.
type CreateOrderRequest struct {
	FileName string     `json:"file_name"`
	Size     Size       `json:"size" validate:"required,oneof=A4 A3 B4"`
	Color    PrintColor `json:"color" validate:"required,oneof=黑白 彩色"`
	Paper    PaperType  `json:"paper" validate:"required"`
	Quantity int        `json:"quantity"`
	HasMatte bool       `json:"has_matte"`
}

// OrderFilter narrows the dashboard listing.
type OrderFilter struct {
	View   OrderView `form:"view"`
	Status string    `form:"status"`
}

// OrderStats summarises the filtered dashboard list.
type OrderStats struct {
	Active      int `json:"active"`
	NeedsReview int `json:"needs_review"`
	Total       int `json:"total"`
}
