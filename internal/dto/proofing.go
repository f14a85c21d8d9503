package dto

import "github.com/noah-isme/reprint-api/internal/proofing"

// TabRequest switches the workspace side panel.
type TabRequest struct {
	Tab proofing.Tab `json:"tab" binding:"required"`
}

// ZoomRequest steps or sets the zoom level. Direction is in, out or set.
type ZoomRequest struct {
	Direction string `json:"direction"`
	Level     int    `json:"level"`
}

// ToolRequest selects an editor tool.
type ToolRequest struct {
	Tool proofing.Tool `json:"tool" binding:"required"`
}

// PlanRequest picks a subscription plan in the settings tab.
type PlanRequest struct {
	Plan proofing.Plan `json:"plan" binding:"required"`
}

// MarkerRequest places the pending comment marker. Either percent
// coordinates or a pixel click with the canvas bounds may be sent.
type MarkerRequest struct {
	X       *float64              `json:"x"`
	Y       *float64              `json:"y"`
	ClientX *float64              `json:"client_x"`
	ClientY *float64              `json:"client_y"`
	Bounds  *proofing.BoundingBox `json:"bounds"`
}

// CommentRequest posts a comment at the pending marker.
type CommentRequest struct {
	Text string `json:"text"`
}

// RejectRequest returns a version to the student.
type RejectRequest struct {
	Reason string `json:"reason"`
}

// ConfirmForcePrintRequest acknowledges printing with unfixed issues.
type ConfirmForcePrintRequest struct {
	Acknowledged bool `json:"acknowledged"`
}
