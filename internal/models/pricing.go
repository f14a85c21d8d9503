package models

// Size is a supported sheet size.
type Size string

const (
	SizeA4 Size = "A4"
	SizeA3 Size = "A3"
	SizeB4 Size = "B4"
)

// PrintColor selects black and white or full colour printing.
type PrintColor string

const (
	ColorBW    PrintColor = "黑白"
	ColorColor PrintColor = "彩色"
)

// PaperType is the paper stock; values are the display labels.
type PaperType string

const (
	PaperPlain   PaperType = "一般影印紙 (70g)"
	PaperDoubleA PaperType = "Double A (80g)"
	PaperCoated  PaperType = "銅版紙 (150g)"
	PaperIvory   PaperType = "象牙卡 (220g)"
)

// EstimateSource records whether an estimate was prefilled from analysis.
type EstimateSource string

const (
	SourceAIAuto EstimateSource = "AI_AUTO"
	SourceManual EstimateSource = "MANUAL"
)

// EstimateData is handed from the proofing workspace to the order calculator.
type EstimateData struct {
	FileName string         `json:"file_name,omitempty"`
	Size     Size           `json:"size"`
	Color    PrintColor     `json:"color"`
	Paper    PaperType      `json:"paper"`
	Quantity int            `json:"quantity"`
	HasMatte bool           `json:"has_matte"`
	Source   EstimateSource `json:"source"`
}

// EstimateRequest is the calculator payload.
type EstimateRequest struct {
	Size     Size       `json:"size" validate:"required,oneof=A4 A3 B4"`
	Color    PrintColor `json:"color" validate:"required,oneof=黑白 彩色"`
	Paper    PaperType  `json:"paper" validate:"required"`
	Quantity int        `json:"quantity"`
	HasMatte bool       `json:"has_matte"`
}

// Quote is the calculator result.
type Quote struct {
	EstimateRequest
	UnitPrice  float64 `json:"unit_price"`
	TotalPrice int     `json:"total_price"`
	Discounted bool    `json:"discounted"`
}
