package models

// ReceiptPayload is the write-once projection of an OrderDetail into the
// shape the printer driver accepts. Line-item count and totals must match
// the source order exactly.
type ReceiptPayload struct {
	Header ReceiptHeader `json:"header"`
	Lines  []ReceiptLine `json:"lines"`
	Footer ReceiptFooter `json:"footer"`
}

type ReceiptHeader struct {
	OrderNumber string `json:"orderNumber"`
	PrintedAt   string `json:"printedAt"` // already formatted for the slip
	BranchName  string `json:"branchName"`
}

type ReceiptLine struct {
	Name     string  `json:"name"` // "Item (Variant)"
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type ReceiptFooter struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}
