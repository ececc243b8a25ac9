package service

import (
	"fmt"

	"receipt_relay/internal/models"
)

// Timestamp format printed on the slip header.
const receiptTimeLayout = "02/01/2006 15:04"

// BuildReceipt deterministically projects an order into the payload the
// printer driver accepts. Line-item count and totals always match the
// source order exactly.
func BuildReceipt(detail models.OrderDetail) models.ReceiptPayload {
	lines := make([]models.ReceiptLine, 0, len(detail.Items))
	for _, item := range detail.Items {
		lines = append(lines, models.ReceiptLine{
			Name:     displayName(item),
			Quantity: item.Quantity,
			Price:    item.LineTotal,
		})
	}

	return models.ReceiptPayload{
		Header: models.ReceiptHeader{
			OrderNumber: detail.OrderNumber,
			PrintedAt:   detail.CreatedAt.Format(receiptTimeLayout),
			BranchName:  detail.BranchName,
		},
		Lines: lines,
		Footer: models.ReceiptFooter{
			Subtotal: detail.Subtotal,
			Tax:      detail.Tax,
			Total:    detail.Total,
		},
	}
}

// displayName combines item and variant into the printed line name.
func displayName(item models.OrderItem) string {
	if item.VariantName == "" {
		return item.ItemName
	}
	return fmt.Sprintf("%s (%s)", item.ItemName, item.VariantName)
}
