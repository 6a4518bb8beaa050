package forecast

import "github.com/andresuchdata/inventory-forecast/backend-go/internal/domain"

const (
	ReasonRestockLowInventory = "Low inventory and high predicted demand"
	ReasonRestockHighIntent   = "High cart/wishlist activity and low inventory"
	ReasonDiscountReturns     = "High inventory and moderate return rate"
	ReasonDiscountPerformance = "High inventory with good product performance"
	ReasonDeprecate           = "High inventory and high return rate"
	ReasonNoAction            = "Optimal inventory levels maintained"
	moderateReturnRatePercent = 10
)

// Reason returns the canonical explanation for an action. Each branch of
// the classifier has its own template; RESTOCK and DISCOUNT split on stock
// vs. minimum and on return rate respectively.
func Reason(action domain.Action, currentStock, minStock int, returnRate float64) string {
	switch action {
	case domain.ActionRestock:
		if currentStock <= minStock {
			return ReasonRestockLowInventory
		}
		return ReasonRestockHighIntent
	case domain.ActionDiscount:
		if returnRate > moderateReturnRatePercent {
			return ReasonDiscountReturns
		}
		return ReasonDiscountPerformance
	case domain.ActionDeprecate:
		return ReasonDeprecate
	case domain.ActionNoAction:
		return ReasonNoAction
	default:
		return ""
	}
}
