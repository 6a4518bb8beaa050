package domain

import "strings"

// Action is the recommended inventory action for a catalog item.
type Action string

const (
	ActionRestock   Action = "RESTOCK"
	ActionDiscount  Action = "DISCOUNT"
	ActionDeprecate Action = "DEPRECATE"
	ActionNoAction  Action = "NO_ACTION"
)

// Confidence is a coarse data-sufficiency label. It says how many signal
// categories were present for an item, not how accurate the forecast is.
type Confidence string

const (
	ConfidenceHigh   Confidence = "HIGH"
	ConfidenceMedium Confidence = "MEDIUM"
	ConfidenceLow    Confidence = "LOW"
)

// InventoryStatus is the coarse stock tag derived by the analytics source
// from inventory count vs. min/max thresholds.
type InventoryStatus string

const (
	InventoryLowStock  InventoryStatus = "LOW_STOCK"
	InventoryOverstock InventoryStatus = "OVERSTOCK"
	InventoryInStock   InventoryStatus = "IN_STOCK"
)

var actionLabels = map[Action]string{
	ActionRestock:   "Restock",
	ActionDiscount:  "Discount",
	ActionDeprecate: "Deprecate",
	ActionNoAction:  "No action",
}

var actionCodes = map[string]Action{
	"restock":   ActionRestock,
	"discount":  ActionDiscount,
	"deprecate": ActionDeprecate,
	"no_action": ActionNoAction,
	"no action": ActionNoAction,
}

var confidenceCodes = map[string]Confidence{
	"high":   ConfidenceHigh,
	"medium": ConfidenceMedium,
	"low":    ConfidenceLow,
}

var inventoryStatusCodes = map[string]InventoryStatus{
	"low_stock": InventoryLowStock,
	"low stock": InventoryLowStock,
	"overstock": InventoryOverstock,
	"in_stock":  InventoryInStock,
	"in stock":  InventoryInStock,
}

// Actions lists every action in a stable order.
func Actions() []Action {
	return []Action{ActionRestock, ActionDiscount, ActionDeprecate, ActionNoAction}
}

// Confidences lists every confidence label from strongest to weakest.
func Confidences() []Confidence {
	return []Confidence{ConfidenceHigh, ConfidenceMedium, ConfidenceLow}
}

// Label returns a human-readable label for the action.
func (a Action) Label() string {
	if label, ok := actionLabels[a]; ok {
		return label
	}

	return "Unknown"
}

// ParseAction returns the action for a given code (case-insensitive).
func ParseAction(code string) (Action, bool) {
	a, ok := actionCodes[strings.ToLower(strings.TrimSpace(code))]

	return a, ok
}

// ParseConfidence returns the confidence label for a given code (case-insensitive).
func ParseConfidence(code string) (Confidence, bool) {
	c, ok := confidenceCodes[strings.ToLower(strings.TrimSpace(code))]

	return c, ok
}

// ParseInventoryStatus accepts both the enum form (LOW_STOCK) and the
// display form (Low Stock).
func ParseInventoryStatus(code string) (InventoryStatus, bool) {
	s, ok := inventoryStatusCodes[strings.ToLower(strings.TrimSpace(code))]

	return s, ok
}
