// Copyright (c) 2025 BVK Chaitanya

package gateway

import (
	"slices"

	"github.com/bvk/orderbot/gobs"
)

// ToGob converts the order result into it's persistent form.
func (r *OrderResult) ToGob() *gobs.OrderResult {
	if r == nil {
		return nil
	}
	return &gobs.OrderResult{
		OrderID:          int64(r.OrderID),
		ClientOrderID:    r.ClientOrderID,
		Symbol:           r.Symbol,
		Side:             string(r.Side),
		Type:             string(r.Type),
		Status:           r.Status,
		Price:            r.Price,
		StopPrice:        r.StopPrice,
		Quantity:         r.Quantity,
		ExecutedQuantity: r.ExecutedQuantity,
		AveragePrice:     r.AveragePrice,
		UpdateTime:       r.UpdateTime,
		Raw:              slices.Clone([]byte(r.Raw)),
	}
}

// OrderResultFromGob is the inverse of ToGob.
func OrderResultFromGob(v *gobs.OrderResult) *OrderResult {
	if v == nil {
		return nil
	}
	return &OrderResult{
		OrderID:          OrderID(v.OrderID),
		ClientOrderID:    v.ClientOrderID,
		Symbol:           v.Symbol,
		Side:             Side(v.Side),
		Type:             OrderType(v.Type),
		Status:           v.Status,
		Price:            v.Price,
		StopPrice:        v.StopPrice,
		Quantity:         v.Quantity,
		ExecutedQuantity: v.ExecutedQuantity,
		AveragePrice:     v.AveragePrice,
		UpdateTime:       v.UpdateTime,
		Raw:              slices.Clone(v.Raw),
	}
}
