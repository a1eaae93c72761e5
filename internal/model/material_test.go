package model

import (
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

// Stock, ledger and BOM quantities must share one column scale: Postgres
// rounds each column on its own, so a finer BOM column would let a debit be
// stored differently in current_stock and in the ledger row.
func TestQuantityColumnsShareScale(t *testing.T) {
	want := fmt.Sprintf("type:decimal(14,%d)", QuantityScale)
	columns := []struct {
		model interface{}
		field string
	}{
		{Material{}, "CurrentStock"},
		{Material{}, "SafetyStock"},
		{MaterialTransaction{}, "Quantity"},
		{MaterialTransaction{}, "StockBefore"},
		{MaterialTransaction{}, "StockAfter"},
		{BOMEntry{}, "QuantityPerUnit"},
		{PurchaseOrderItem{}, "Quantity"},
	}
	for _, c := range columns {
		typ := reflect.TypeOf(c.model)
		f, ok := typ.FieldByName(c.field)
		if !assert.True(t, ok, "%s.%s", typ.Name(), c.field) {
			continue
		}
		assert.True(t, strings.Contains(f.Tag.Get("gorm"), want),
			"%s.%s has gorm tag %q, want %s", typ.Name(), c.field, f.Tag.Get("gorm"), want)
	}
}

func TestFitsQuantityScale(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"10", true},
		{"0.0015", true},
		{"1.500000", true},
		{"0.00015", false},
		{"9.99985", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FitsQuantityScale(decimal.RequireFromString(tt.in)), tt.in)
	}
}
