package types

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/calebmoran/printworks-backend/pkg/enums"
)

// CartItemWarning captures a warning attached to a persisted cart line.
type CartItemWarning struct {
	Type    enums.CartItemWarningType `json:"type"`
	Message string                    `json:"message"`
}

// CartItemWarnings is a slice marshaled as JSONB.
type CartItemWarnings []CartItemWarning

// Value serializes the warnings to JSON.
func (c CartItemWarnings) Value() (driver.Value, error) {
	if c == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c)
}

// Scan decodes JSONB into the warning slice.
func (c *CartItemWarnings) Scan(value interface{}) error {
	if value == nil {
		*c = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded CartItemWarnings
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*c = decoded
	return nil
}

// AppliedDiscount records one stage of the sequential discount pipeline:
// the percent applied at that stage and the dollar amount it removed from
// the running price.
type AppliedDiscount struct {
	Stage   enums.DiscountStage `json:"stage"`
	Label   string              `json:"label"`
	Percent decimal.Decimal     `json:"percent"`
	Amount  decimal.Decimal     `json:"amount"`
}

// DiscountBreakdown persists the per-stage discount trail as JSONB.
type DiscountBreakdown []AppliedDiscount

// Value serializes the breakdown to JSON.
func (d DiscountBreakdown) Value() (driver.Value, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(d)
}

// Scan decodes JSONB into the breakdown slice.
func (d *DiscountBreakdown) Scan(value interface{}) error {
	if value == nil {
		*d = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded DiscountBreakdown
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*d = decoded
	return nil
}

// ShippingLine stores the shipping estimate snapshotted on an order.
type ShippingLine struct {
	Method enums.ShippingMethod `json:"method"`
	Label  string               `json:"label"`
	Amount decimal.Decimal      `json:"amount"`
}

// Value serializes the shipping line to JSON.
func (s *ShippingLine) Value() (driver.Value, error) {
	if s == nil {
		return nil, nil
	}
	return json.Marshal(s)
}

// Scan decodes JSONB into the shipping line struct.
func (s *ShippingLine) Scan(value interface{}) error {
	if value == nil {
		*s = ShippingLine{}
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, s)
}

// JSONMap stores an arbitrary JSON object inside a JSONB column.
type JSONMap map[string]any

// Value serializes the map to JSON.
func (j *JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

// Scan decodes JSONB into the map.
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}
	raw, err := asJSON(value)
	if err != nil {
		return err
	}
	var decoded JSONMap
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return err
	}
	*j = decoded
	return nil
}

func asJSON(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported scan type %T", value)
	}
}
