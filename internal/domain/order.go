package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	keyOrderID   = "order_id"
	keyTimestamp = "timestamp"
)

// Order attribute keys written on every update.
const (
	FieldToothPosition    = "tooth_position"
	FieldProduct          = "product"
	FieldMaterialCategory = "material_category"
	FieldMaterial         = "material"
	FieldPonticDesign     = "pontic_design"
	FieldShade            = "shade"
)

// OrderAttributeFields lists the attributes overwritten by an order update, in
// the order they are written.
var OrderAttributeFields = []string{
	FieldToothPosition,
	FieldProduct,
	FieldMaterialCategory,
	FieldMaterial,
	FieldPonticDesign,
	FieldShade,
}

// OrderRecord is the persisted state of one dental order.
//
// Extra holds keys found in a stored blob that are not modelled here; they are
// written back untouched.
type OrderRecord struct {
	OrderID          string `json:"order_id"`
	Timestamp        string `json:"timestamp"`
	ToothPosition    string `json:"tooth_position"`
	Product          string `json:"product"`
	MaterialCategory string `json:"material_category"`
	Material         string `json:"material"`
	PonticDesign     string `json:"pontic_design"`
	Shade            string `json:"shade"`

	Extra map[string]any `json:"-"`
}

// SetAttribute assigns one of the six order attributes by key. Unknown keys
// are ignored.
func (r *OrderRecord) SetAttribute(key, value string) {
	switch key {
	case FieldToothPosition:
		r.ToothPosition = value
	case FieldProduct:
		r.Product = value
	case FieldMaterialCategory:
		r.MaterialCategory = value
	case FieldMaterial:
		r.Material = value
	case FieldPonticDesign:
		r.PonticDesign = value
	case FieldShade:
		r.Shade = value
	}
}

// MarshalJSON writes the modelled fields over Extra. order_id and timestamp
// are omitted when empty; the six attributes are always present.
func (r OrderRecord) MarshalJSON() ([]byte, error) {
	m := make(map[string]any, len(r.Extra)+8)
	for k, v := range r.Extra {
		m[k] = v
	}
	if r.OrderID != "" {
		m[keyOrderID] = r.OrderID
	}
	if r.Timestamp != "" {
		m[keyTimestamp] = r.Timestamp
	}
	m[FieldToothPosition] = r.ToothPosition
	m[FieldProduct] = r.Product
	m[FieldMaterialCategory] = r.MaterialCategory
	m[FieldMaterial] = r.Material
	m[FieldPonticDesign] = r.PonticDesign
	m[FieldShade] = r.Shade
	return json.Marshal(m)
}

// UnmarshalJSON reads a stored order blob. Keys other than the modelled ones
// are kept in Extra.
func (r *OrderRecord) UnmarshalJSON(b []byte) error {
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return err
	}
	if m == nil {
		return errors.New("domain: order record is not a JSON object")
	}
	rec := OrderRecord{
		OrderID:   popString(m, keyOrderID),
		Timestamp: popString(m, keyTimestamp),
	}
	for _, field := range OrderAttributeFields {
		rec.SetAttribute(field, popString(m, field))
	}
	if len(m) > 0 {
		rec.Extra = m
	}
	*r = rec
	return nil
}

// popString removes key from m and returns its value as a string. Non-string
// values are rendered as JSON.
func popString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	delete(m, key)
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		b, err := json.Marshal(t)
		if err != nil {
			return fmt.Sprint(t)
		}
		return string(b)
	}
}
