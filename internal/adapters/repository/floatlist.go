package repository

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// FloatList stores a []float64 as a JSON text array. A nil list is stored as NULL.
type FloatList []float64

// Scan decodes a JSON array column into the list.
func (l *FloatList) Scan(src interface{}) error {
	var raw []byte
	switch v := src.(type) {
	case nil:
		*l = nil
		return nil
	case []byte:
		raw = v
	case string:
		raw = []byte(v)
	default:
		return fmt.Errorf("FloatList.Scan: unsupported type %T", src)
	}
	var out []float64
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("FloatList.Scan: %w", err)
	}
	*l = out
	return nil
}

// Value encodes the list as a JSON array, or NULL when nil.
func (l FloatList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	b, err := json.Marshal([]float64(l))
	if err != nil {
		return nil, fmt.Errorf("FloatList.Value: %w", err)
	}
	return string(b), nil
}
