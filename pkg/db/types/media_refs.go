package dbtypes

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// MediaRef points at one uploaded object in blob storage.
type MediaRef struct {
	URL       string `json:"url"`
	ObjectKey string `json:"object_key"`
}

// MediaRefs is the ordered set of media references stored as a jsonb column.
type MediaRefs []MediaRef

func (m *MediaRefs) Scan(src any) error {
	if src == nil {
		*m = MediaRefs{}
		return nil
	}

	switch v := src.(type) {
	case string:
		return m.parseFromBytes([]byte(v))
	case []byte:
		return m.parseFromBytes(v)
	default:
		return fmt.Errorf("MediaRefs: unsupported Scan type %T", src)
	}
}

func (m MediaRefs) Value() (driver.Value, error) {
	if len(m) == 0 {
		return "[]", nil
	}
	encoded, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("MediaRefs: encode: %w", err)
	}
	return string(encoded), nil
}

// ObjectKeys returns the storage keys in listing order.
func (m MediaRefs) ObjectKeys() []string {
	keys := make([]string, 0, len(m))
	for _, ref := range m {
		keys = append(keys, ref.ObjectKey)
	}
	return keys
}

func (m *MediaRefs) parseFromBytes(raw []byte) error {
	if len(raw) == 0 {
		*m = MediaRefs{}
		return nil
	}
	var refs []MediaRef
	if err := json.Unmarshal(raw, &refs); err != nil {
		return fmt.Errorf("MediaRefs: decode: %w", err)
	}
	*m = refs
	return nil
}
