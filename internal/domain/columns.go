package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// ConfigData maps option names to their values. It is stored as a JSON column.
type ConfigData map[string]any

// Value implements driver.Valuer.
func (c ConfigData) Value() (driver.Value, error) {
	if c == nil {
		return "{}", nil
	}
	b, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config data: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (c *ConfigData) Scan(src any) error {
	raw, err := columnBytes(src)
	if err != nil {
		return err
	}
	m := ConfigData{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &m); err != nil {
			return fmt.Errorf("failed to decode config data: %w", err)
		}
	}
	*c = m
	return nil
}

// StringList is an ordered list of strings stored as a JSON array column.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]string(l))
	if err != nil {
		return nil, fmt.Errorf("failed to encode string list: %w", err)
	}
	return string(b), nil
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(src any) error {
	raw, err := columnBytes(src)
	if err != nil {
		return err
	}
	list := StringList{}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("failed to decode string list: %w", err)
		}
	}
	*l = list
	return nil
}

func columnBytes(src any) ([]byte, error) {
	switch v := src.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(v), nil
	case []byte:
		return v, nil
	default:
		return nil, fmt.Errorf("unsupported column type %T", src)
	}
}
