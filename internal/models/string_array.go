package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"strings"
)

// StringArray is a custom type for []string that can be stored as JSON in database
type StringArray []string

// Scan implements sql.Scanner interface
func (s *StringArray) Scan(value any) error {
	switch v := value.(type) {
	case nil:
		*s = StringArray{}
		return nil
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("failed to unmarshal JSON value")
	}
}

// Value implements driver.Valuer interface
func (s StringArray) Value() (driver.Value, error) {
	if len(s) == 0 {
		return "[]", nil
	}
	b, err := json.Marshal([]string(s))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Join returns a string with elements joined by the specified separator
func (s StringArray) Join(sep string) string {
	return strings.Join(s, sep)
}

// Contains reports whether v is one of the elements
func (s StringArray) Contains(v string) bool {
	for _, item := range s {
		if item == v {
			return true
		}
	}
	return false
}
