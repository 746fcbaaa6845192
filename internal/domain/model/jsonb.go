package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB maps a Postgres jsonb column to a Go map.
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return errors.New("unsupported type for JSONB")
	}

	return json.Unmarshal(data, j)
}
