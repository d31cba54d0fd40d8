package utils

import (
	"encoding/json"

	"gorm.io/datatypes"
)

// ToJSON marshals a request value into a JSON column.
func ToJSON(value interface{}) (datatypes.JSON, error) {
	raw, err := json.Marshal(value)
	if err != nil {
		return nil, err
	}
	return datatypes.JSON(raw), nil
}

// AppendJSON treats the column as a JSON array and appends one entry.
func AppendJSON(column datatypes.JSON, entry interface{}) (datatypes.JSON, error) {
	var list []interface{}
	if len(column) > 0 {
		if err := json.Unmarshal(column, &list); err != nil {
			return nil, err
		}
	}
	list = append(list, entry)
	return ToJSON(list)
}
