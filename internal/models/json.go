package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// Column values are written as JSON text so the same model works for
// TEXT (sqlite) and JSONB (postgres) columns under every driver.

// JSONMap stores free-form JSON objects
type JSONMap map[string]interface{}

// Value implements driver.Valuer
func (j JSONMap) Value() (driver.Value, error) {
	if j == nil {
		return "{}", nil
	}
	b, err := json.Marshal(j)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (j *JSONMap) Scan(value interface{}) error {
	if value == nil {
		*j = make(JSONMap)
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, j)
}

// StringArray stores a JSON array of strings
type StringArray []string

// Value implements driver.Valuer
func (a StringArray) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	b, err := json.Marshal(a)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (a *StringArray) Scan(value interface{}) error {
	if value == nil {
		*a = StringArray{}
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(bytes, a)
}

// Value implements driver.Valuer
func (s SummaryJSON) Value() (driver.Value, error) {
	b, err := json.Marshal(s.normalized())
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner
func (s *SummaryJSON) Scan(value interface{}) error {
	if value == nil {
		*s = SummaryJSON{}
		return nil
	}
	bytes, err := scanBytes(value)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bytes, s); err != nil {
		return err
	}
	*s = s.normalized()
	return nil
}

// normalized fills nil collections so consumers always see [] / {}
func (s SummaryJSON) normalized() SummaryJSON {
	if s.SentimentTimeline == nil {
		s.SentimentTimeline = []TimelinePoint{}
	}
	if s.Keywords == nil {
		s.Keywords = []string{}
	}
	if s.Topics == nil {
		s.Topics = []TopicCount{}
	}
	if s.Emotions == nil {
		s.Emotions = map[string]float64{}
	}
	if s.KeyThemes == nil {
		s.KeyThemes = []string{}
	}
	return s
}

func scanBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, errors.New("unsupported type for JSON column")
	}
}
