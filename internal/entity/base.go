package entity

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// NowUnixMilli returns current unix timestamp in milliseconds
func NowUnixMilli() int64 {
	return time.Now().UnixMilli()
}

// CanonicalPair orders two user ids so (a, b) and (b, a) map to the same pair
func CanonicalPair(a, b string) (low, high string) {
	if a <= b {
		return a, b
	}
	return b, a
}

// PairKey builds the canonical key for a pair of user ids.
// Uses ":" as separator to support user ids containing "_".
func PairKey(a, b string) string {
	low, high := CanonicalPair(a, b)
	return fmt.Sprintf("%s:%s", low, high)
}

// snippetMaxRunes is the content length above which conversation previews
// are truncated
const snippetMaxRunes = 20

// Snippet returns a short preview of message content for conversation lists.
// Content longer than 20 runes is cut to 17 runes plus "...".
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) > snippetMaxRunes {
		return string(runes[:17]) + "..."
	}
	return content
}

// StringList stores a list of strings as a JSON column
type StringList []string

// Value implements driver.Valuer
func (l StringList) Value() (driver.Value, error) {
	if len(l) == 0 {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan implements sql.Scanner
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}
