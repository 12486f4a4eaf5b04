package utils

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/spf13/cast"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ConvertToInt reads an integer the way a lenient form parser does:
// numbers are truncated, strings contribute their leading integer
// ("80%" -> 80, " 42.9" -> 42), anything else is an error.
func ConvertToInt(val interface{}) (int, error) {
	switch v := val.(type) {
	case nil:
		return 0, fmt.Errorf("cannot convert nil to int")
	case bool:
		return 0, fmt.Errorf("cannot convert bool to int")
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("cannot convert %v to int", v)
		}
		return int(v), nil
	case float32:
		return ConvertToInt(float64(v))
	case primitive.Decimal128:
		return ConvertToInt(v.String())
	case pgtype.Numeric:
		f, err := v.Float64Value()
		if err != nil || !f.Valid {
			return 0, fmt.Errorf("cannot convert numeric to int")
		}
		return ConvertToInt(f.Float64)
	case json.Number:
		return leadingInt(v.String())
	case string:
		return leadingInt(v)
	case []byte:
		return leadingInt(string(v))
	}
	n, err := cast.ToIntE(val)
	if err != nil {
		return 0, fmt.Errorf("cannot convert %T to int: %w", val, err)
	}
	return n, nil
}

func leadingInt(s string) (int, error) {
	s = strings.TrimSpace(s)
	end := 0
	if end < len(s) && (s[end] == '-' || s[end] == '+') {
		end++
	}
	digits := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, fmt.Errorf("no integer in %q", s)
	}
	return strconv.Atoi(s[:end])
}

// ConvertToBool accepts real booleans, numbers, and the yes/no words that
// appear in spreadsheet exports ("sim", "yes", "true", "1", "x").
func ConvertToBool(val interface{}) (bool, error) {
	switch v := val.(type) {
	case nil:
		return false, fmt.Errorf("cannot convert nil to bool")
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "sim", "s", "yes", "y", "x", "true", "t", "1", "on":
			return true, nil
		case "não", "nao", "n", "no", "false", "f", "0", "off", "":
			return false, nil
		}
		return false, fmt.Errorf("cannot convert %q to bool", v)
	case []byte:
		return ConvertToBool(string(v))
	case json.Number:
		f, err := v.Float64()
		if err != nil {
			return false, err
		}
		return f != 0, nil
	}
	b, err := cast.ToBoolE(val)
	if err != nil {
		return false, fmt.Errorf("cannot convert %T to bool: %w", val, err)
	}
	return b, nil
}

// ConvertToString renders scalar values as text; driver types the cast
// package does not know fall back to fmt.
func ConvertToString(val interface{}) string {
	switch v := val.(type) {
	case nil:
		return ""
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case primitive.DateTime:
		return v.Time().UTC().Format(time.RFC3339Nano)
	case primitive.ObjectID:
		return v.Hex()
	case json.Number:
		return v.String()
	}
	s, err := cast.ToStringE(val)
	if err != nil {
		return fmt.Sprintf("%v", val)
	}
	return s
}

// IsBlank reports whether a value counts as missing: nil or blank text.
func IsBlank(val interface{}) bool {
	switch v := val.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(v) == ""
	case []byte:
		return strings.TrimSpace(string(v)) == ""
	}
	return false
}
