package codec

import "fmt"

// asUint64/asInt64/asFloat64 coerce a decoded-or-user-supplied value into the
// numeric type a primitive writer needs. Schemas are loaded from YAML/JSON,
// so an encode-time value may arrive as any of Go's native int widths or as
// float64 (what encoding/json produces for every JSON number).
func asUint64(v any) (uint64, error) {
	switch t := v.(type) {
	case uint64:
		return t, nil
	case int64:
		return uint64(t), nil
	case int:
		return uint64(t), nil
	case uint:
		return uint64(t), nil
	case uint32:
		return uint64(t), nil
	case int32:
		return uint64(t), nil
	case float64:
		return uint64(t), nil
	}
	return 0, fmt.Errorf("cannot use %T as an unsigned integer", v)
}

func asInt64(v any) (int64, error) {
	switch t := v.(type) {
	case int64:
		return t, nil
	case uint64:
		return int64(t), nil
	case int:
		return int64(t), nil
	case int32:
		return int64(t), nil
	case uint32:
		return int64(t), nil
	case float64:
		return int64(t), nil
	}
	return 0, fmt.Errorf("cannot use %T as a signed integer", v)
}

func asFloat64(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case int:
		return float64(t), nil
	}
	return 0, fmt.Errorf("cannot use %T as a float", v)
}

func asBytes(v any) ([]byte, error) {
	switch t := v.(type) {
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	}
	return nil, fmt.Errorf("cannot use %T as bytes", v)
}

func asString(v any) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case []byte:
		return string(t), nil
	}
	return "", fmt.Errorf("cannot use %T as a string", v)
}

func asSlice(v any) ([]any, error) {
	s, ok := v.([]any)
	if !ok {
		return nil, fmt.Errorf("cannot use %T as an array", v)
	}
	return s, nil
}
