package value

import (
	"fmt"
	"slices"
)

// ToNative converts v into plain Go values for encoders such as msgpack.
// DateTime becomes its formatted text and Object becomes a map, so the
// conversion is lossy by design of the storage format.
func ToNative(v Value) (any, error) {
	switch val := v.(type) {
	case Null:
		return nil, nil
	case Bool:
		return bool(val), nil
	case Int:
		return int64(val), nil
	case Uint:
		return uint64(val), nil
	case String:
		return string(val), nil
	case DateTime:
		return val.Text()
	case Array:
		out := make([]any, len(val))
		for i, elem := range val {
			n, err := ToNative(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			out[i] = n
		}
		return out, nil
	case Object:
		out := make(map[string]any, len(val))
		for _, f := range val {
			n, err := ToNative(f.Value)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", f.Name, err)
			}
			out[f.Name] = n
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unknown Value type: %T", v)
	}
}

// FromNative converts decoded plain Go values back into a Value.
// Map keys come back in RFC 8785 order.
func FromNative(n any) (Value, error) {
	switch val := n.(type) {
	case nil:
		return Null{}, nil
	case bool:
		return Bool(val), nil
	case string:
		return String(val), nil
	case int8:
		return Int(val), nil
	case int16:
		return Int(val), nil
	case int32:
		return Int(val), nil
	case int64:
		return Int(val), nil
	case int:
		return Int(val), nil
	case uint8:
		return Uint(val), nil
	case uint16:
		return Uint(val), nil
	case uint32:
		return Uint(val), nil
	case uint64:
		return Uint(val), nil
	case uint:
		return Uint(val), nil
	case []any:
		arr := make(Array, len(val))
		for i, elem := range val {
			v, err := FromNative(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = v
		}
		return arr, nil
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			keys = append(keys, k)
		}
		slices.SortFunc(keys, compareKeysRFC8785)
		obj := make(Object, 0, len(keys))
		for _, k := range keys {
			v, err := FromNative(val[k])
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj = append(obj, Field{Name: k, Value: v})
		}
		return obj, nil
	case float32, float64:
		return nil, fmt.Errorf("floats are not valid values: %v", val)
	default:
		return nil, fmt.Errorf("unsupported native type: %T", n)
	}
}
