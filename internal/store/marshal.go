package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/vmihailenco/msgpack/v5"

	"github.com/roach88/synth/internal/value"
)

// marshalPayload encodes a record value as msgpack. Map keys are sorted
// so equal values encode to equal bytes.
func marshalPayload(v value.Value) ([]byte, error) {
	native, err := value.ToNative(v)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	if err := enc.Encode(native); err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return buf.Bytes(), nil
}

// unmarshalPayload decodes a msgpack payload. Object fields come back in
// RFC 8785 key order and date/times come back as their text.
func unmarshalPayload(data []byte) (value.Value, error) {
	var native any
	if err := msgpack.Unmarshal(data, &native); err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	v, err := value.FromNative(native)
	if err != nil {
		return nil, fmt.Errorf("unmarshal payload: %w", err)
	}
	return v, nil
}

func marshalCollections(names []string) (string, error) {
	if names == nil {
		names = []string{}
	}
	data, err := json.Marshal(names)
	if err != nil {
		return "", fmt.Errorf("marshal collections: %w", err)
	}
	return string(data), nil
}

func unmarshalCollections(data string) ([]string, error) {
	var names []string
	if err := json.Unmarshal([]byte(data), &names); err != nil {
		return nil, fmt.Errorf("unmarshal collections: %w", err)
	}
	if len(names) == 0 {
		return nil, nil
	}
	return names, nil
}
