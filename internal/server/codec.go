package server

import (
	"bytes"
	"encoding/json"
)

// jsonCodec lets connect carry plain Go structs as JSON bodies. It replaces
// connect's protobuf-backed "json" codec, so requests keep the
// application/json content type.
type jsonCodec struct{}

func (jsonCodec) Name() string { return "json" }

func (jsonCodec) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal treats an empty body as an empty message.
func (jsonCodec) Unmarshal(data []byte, v any) error {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}
