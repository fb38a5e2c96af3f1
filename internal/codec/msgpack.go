package codec

import (
	"bytes"

	"github.com/vmihailenco/msgpack/v5"
)

// MsgPack is the default blob codec. Keys are sorted for maps with string
// keys and string, bool or interface{} values; other map types are written
// in iteration order, so blobs holding them are not byte-stable.
type MsgPack struct{}

// Marshal serializes v to MessagePack bytes.
func (MsgPack) Marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := msgpack.NewEncoder(&buf)
	enc.SetSortMapKeys(true)
	enc.UseCompactInts(true)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal deserializes MessagePack bytes into v.
func (MsgPack) Unmarshal(data []byte, v any) error {
	return msgpack.NewDecoder(bytes.NewReader(data)).Decode(v)
}

// Name returns "msgpack".
func (MsgPack) Name() string { return "msgpack" }

// Default is the codec used when none is configured.
var Default Codec = MsgPack{}
