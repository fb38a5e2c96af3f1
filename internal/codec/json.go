// Copyright (c) 2026 Nlaak Studios (https://nlaak.com)
// Author: Andrew Donelson (https://www.linkedin.com/in/andrew-donelson/)
//
// json.go - JSON codec wrapping encoding/json; used for values that must
// stay readable when a dump is inspected by hand.

package codec

import "encoding/json"

// JSON encodes with the standard library encoding/json.
type JSON struct{}

// Marshal serializes v to JSON bytes.
func (JSON) Marshal(v any) ([]byte, error) {
	return json.Marshal(v)
}

// Unmarshal deserializes JSON bytes into v.
func (JSON) Unmarshal(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

// Name returns "json".
func (JSON) Name() string { return "json" }
