// internal/store/codec.go

package store

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
)

// ByteOrder is the byte order of every binary encoding in the system,
// snapshot files and wire protocol alike.
var ByteOrder = binary.LittleEndian

// WriteValue writes one value in its binary form: a kind byte followed by
// the payload. Ints are an int64, floats a float64, complex two float64
// halves, text a length-prefixed byte string.
func WriteValue(w io.Writer, v Value) error {
	if err := binary.Write(w, ByteOrder, byte(v.Kind)); err != nil {
		return fmt.Errorf("failed to write value kind: %w", err)
	}
	switch v.Kind {
	case KindInt:
		return binary.Write(w, ByteOrder, v.I64)
	case KindFloat:
		return binary.Write(w, ByteOrder, v.F64)
	case KindComplex:
		return binary.Write(w, ByteOrder, v.C128)
	case KindText:
		if err := binary.Write(w, ByteOrder, uint32(len(v.Str))); err != nil {
			return fmt.Errorf("failed to write text length: %w", err)
		}
		if _, err := w.Write([]byte(v.Str)); err != nil {
			return fmt.Errorf("failed to write text payload: %w", err)
		}
		return nil
	}
	return fmt.Errorf("cannot encode value of unknown kind %d", v.Kind)
}

// ReadValue reads one value written by WriteValue.
func ReadValue(r io.Reader) (Value, error) {
	var kind byte
	if err := binary.Read(r, ByteOrder, &kind); err != nil {
		return Value{}, err
	}
	switch Kind(kind) {
	case KindInt:
		var i int64
		if err := binary.Read(r, ByteOrder, &i); err != nil {
			return Value{}, fmt.Errorf("failed to read int payload: %w", err)
		}
		return IntValue(i), nil
	case KindFloat:
		var f float64
		if err := binary.Read(r, ByteOrder, &f); err != nil {
			return Value{}, fmt.Errorf("failed to read float payload: %w", err)
		}
		return FloatValue(f), nil
	case KindComplex:
		var c complex128
		if err := binary.Read(r, ByteOrder, &c); err != nil {
			return Value{}, fmt.Errorf("failed to read complex payload: %w", err)
		}
		return ComplexValue(c), nil
	case KindText:
		var length uint32
		if err := binary.Read(r, ByteOrder, &length); err != nil {
			return Value{}, fmt.Errorf("failed to read text length: %w", err)
		}
		buf := make([]byte, length)
		if _, err := io.ReadFull(r, buf); err != nil {
			return Value{}, fmt.Errorf("failed to read text payload: %w", err)
		}
		return TextValue(string(buf)), nil
	}
	return Value{}, fmt.Errorf("unknown value kind %d", kind)
}

// encodeCollection flattens a collection into its snapshot payload: an entry
// count, then each key and value in insertion order.
func encodeCollection(c *Collection) ([]byte, error) {
	ents := c.entries()
	var buf bytes.Buffer
	if err := binary.Write(&buf, ByteOrder, uint32(len(ents))); err != nil {
		return nil, fmt.Errorf("failed to write entry count: %w", err)
	}
	for _, ent := range ents {
		if err := WriteValue(&buf, ent.Key); err != nil {
			return nil, fmt.Errorf("failed to encode entry key: %w", err)
		}
		if err := WriteValue(&buf, ent.Value); err != nil {
			return nil, fmt.Errorf("failed to encode entry value: %w", err)
		}
	}
	return buf.Bytes(), nil
}

// decodeCollection rebuilds a collection from its snapshot payload,
// restoring insertion order and the key index as it goes.
func decodeCollection(payload []byte) (*Collection, error) {
	r := bytes.NewReader(payload)
	var count uint32
	if err := binary.Read(r, ByteOrder, &count); err != nil {
		return nil, fmt.Errorf("failed to read entry count: %w", err)
	}
	col := newCollection()
	for i := uint32(0); i < count; i++ {
		key, err := ReadValue(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode key of entry %d: %w", i, err)
		}
		value, err := ReadValue(r)
		if err != nil {
			return nil, fmt.Errorf("failed to decode value of entry %d: %w", i, err)
		}
		col.put(key, value)
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("collection payload has %d trailing bytes", r.Len())
	}
	return col, nil
}
