// internal/protocol/protocol.go

// Package protocol defines the binary TCP wire format: every request is a
// type byte followed by its fields, answered by exactly one response frame.
// Values travel in the same binary form the snapshot files use.
package protocol

import (
	"encoding/binary"
	"fmt"
	"io"

	"querykv/internal/store"
)

// RequestType defines the type of operation requested by the client.
type RequestType byte

const (
	ReqRead             RequestType = iota + 1 // READ collection, key
	ReqAdd                                     // ADD collection, key, value
	ReqDelete                                  // DELETE collection, key
	ReqQuery                                   // QUERY query text
	ReqCreateCollection                        // CREATE_COLLECTION name
	ReqDeleteCollection                        // DELETE_COLLECTION name
)

// ByteOrder aliases the store codec's byte order so requests, responses,
// and snapshot files never disagree.
var ByteOrder = store.ByteOrder

// ReadRequestType reads the type byte that starts every request.
func ReadRequestType(r io.Reader) (RequestType, error) {
	buf := make([]byte, 1)
	if _, err := io.ReadFull(r, buf); err != nil {
		return 0, err
	}
	return RequestType(buf[0]), nil
}

// ReadString reads a length-prefixed string.
func ReadString(r io.Reader) (string, error) {
	var strLen uint32
	if err := binary.Read(r, ByteOrder, &strLen); err != nil {
		return "", fmt.Errorf("failed to read string length: %w", err)
	}
	strBytes := make([]byte, strLen)
	if _, err := io.ReadFull(r, strBytes); err != nil {
		return "", fmt.Errorf("failed to read string bytes: %w", err)
	}
	return string(strBytes), nil
}

// WriteString writes a length-prefixed string.
func WriteString(w io.Writer, s string) error {
	if err := binary.Write(w, ByteOrder, uint32(len(s))); err != nil {
		return fmt.Errorf("failed to write string length: %w", err)
	}
	if _, err := w.Write([]byte(s)); err != nil {
		return fmt.Errorf("failed to write string: %w", err)
	}
	return nil
}

// ReadBytes reads a length-prefixed byte slice.
func ReadBytes(r io.Reader) ([]byte, error) {
	var byteLen uint32
	if err := binary.Read(r, ByteOrder, &byteLen); err != nil {
		return nil, fmt.Errorf("failed to read bytes length: %w", err)
	}
	byteData := make([]byte, byteLen)
	if _, err := io.ReadFull(r, byteData); err != nil {
		return nil, fmt.Errorf("failed to read bytes: %w", err)
	}
	return byteData, nil
}

// WriteBytes writes a length-prefixed byte slice.
func WriteBytes(w io.Writer, b []byte) error {
	if err := binary.Write(w, ByteOrder, uint32(len(b))); err != nil {
		return fmt.Errorf("failed to write bytes length: %w", err)
	}
	if len(b) == 0 {
		// A zero-length Write blocks forever on synchronous conns (net.Pipe):
		// the reader side never issues the paired Read, since io.ReadFull of
		// an empty buffer returns without reading.
		return nil
	}
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("failed to write bytes: %w", err)
	}
	return nil
}

func writeRequestType(w io.Writer, t RequestType) error {
	if _, err := w.Write([]byte{byte(t)}); err != nil {
		return fmt.Errorf("failed to write request type: %w", err)
	}
	return nil
}

// WriteReadRequest writes a READ request.
// Format: [ReqRead (1 byte)] [NameLength (4 bytes)] [Name] [Key]
func WriteReadRequest(w io.Writer, collection string, key store.Value) error {
	if err := writeRequestType(w, ReqRead); err != nil {
		return err
	}
	if err := WriteString(w, collection); err != nil {
		return fmt.Errorf("failed to write collection name: %w", err)
	}
	if err := store.WriteValue(w, key); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

// ReadReadRequest reads the fields of a READ request after its type byte.
func ReadReadRequest(r io.Reader) (collection string, key store.Value, err error) {
	collection, err = ReadString(r)
	if err != nil {
		return "", store.Value{}, fmt.Errorf("failed to read collection name: %w", err)
	}
	key, err = store.ReadValue(r)
	if err != nil {
		return "", store.Value{}, fmt.Errorf("failed to read key: %w", err)
	}
	return collection, key, nil
}

// WriteAddRequest writes an ADD request.
// Format: [ReqAdd (1 byte)] [NameLength (4 bytes)] [Name] [Key] [Value]
func WriteAddRequest(w io.Writer, collection string, key, value store.Value) error {
	if err := writeRequestType(w, ReqAdd); err != nil {
		return err
	}
	if err := WriteString(w, collection); err != nil {
		return fmt.Errorf("failed to write collection name: %w", err)
	}
	if err := store.WriteValue(w, key); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	if err := store.WriteValue(w, value); err != nil {
		return fmt.Errorf("failed to write value: %w", err)
	}
	return nil
}

// ReadAddRequest reads the fields of an ADD request after its type byte.
func ReadAddRequest(r io.Reader) (collection string, key, value store.Value, err error) {
	collection, err = ReadString(r)
	if err != nil {
		return "", store.Value{}, store.Value{}, fmt.Errorf("failed to read collection name: %w", err)
	}
	key, err = store.ReadValue(r)
	if err != nil {
		return "", store.Value{}, store.Value{}, fmt.Errorf("failed to read key: %w", err)
	}
	value, err = store.ReadValue(r)
	if err != nil {
		return "", store.Value{}, store.Value{}, fmt.Errorf("failed to read value: %w", err)
	}
	return collection, key, value, nil
}

// WriteDeleteRequest writes a DELETE request.
// Format: [ReqDelete (1 byte)] [NameLength (4 bytes)] [Name] [Key]
func WriteDeleteRequest(w io.Writer, collection string, key store.Value) error {
	if err := writeRequestType(w, ReqDelete); err != nil {
		return err
	}
	if err := WriteString(w, collection); err != nil {
		return fmt.Errorf("failed to write collection name: %w", err)
	}
	if err := store.WriteValue(w, key); err != nil {
		return fmt.Errorf("failed to write key: %w", err)
	}
	return nil
}

// ReadDeleteRequest reads the fields of a DELETE request after its type byte.
func ReadDeleteRequest(r io.Reader) (collection string, key store.Value, err error) {
	return ReadReadRequest(r)
}

// WriteQueryRequest writes a QUERY request.
// Format: [ReqQuery (1 byte)] [TextLength (4 bytes)] [Text]
func WriteQueryRequest(w io.Writer, text string) error {
	if err := writeRequestType(w, ReqQuery); err != nil {
		return err
	}
	if err := WriteString(w, text); err != nil {
		return fmt.Errorf("failed to write query text: %w", err)
	}
	return nil
}

// ReadQueryRequest reads the text of a QUERY request after its type byte.
func ReadQueryRequest(r io.Reader) (string, error) {
	text, err := ReadString(r)
	if err != nil {
		return "", fmt.Errorf("failed to read query text: %w", err)
	}
	return text, nil
}

// WriteCreateCollectionRequest writes a CREATE_COLLECTION request.
// Format: [ReqCreateCollection (1 byte)] [NameLength (4 bytes)] [Name]
func WriteCreateCollectionRequest(w io.Writer, name string) error {
	if err := writeRequestType(w, ReqCreateCollection); err != nil {
		return err
	}
	if err := WriteString(w, name); err != nil {
		return fmt.Errorf("failed to write collection name: %w", err)
	}
	return nil
}

// ReadCreateCollectionRequest reads the name of a CREATE_COLLECTION request
// after its type byte.
func ReadCreateCollectionRequest(r io.Reader) (string, error) {
	name, err := ReadString(r)
	if err != nil {
		return "", fmt.Errorf("failed to read collection name: %w", err)
	}
	return name, nil
}

// WriteDeleteCollectionRequest writes a DELETE_COLLECTION request.
// Format: [ReqDeleteCollection (1 byte)] [NameLength (4 bytes)] [Name]
func WriteDeleteCollectionRequest(w io.Writer, name string) error {
	if err := writeRequestType(w, ReqDeleteCollection); err != nil {
		return err
	}
	if err := WriteString(w, name); err != nil {
		return fmt.Errorf("failed to write collection name: %w", err)
	}
	return nil
}

// ReadDeleteCollectionRequest reads the name of a DELETE_COLLECTION request
// after its type byte.
func ReadDeleteCollectionRequest(r io.Reader) (string, error) {
	name, err := ReadString(r)
	if err != nil {
		return "", fmt.Errorf("failed to read collection name: %w", err)
	}
	return name, nil
}

// Response is one server answer: a success flag, a failure message, the
// collection names involved, and an optional JSON data payload.
type Response struct {
	Success bool
	Message string
	Names   []string
	Data    []byte
}

// WriteResponse sends one response frame.
// Format: [Success (1 byte)] [MessageLength (4 bytes)] [Message]
// [NameCount (1 byte)] per name: [NameLength (4 bytes)] [Name]
// [DataLength (4 bytes)] [Data]
func WriteResponse(w io.Writer, success bool, message string, names []string, data []byte) error {
	flag := byte(0)
	if success {
		flag = 1
	}
	if _, err := w.Write([]byte{flag}); err != nil {
		return fmt.Errorf("failed to write success flag: %w", err)
	}
	if err := WriteString(w, message); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}
	if len(names) > 255 {
		return fmt.Errorf("too many collection names: %d", len(names))
	}
	if _, err := w.Write([]byte{byte(len(names))}); err != nil {
		return fmt.Errorf("failed to write name count: %w", err)
	}
	for _, name := range names {
		if err := WriteString(w, name); err != nil {
			return fmt.Errorf("failed to write collection name: %w", err)
		}
	}
	if err := WriteBytes(w, data); err != nil {
		return fmt.Errorf("failed to write data: %w", err)
	}
	return nil
}

// ReadResponse reads one response frame.
func ReadResponse(r io.Reader) (*Response, error) {
	flag := make([]byte, 1)
	if _, err := io.ReadFull(r, flag); err != nil {
		return nil, fmt.Errorf("failed to read success flag: %w", err)
	}
	message, err := ReadString(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read message: %w", err)
	}
	count := make([]byte, 1)
	if _, err := io.ReadFull(r, count); err != nil {
		return nil, fmt.Errorf("failed to read name count: %w", err)
	}
	var names []string
	for i := 0; i < int(count[0]); i++ {
		name, err := ReadString(r)
		if err != nil {
			return nil, fmt.Errorf("failed to read collection name %d: %w", i, err)
		}
		names = append(names, name)
	}
	data, err := ReadBytes(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read data: %w", err)
	}
	if len(data) == 0 {
		data = nil
	}
	return &Response{Success: flag[0] == 1, Message: message, Names: names, Data: data}, nil
}
