// pkg/client/client.go

// Package client is the programmatic TCP client for a querykv server. The
// interactive client is built on it, and tests use it to drive real servers.
package client

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	jsoniter "github.com/json-iterator/go"

	"querykv/internal/protocol"
	"querykv/internal/query"
	"querykv/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// ErrNotConnected is returned when a request is attempted before Connect.
var ErrNotConnected = errors.New("client is not connected")

const dialTimeout = 5 * time.Second

// Client speaks the binary protocol over one TCP connection. A mutex
// serializes whole request/response exchanges, so one Client can be shared
// across goroutines.
type Client struct {
	addr string
	mu   sync.Mutex
	conn net.Conn
}

func New(addr string) *Client {
	return &Client{addr: addr}
}

// Connect dials the server. Connecting an already connected client is a
// no-op.
func (c *Client) Connect() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn != nil {
		return nil
	}
	conn, err := net.DialTimeout("tcp", c.addr, dialTimeout)
	if err != nil {
		return fmt.Errorf("failed to connect to %s: %w", c.addr, err)
	}
	c.conn = conn
	return nil
}

// Close tears the connection down.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	return err
}

// roundTrip buffers one request, sends it, and reads one response frame.
func (c *Client) roundTrip(build func(io.Writer) error) (*protocol.Response, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil, ErrNotConnected
	}
	var buf bytes.Buffer
	if err := build(&buf); err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	if _, err := c.conn.Write(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	resp, err := protocol.ReadResponse(c.conn)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp, nil
}

// Read fetches one entry by exact key.
func (c *Client) Read(collection string, key store.Value) (*protocol.Response, error) {
	return c.roundTrip(func(w io.Writer) error {
		return protocol.WriteReadRequest(w, collection, key)
	})
}

// Add inserts or overwrites one entry.
func (c *Client) Add(collection string, key, value store.Value) (*protocol.Response, error) {
	return c.roundTrip(func(w io.Writer) error {
		return protocol.WriteAddRequest(w, collection, key, value)
	})
}

// Delete removes one entry by exact key.
func (c *Client) Delete(collection string, key store.Value) (*protocol.Response, error) {
	return c.roundTrip(func(w io.Writer) error {
		return protocol.WriteDeleteRequest(w, collection, key)
	})
}

// Query submits one query line as written.
func (c *Client) Query(text string) (*protocol.Response, error) {
	return c.roundTrip(func(w io.Writer) error {
		return protocol.WriteQueryRequest(w, text)
	})
}

// CreateCollection creates an empty collection.
func (c *Client) CreateCollection(name string) (*protocol.Response, error) {
	return c.roundTrip(func(w io.Writer) error {
		return protocol.WriteCreateCollectionRequest(w, name)
	})
}

// DeleteCollection drops a collection from server memory.
func (c *Client) DeleteCollection(name string) (*protocol.Response, error) {
	return c.roundTrip(func(w io.Writer) error {
		return protocol.WriteDeleteCollectionRequest(w, name)
	})
}

// DecodeEntries decodes the data payload of read, add, and filter query
// responses. An empty payload is an empty result.
func DecodeEntries(data []byte) ([]store.Entry, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var entries []store.Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode entries: %w", err)
	}
	return entries, nil
}

// DecodeJoinGroups decodes the data payload of join responses.
func DecodeJoinGroups(data []byte) ([]query.JoinGroup, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var groups []query.JoinGroup
	if err := json.Unmarshal(data, &groups); err != nil {
		return nil, fmt.Errorf("failed to decode join groups: %w", err)
	}
	return groups, nil
}
