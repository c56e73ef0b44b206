// internal/handler/handler.go

// Package handler answers the request loop of one client connection,
// translating store and query outcomes into wire responses.
package handler

import (
	"errors"
	"io"
	"log/slog"
	"net"

	jsoniter "github.com/json-iterator/go"

	"querykv/internal/protocol"
	"querykv/internal/query"
	"querykv/internal/store"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Client-facing failure messages. These are contract text, matched verbatim
// by clients and tests; internal error detail stays in the logs.
const (
	msgInvalidCollectionName = "Invalid collection name."
	msgCollectionExists      = "Collection already exists."
	msgCollectionMissing     = "Collection does not exist."
	msgEntryMissing          = "Entry does not exist."
	msgEntryNotDeleted       = "Entry could not be deleted."
	msgInvalidQuerySyntax    = "Invalid query syntax."
	msgUnknownRequestType    = "Request type does not exist."
	msgEncodeFailure         = "Failed to encode response data."
)

// ConnectionHandler serves one client connection at a time: read a request,
// act on the store, write exactly one response.
type ConnectionHandler struct {
	Store    *store.Store
	Executor *query.Executor
}

func NewConnectionHandler(s *store.Store, e *query.Executor) *ConnectionHandler {
	return &ConnectionHandler{Store: s, Executor: e}
}

// HandleConnection runs the request loop until the client disconnects, the
// stream breaks, or an unknown request type arrives. An unknown type still
// gets its failure response before the connection closes, since the stream
// position is unrecoverable after it.
func (h *ConnectionHandler) HandleConnection(conn net.Conn) {
	defer conn.Close()
	remote := conn.RemoteAddr().String()
	slog.Info("New client connected", "remote_addr", remote)

	for {
		reqType, err := protocol.ReadRequestType(conn)
		if err != nil {
			if errors.Is(err, io.EOF) {
				slog.Info("Client disconnected", "remote_addr", remote)
			} else {
				slog.Warn("Failed to read request type", "remote_addr", remote, "error", err)
			}
			return
		}

		var ok bool
		switch reqType {
		case protocol.ReqRead:
			ok = h.handleRead(conn, remote)
		case protocol.ReqAdd:
			ok = h.handleAdd(conn, remote)
		case protocol.ReqDelete:
			ok = h.handleDelete(conn, remote)
		case protocol.ReqQuery:
			ok = h.handleQuery(conn, remote)
		case protocol.ReqCreateCollection:
			ok = h.handleCreateCollection(conn, remote)
		case protocol.ReqDeleteCollection:
			ok = h.handleDeleteCollection(conn, remote)
		default:
			slog.Warn("Unknown request type, closing connection", "remote_addr", remote, "type", uint8(reqType))
			h.writeFailure(conn, remote, msgUnknownRequestType)
			return
		}
		if !ok {
			return
		}
	}
}

// Each handler returns false when the stream is beyond saving, either
// because the request would not decode or the response would not send.

func (h *ConnectionHandler) handleRead(conn net.Conn, remote string) bool {
	collection, key, err := protocol.ReadReadRequest(conn)
	if err != nil {
		slog.Warn("Failed to decode read request", "remote_addr", remote, "error", err)
		return false
	}
	ent, err := h.Store.Get(collection, key)
	switch {
	case errors.Is(err, store.ErrCollectionNotFound):
		return h.writeFailure(conn, remote, msgCollectionMissing)
	case errors.Is(err, store.ErrEntryNotFound):
		return h.writeFailure(conn, remote, msgEntryMissing)
	case err != nil:
		slog.Error("Read failed", "remote_addr", remote, "collection", collection, "error", err)
		return h.writeFailure(conn, remote, err.Error())
	}
	return h.writeEntries(conn, remote, []string{collection}, []store.Entry{ent})
}

func (h *ConnectionHandler) handleAdd(conn net.Conn, remote string) bool {
	collection, key, value, err := protocol.ReadAddRequest(conn)
	if err != nil {
		slog.Warn("Failed to decode add request", "remote_addr", remote, "error", err)
		return false
	}
	if err := h.Store.Put(collection, key, value); err != nil {
		return h.writeFailure(conn, remote, msgCollectionMissing)
	}
	return h.writeEntries(conn, remote, []string{collection}, []store.Entry{{Key: key, Value: value}})
}

func (h *ConnectionHandler) handleDelete(conn net.Conn, remote string) bool {
	collection, key, err := protocol.ReadDeleteRequest(conn)
	if err != nil {
		slog.Warn("Failed to decode delete request", "remote_addr", remote, "error", err)
		return false
	}
	err = h.Store.Remove(collection, key)
	switch {
	case errors.Is(err, store.ErrCollectionNotFound):
		return h.writeFailure(conn, remote, msgCollectionMissing)
	case errors.Is(err, store.ErrEntryNotFound):
		return h.writeFailure(conn, remote, msgEntryNotDeleted)
	case err != nil:
		slog.Error("Delete failed", "remote_addr", remote, "collection", collection, "error", err)
		return h.writeFailure(conn, remote, err.Error())
	}
	return h.writeSuccess(conn, remote, []string{collection}, nil)
}

func (h *ConnectionHandler) handleQuery(conn net.Conn, remote string) bool {
	text, err := protocol.ReadQueryRequest(conn)
	if err != nil {
		slog.Warn("Failed to decode query request", "remote_addr", remote, "error", err)
		return false
	}
	q, err := query.Parse(text)
	if err != nil {
		slog.Debug("Query rejected", "remote_addr", remote, "query", text, "error", err)
		return h.writeFailure(conn, remote, msgInvalidQuerySyntax)
	}
	res, err := h.Executor.Execute(q)
	if err != nil {
		var unknown *query.UnknownCollectionError
		if errors.As(err, &unknown) {
			return h.writeFailure(conn, remote, unknown.Error())
		}
		slog.Error("Query failed", "remote_addr", remote, "query", text, "error", err)
		return h.writeFailure(conn, remote, err.Error())
	}

	var payload any = res.Entries
	if q.Action == query.ActionJoin {
		payload = res.Groups
	}
	data, err := json.Marshal(payload)
	if err != nil {
		slog.Error("Failed to encode query result", "remote_addr", remote, "query", text, "error", err)
		return h.writeFailure(conn, remote, msgEncodeFailure)
	}
	return h.writeSuccess(conn, remote, res.Collections, data)
}

func (h *ConnectionHandler) handleCreateCollection(conn net.Conn, remote string) bool {
	name, err := protocol.ReadCreateCollectionRequest(conn)
	if err != nil {
		slog.Warn("Failed to decode create collection request", "remote_addr", remote, "error", err)
		return false
	}
	if err := h.Store.CreateCollection(name); err != nil {
		msg := msgInvalidCollectionName
		if errors.Is(err, store.ErrCollectionExists) {
			msg = msgCollectionExists
		}
		return h.writeFailure(conn, remote, msg)
	}
	slog.Info("Collection created", "remote_addr", remote, "collection", name)
	return h.writeSuccess(conn, remote, []string{name}, nil)
}

func (h *ConnectionHandler) handleDeleteCollection(conn net.Conn, remote string) bool {
	name, err := protocol.ReadDeleteCollectionRequest(conn)
	if err != nil {
		slog.Warn("Failed to decode delete collection request", "remote_addr", remote, "error", err)
		return false
	}
	if err := h.Store.DeleteCollection(name); err != nil {
		return h.writeFailure(conn, remote, msgCollectionMissing)
	}
	slog.Info("Collection deleted", "remote_addr", remote, "collection", name)
	return h.writeSuccess(conn, remote, nil, nil)
}

func (h *ConnectionHandler) writeEntries(conn net.Conn, remote string, names []string, entries []store.Entry) bool {
	data, err := json.Marshal(entries)
	if err != nil {
		slog.Error("Failed to encode entries", "remote_addr", remote, "error", err)
		return h.writeFailure(conn, remote, msgEncodeFailure)
	}
	return h.writeSuccess(conn, remote, names, data)
}

func (h *ConnectionHandler) writeSuccess(conn net.Conn, remote string, names []string, data []byte) bool {
	if err := protocol.WriteResponse(conn, true, "", names, data); err != nil {
		slog.Warn("Failed to write response", "remote_addr", remote, "error", err)
		return false
	}
	return true
}

func (h *ConnectionHandler) writeFailure(conn net.Conn, remote string, message string) bool {
	if err := protocol.WriteResponse(conn, false, message, nil, nil); err != nil {
		slog.Warn("Failed to write response", "remote_addr", remote, "error", err)
		return false
	}
	return true
}
