package server

import (
	"encoding/json"

	"github.com/alimasry/resume-editor/document"
	"github.com/alimasry/resume-editor/editor"
	"github.com/alimasry/resume-editor/textedit"
)

// Message types exchanged over WebSocket.
const (
	// client and server
	MsgJoin  = "join"
	MsgLeave = "leave"
	MsgATS   = "ats"

	// client to server
	MsgSet     = "set"
	MsgUpdate  = "update"
	MsgEdit    = "edit"
	MsgRemove  = "remove"
	MsgCommit  = "commit"
	MsgUndo    = "undo"
	MsgRedo    = "redo"
	MsgSave    = "save"
	MsgRestore = "restore"

	// server to client
	MsgDoc   = "doc"
	MsgState = "state"
	MsgSaved = "saved"
	MsgError = "error"
)

// ClientMessage is a message from client to server.
type ClientMessage struct {
	Type  string          `json:"type"`
	DocID string          `json:"docId,omitempty"`
	Kind  document.Kind   `json:"kind,omitempty"`
	Path  string          `json:"path,omitempty"`
	Value json.RawMessage `json:"value,omitempty"`
	Delta *textedit.Delta `json:"delta,omitempty"`
	// Version names a saved revision for restore.
	Version int `json:"version,omitempty"`
}

// ServerMessage is a message from server to client.
type ServerMessage struct {
	Type     string                `json:"type"`
	DocID    string                `json:"docId,omitempty"`
	Kind     document.Kind         `json:"kind,omitempty"`
	Title    string                `json:"title,omitempty"`
	Content  json.RawMessage       `json:"content,omitempty"`
	Version  int                   `json:"version"`
	Status   *editor.Status        `json:"status,omitempty"`
	ClientID string                `json:"clientId,omitempty"`
	Name     string                `json:"name,omitempty"`
	Color    string                `json:"color,omitempty"`
	Message  string                `json:"message,omitempty"`
	Fields   []document.FieldError `json:"fields,omitempty"`
	Issues   []string              `json:"issues,omitempty"`
	Clients  []ClientInfo          `json:"clients,omitempty"`
}

// ClientInfo describes a connected user.
type ClientInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Encode serializes a ServerMessage to JSON bytes.
func (m ServerMessage) Encode() []byte {
	b, _ := json.Marshal(m)
	return b
}
