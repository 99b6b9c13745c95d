package websocket

import (
	"encoding/json"
	"time"

	"marketsync/pkg/errors"
	"marketsync/pkg/logger"
)

const (
	MessageTypePing     = "ping"
	MessageTypePong     = "pong"
	MessageTypeSnapshot = "snapshot"
	MessageTypeError    = "error"
	MessageTypeAck      = "ack"
	MessageTypeSignIn   = "sign_in"
	MessageTypeSignOut  = "sign_out"
)

// WSMessage is the frame exchanged in both directions.
type WSMessage struct {
	Type      string      `json:"type"`
	Topic     string      `json:"topic,omitempty"`
	Data      interface{} `json:"data,omitempty"`
	Token     string      `json:"token,omitempty"`
	Error     *ErrorData  `json:"error,omitempty"`
	Timestamp string      `json:"timestamp"`
}

type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// MessageHandler serves inbound frames other than ping. A nil error is
// acknowledged to the client.
type MessageHandler func(client *Client, msg WSMessage) error

func timestamp() string {
	return time.Now().UTC().Format(time.RFC3339Nano)
}

func snapshotMessage(topic string, data interface{}) WSMessage {
	return WSMessage{Type: MessageTypeSnapshot, Topic: topic, Data: data, Timestamp: timestamp()}
}

func errorMessage(topic string, err error) WSMessage {
	info := &ErrorData{Code: errors.CodeInternal, Message: err.Error()}
	if appErr, ok := err.(*errors.AppError); ok {
		info.Code = appErr.Code
	}
	return WSMessage{Type: MessageTypeError, Topic: topic, Error: info, Timestamp: timestamp()}
}

// HandleClientMessage decodes one inbound frame and answers it.
func (m *Manager) HandleClientMessage(client *Client, raw []byte, handle MessageHandler) {
	var msg WSMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		logger.Warn("WebSocket: malformed frame from client %s: %v", client.ID, err)
		client.reply(errorMessage("", errors.BadRequest("Invalid message format", nil)))
		return
	}

	if msg.Type == MessageTypePing {
		client.reply(WSMessage{Type: MessageTypePong, Timestamp: timestamp()})
		return
	}

	if handle == nil {
		client.reply(errorMessage(msg.Topic, errors.BadRequest("Unsupported message type "+msg.Type, nil)))
		return
	}
	if err := handle(client, msg); err != nil {
		client.reply(errorMessage(msg.Topic, err))
		return
	}
	client.reply(WSMessage{Type: MessageTypeAck, Topic: msg.Type, Timestamp: timestamp()})
}
