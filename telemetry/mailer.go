// Copyright 2021 ChainSafe Systems (ON)
// SPDX-License-Identifier: LGPL-3.0-only

package telemetry

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/ChainSafe/exexd/internal/log"
	"github.com/gorilla/websocket"
)

const defaultMessageQueueSize = 256

type telemetryConnection struct {
	wsconn    *websocket.Conn
	verbosity int
	sync.Mutex
}

// Mailer can send messages to connected telemetry endpoints.
type Mailer struct {
	messageQueue chan Message
	connections  []*telemetryConnection
	logger       log.LeveledLogger
}

// BootstrapMailer sets up the mailer, connects to the endpoints given and
// starts the asynchronous message shipment. If enabled is false, a no-op
// mailer is returned instead. Endpoints that cannot be reached after a few
// attempts are skipped with a log message rather than failing the bootstrap.
func BootstrapMailer(ctx context.Context, conns []*Endpoint, enabled bool,
	logger log.LeveledLogger) Client {
	if !enabled {
		return NewNoopMailer()
	}

	const (
		maxRetries = 5
		retryDelay = time.Second * 15
	)

	mailer := &Mailer{
		messageQueue: make(chan Message, defaultMessageQueueSize),
		logger:       logger,
	}

	for _, v := range conns {
		for connAttempts := 0; connAttempts < maxRetries; connAttempts++ {
			wsconn, _, err := websocket.DefaultDialer.DialContext(ctx, v.Endpoint, nil)
			if err != nil {
				mailer.logger.Debugf("issue adding telemetry connection: %s", err)
				select {
				case <-time.After(retryDelay):
					continue
				case <-ctx.Done():
					return mailer
				}
			}

			mailer.connections = append(mailer.connections, &telemetryConnection{
				wsconn:    wsconn,
				verbosity: v.Verbosity,
			})
			break
		}
	}

	go mailer.asyncShipment(ctx)

	return mailer
}

// SendMessage enqueues a message for shipment to all connected
// telemetry endpoints. It never blocks; if the queue is full the
// message is dropped with a log message.
func (m *Mailer) SendMessage(msg Message) {
	select {
	case m.messageQueue <- msg:
	default:
		m.logger.Debugf("telemetry message queue full, dropping %s message",
			msg.messageType())
	}
}

func (m *Mailer) asyncShipment(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			for _, conn := range m.connections {
				conn.Lock()
				err := conn.wsconn.Close()
				conn.Unlock()
				if err != nil {
					m.logger.Debugf("issue closing telemetry connection: %s", err)
				}
			}
			return
		case msg, ok := <-m.messageQueue:
			if !ok {
				return
			}

			msgBytes, err := m.msgToJSON(msg)
			if err != nil {
				m.logger.Debugf("issue encoding telemetry message: %s", err)
				continue
			}

			for _, conn := range m.connections {
				conn.Lock()
				err = conn.wsconn.WriteMessage(websocket.TextMessage, msgBytes)
				conn.Unlock()
				if err != nil {
					m.logger.Debugf("issue while sending telemetry message: %s", err)
				}
			}
		}
	}
}

func (m *Mailer) msgToJSON(message Message) ([]byte, error) {
	return json.Marshal(&messageJSON{
		message: message,
		ts:      time.Now().Format(time.RFC3339Nano),
	})
}
