package ipc

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"sync"
)

// Handler processes a received envelope. Return nil to send no reply.
type Handler func(env Envelope) (*Envelope, error)

// Connection is one engine session. Each player gets its own connection,
// named after the hello handshake.
type Connection struct {
	conn     net.Conn
	handlers map[string]Handler
	player   string

	mu sync.Mutex // serialises writes
}

func NewConnection(conn net.Conn, handlers map[string]Handler) *Connection {
	if handlers == nil {
		handlers = make(map[string]Handler)
	}
	return &Connection{
		conn:     conn,
		handlers: handlers,
	}
}

func (c *Connection) RegisterHandler(msgType string, handler Handler) {
	c.handlers[msgType] = handler
}

// SetPlayer names the connection in logs.
func (c *Connection) SetPlayer(name string) { c.player = name }

func (c *Connection) Player() string { return c.player }

func (c *Connection) Send(msgType string, data any) error {
	env, err := NewEnvelope(msgType, data)
	if err != nil {
		return err
	}
	return c.write(env)
}

func (c *Connection) write(env Envelope) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return WriteEnvelope(c.conn, env)
}

// ReadLoop dispatches envelopes to their handlers until the connection
// closes, errors or ctx is cancelled. It owns the conn lifetime.
func (c *Connection) ReadLoop(ctx context.Context) {
	defer c.conn.Close()

	stop := context.AfterFunc(ctx, func() { c.conn.Close() })
	defer stop()

	handled := 0
	for {
		env, err := ReadEnvelope(c.conn)
		if err != nil {
			if ctx.Err() == nil && !errors.Is(err, io.EOF) {
				slog.Warn("connection read failed", "player", c.player, "error", err)
			}
			slog.Info("connection closed", "player", c.player, "messages", handled)
			return
		}
		handled++

		handler, ok := c.handlers[env.Type]
		if !ok {
			slog.Warn("no handler for message type", "type", env.Type)
			continue
		}

		resp, err := handler(env)
		if err != nil {
			slog.Error("handler error", "type", env.Type, "player", c.player, "error", err)
			continue
		}

		if resp != nil {
			if err := c.write(*resp); err != nil {
				slog.Error("failed to send response", "type", resp.Type, "error", err)
				return
			}
			slog.Debug("sent response", "type", resp.Type, "player", c.player)
		}
	}
}
