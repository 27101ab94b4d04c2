package watcher

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=mock/transport.go -package=mock_transport

// Transport is the opaque connection to the game server: a stream of chat
// lines in, command strings out.
type Transport interface {
	// Lines streams chat lines until the transport closes
	Lines() <-chan string

	// Send delivers one command string to the game server
	Send(command string) error

	// Close tears the connection down
	Close() error
}

// ErrTransportClosed is returned by Send after the connection is gone.
var ErrTransportClosed = errors.New("transport closed")

const (
	maxConnectAttempts  = 8
	initialConnectDelay = time.Second
)

// TCPTransport implements Transport over a newline-delimited TCP socket.
type TCPTransport struct {
	addr  string
	lines chan string

	mu     sync.Mutex
	conn   net.Conn
	closed bool
}

// DialTCP connects to the game server bridge with bounded exponential
// backoff, giving up after maxConnectAttempts.
func DialTCP(ctx context.Context, addr string) (*TCPTransport, error) {
	var conn net.Conn
	var err error

	delay := initialConnectDelay
	for attempt := 1; attempt <= maxConnectAttempts; attempt++ {
		var d net.Dialer
		conn, err = d.DialContext(ctx, "tcp", addr)
		if err == nil {
			break
		}

		log.WithError(err).Warnf("[TRANSPORT] Connect attempt %d/%d to %s failed", attempt, maxConnectAttempts, addr)
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	if err != nil {
		return nil, fmt.Errorf("error connecting to %s after %d attempts: %w", addr, maxConnectAttempts, err)
	}

	t := &TCPTransport{
		addr:  addr,
		lines: make(chan string),
		conn:  conn,
	}
	go t.readLoop()

	return t, nil
}

// Lines streams chat lines until the transport closes
func (t *TCPTransport) Lines() <-chan string {
	return t.lines
}

// Send delivers one command string to the game server
func (t *TCPTransport) Send(command string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed || t.conn == nil {
		return ErrTransportClosed
	}

	if _, err := fmt.Fprintln(t.conn, command); err != nil {
		return fmt.Errorf("error sending command: %w", err)
	}

	return nil
}

// Close tears the connection down
func (t *TCPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}

func (t *TCPTransport) readLoop() {
	defer close(t.lines)

	scanner := bufio.NewScanner(t.conn)
	for scanner.Scan() {
		t.lines <- scanner.Text()
	}

	if err := scanner.Err(); err != nil {
		log.WithError(err).Warn("[TRANSPORT] Read loop ended")
	}
}
