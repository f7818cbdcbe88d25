package network

import (
	"bufio"
	"crypto/tls"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/lixenwraith/ricochet/state"
)

// Client is the analyzer or controller side of the protocol
// Safe for concurrent sends; Ping serializes with other calls
type Client struct {
	mu     sync.Mutex
	conn   net.Conn
	reader *bufio.Reader
	writer *bufio.Writer
	seq    uint32
}

// Dial connects to a listening instrument; tlsCfg nil uses plaintext
func Dial(addr string, timeout time.Duration, tlsCfg *tls.Config) (*Client, error) {
	dialer := &net.Dialer{Timeout: timeout}
	var conn net.Conn
	var err error
	if tlsCfg != nil {
		conn, err = tls.DialWithDialer(dialer, "tcp", addr, tlsCfg)
	} else {
		conn, err = dialer.Dial("tcp", addr)
	}
	if err != nil {
		return nil, err
	}
	return &Client{conn: conn, reader: bufio.NewReader(conn), writer: bufio.NewWriter(conn)}, nil
}

// Send writes and flushes one message
func (c *Client) Send(t MessageType, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendLocked(t, payload)
}

func (c *Client) sendLocked(t MessageType, payload []byte) error {
	c.seq++
	msg := &Message{Type: t, Seq: c.seq, Payload: payload}
	if err := msg.Encode(c.writer); err != nil {
		return err
	}
	return c.writer.Flush()
}

// SendVisual publishes an analyzer reading
func (c *Client) SendVisual(v state.Visual) error { return c.Send(MsgVisual, EncodeVisual(v)) }

// SendTap sends a tap at ms
func (c *Client) SendTap(ms float64) error { return c.Send(MsgTap, EncodeTap(ms)) }

// SendMacroPad sends a pad gesture
func (c *Client) SendMacroPad(x, y float64) error { return c.Send(MsgMacroPad, EncodeMacroPad(x, y)) }

// Ping sends a heartbeat and waits up to timeout for the status reply
func (c *Client) Ping(timeout time.Duration) (Status, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.sendLocked(MsgHeartbeat, nil); err != nil {
		return Status{}, err
	}
	c.conn.SetReadDeadline(time.Now().Add(timeout))
	defer c.conn.SetReadDeadline(time.Time{})

	for {
		msg, err := Decode(c.reader)
		if err != nil {
			return Status{}, err
		}
		if msg.Type != MsgStatus {
			continue
		}
		s, err := DecodeStatus(msg.Payload)
		if err != nil {
			return Status{}, fmt.Errorf("ping: %w", err)
		}
		return s, nil
	}
}

// Close closes the connection
func (c *Client) Close() error { return c.conn.Close() }
