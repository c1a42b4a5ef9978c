// Package client is a minimal raw MPD client: dial, run one command,
// read the response. It exists for tests and simple tooling; full
// featured clients should use a dedicated MPD library instead.
package client

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/marmeladema/kodimpd/protocol"
)

// Pair is one key: value line of a response.
type Pair struct {
	Key   string
	Value string
}

// Client is a connection to an MPD server. It is not safe for
// concurrent use.
type Client struct {
	conn    net.Conn
	r       *bufio.Reader
	version string
}

// Dial connects and consumes the handshake banner.
func Dial(ctx context.Context, network, addr string) (*Client, error) {
	var d net.Dialer
	conn, err := d.DialContext(ctx, network, addr)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", addr)
	}

	c := &Client{conn: conn, r: bufio.NewReader(conn)}
	banner, err := c.r.ReadString('\n')
	if err != nil {
		conn.Close()
		return nil, errors.Wrap(err, "read banner")
	}
	version, ok := strings.CutPrefix(strings.TrimSuffix(banner, "\n"), "OK MPD ")
	if !ok {
		conn.Close()
		return nil, errors.Newf("unexpected banner %q", banner)
	}
	c.version = version
	return c, nil
}

// Version returns the protocol version announced in the banner.
func (c *Client) Version() string {
	return c.version
}

// Command runs one command and returns the response pairs. A server
// ACK comes back as a *protocol.Ack error.
func (c *Client) Command(verb string, args ...string) ([]Pair, error) {
	var line strings.Builder
	line.WriteString(verb)
	for _, arg := range args {
		line.WriteByte(' ')
		line.WriteString(quote(arg))
	}
	line.WriteByte('\n')
	if _, err := c.conn.Write([]byte(line.String())); err != nil {
		return nil, errors.Wrapf(err, "send %s", verb)
	}

	var pairs []Pair
	for {
		raw, err := c.r.ReadString('\n')
		if err != nil {
			return nil, errors.Wrapf(err, "read response to %s", verb)
		}
		raw = strings.TrimSuffix(raw, "\n")
		switch {
		case raw == "OK":
			return pairs, nil
		case strings.HasPrefix(raw, "ACK "):
			return nil, parseAck(raw)
		default:
			key, value, found := strings.Cut(raw, ": ")
			if !found {
				return nil, errors.Newf("malformed response line %q", raw)
			}
			pairs = append(pairs, Pair{Key: key, Value: value})
		}
	}
}

// Close closes the connection without sending a close command.
func (c *Client) Close() error {
	return c.conn.Close()
}

// quote wraps an argument in double quotes, escaping the quote and the
// backslash. MPD accepts quoted arguments unconditionally.
func quote(arg string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(arg); i++ {
		if arg[i] == '"' || arg[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(arg[i])
	}
	b.WriteByte('"')
	return b.String()
}

// parseAck recovers the structured ack from its wire form,
// `ACK [code@index] {command} message`.
func parseAck(raw string) error {
	rest, ok := strings.CutPrefix(raw, "ACK [")
	if !ok {
		return errors.Newf("malformed ack %q", raw)
	}
	codeStr, rest, ok := strings.Cut(rest, "@")
	if !ok {
		return errors.Newf("malformed ack %q", raw)
	}
	indexStr, rest, ok := strings.Cut(rest, "] {")
	if !ok {
		return errors.Newf("malformed ack %q", raw)
	}
	command, message, ok := strings.Cut(rest, "} ")
	if !ok {
		return errors.Newf("malformed ack %q", raw)
	}
	code, err := strconv.Atoi(codeStr)
	if err != nil {
		return errors.Newf("malformed ack code in %q", raw)
	}
	index, err := strconv.Atoi(indexStr)
	if err != nil {
		return errors.Newf("malformed ack index in %q", raw)
	}
	return &protocol.Ack{
		Code:    protocol.AckCode(code),
		Index:   index,
		Command: command,
		Message: message,
	}
}
