package control

import (
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"os"
	"syscall"
	"time"
)

// DefaultClientTimeout is the default timeout for client operations.
const DefaultClientTimeout = 5 * time.Second

// ErrNotRunning is returned when no shell is listening on the socket.
var ErrNotRunning = errors.New("walletshell not running")

// Client connects to a running shell via its Unix socket.
type Client struct {
	sockPath string
	timeout  time.Duration
}

// NewClient creates a new client.
func NewClient(sockPath string) *Client {
	return &Client{
		sockPath: sockPath,
		timeout:  DefaultClientTimeout,
	}
}

// SetTimeout sets the timeout for client operations.
func (c *Client) SetTimeout(d time.Duration) {
	c.timeout = d
}

// call sends a request and decodes the result into out, when out is non-nil.
func (c *Client) call(method string, params any, out any) error {
	conn, err := net.DialTimeout("unix", c.sockPath, c.timeout)
	if err != nil {
		return c.wrapConnError(err)
	}
	defer func() { _ = conn.Close() }()

	if err := conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return fmt.Errorf("set deadline: %w", err)
	}

	req := Request{Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return fmt.Errorf("marshal params: %w", err)
		}
		req.Params = raw
	}
	if err := json.NewEncoder(conn).Encode(req); err != nil {
		return fmt.Errorf("send request: %w", err)
	}

	var resp struct {
		Result json.RawMessage `json:"result"`
		Error  string          `json:"error"`
	}
	if err := json.NewDecoder(conn).Decode(&resp); err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.Error != "" {
		return fmt.Errorf("walletshell error: %s", resp.Error)
	}
	if out != nil {
		if err := json.Unmarshal(resp.Result, out); err != nil {
			return fmt.Errorf("unmarshal %s result: %w", method, err)
		}
	}
	return nil
}

// wrapConnError converts connection errors to user-friendly messages.
func (c *Client) wrapConnError(err error) error {
	var sysErr syscall.Errno
	if errors.As(err, &sysErr) {
		switch sysErr {
		case syscall.ENOENT:
			return fmt.Errorf("%w (socket not found)", ErrNotRunning)
		case syscall.ECONNREFUSED:
			return fmt.Errorf("%w (connection refused)", ErrNotRunning)
		}
	}
	if os.IsNotExist(err) {
		return fmt.Errorf("%w (socket not found)", ErrNotRunning)
	}
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return errors.New("walletshell request timed out")
	}
	return fmt.Errorf("connect to walletshell: %w", err)
}

// Status returns the state of the running shell.
func (c *Client) Status() (*StatusResponse, error) {
	var status StatusResponse
	if err := c.call(MethodStatus, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Notify posts a lifecycle notification. payload may be nil.
func (c *Client) Notify(kind string, payload json.RawMessage) error {
	return c.call(MethodNotify, NotifyParams{Kind: kind, Payload: payload}, nil)
}

// Quit asks the shell to shut down. It returns once the request is queued.
func (c *Client) Quit() error {
	return c.call(MethodQuit, nil, nil)
}

// IsRunning checks if a shell is listening by attempting to connect.
func (c *Client) IsRunning() bool {
	conn, err := net.DialTimeout("unix", c.sockPath, time.Second)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
