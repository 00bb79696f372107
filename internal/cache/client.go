package cache

import (
	"encoding/json"
	"net"
	"time"
)

// Client implements KV over a Unix socket to the cache daemon.
type Client struct {
	socketPath string
}

func NewClient(socketPath string) *Client {
	return &Client{socketPath: socketPath}
}

func (c *Client) withConn(fn func(conn net.Conn) error) error {
	conn, err := net.DialTimeout("unix", c.socketPath, 500*time.Millisecond)
	if err != nil {
		return err
	}
	defer conn.Close()
	return fn(conn)
}

func (c *Client) roundTrip(req Request) (Response, error) {
	var resp Response
	err := c.withConn(func(conn net.Conn) error {
		enc := json.NewEncoder(conn)
		dec := json.NewDecoder(conn)
		if err := enc.Encode(&req); err != nil {
			return err
		}
		return dec.Decode(&resp)
	})
	if err != nil {
		return Response{}, err
	}
	if !resp.OK {
		switch resp.Error {
		case ErrNotFound.Error():
			return Response{}, ErrNotFound
		case ErrExpired.Error():
			return Response{}, ErrExpired
		default:
			return Response{}, errorsNew(resp.Error)
		}
	}
	return resp, nil
}

func (c *Client) Get(key string) ([]byte, error) {
	resp, err := c.roundTrip(Request{Op: "get", Key: key})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), resp.Value...), nil
}

// GetStale returns the value even when the daemon reports it expired.
func (c *Client) GetStale(key string) ([]byte, error) {
	resp, err := c.roundTrip(Request{Op: "stale", Key: key})
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), resp.Value...), nil
}

func (c *Client) Put(key string, value []byte, ttl time.Duration) error {
	_, err := c.roundTrip(Request{Op: "put", Key: key, Value: value, TTLSeconds: int64(ttl / time.Second)})
	return err
}

func (c *Client) Delete(key string) error {
	_, err := c.roundTrip(Request{Op: "delete", Key: key})
	return err
}

func (c *Client) DeletePrefix(prefix string) (int, error) {
	resp, err := c.roundTrip(Request{Op: "invalidate", Prefix: prefix})
	if err != nil {
		return 0, err
	}
	return resp.Removed, nil
}

// ServerStats asks the daemon for its store summary.
func (c *Client) ServerStats() (StoreStats, error) {
	resp, err := c.roundTrip(Request{Op: "stats"})
	if err != nil {
		return StoreStats{}, err
	}
	if resp.Stats == nil {
		return StoreStats{}, errorsNew("cache: daemon returned no stats")
	}
	return *resp.Stats, nil
}

// Local helper to avoid importing fmt just for errors.
func errorsNew(msg string) error { return &simpleError{s: msg} }

type simpleError struct{ s string }

func (e *simpleError) Error() string { return e.s }
