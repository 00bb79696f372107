package cache

// Simple JSON protocol for the cache daemon over a Unix domain socket.
// One request -> one response using json.Encoder/Decoder per connection.
//
// "stale" is a get that tolerates expiry: the daemon answers with the stored
// value and Expired=true instead of an error, so the caller can decide
// whether a stale value is acceptable.

type Request struct {
	Op         string `json:"op"` // "get" | "stale" | "put" | "delete" | "invalidate" | "stats"
	Key        string `json:"key,omitempty"`
	Prefix     string `json:"prefix,omitempty"`
	Value      []byte `json:"value,omitempty"`
	TTLSeconds int64  `json:"ttl_seconds,omitempty"`
}

type Response struct {
	OK      bool        `json:"ok"`
	Value   []byte      `json:"value,omitempty"`
	Expired bool        `json:"expired,omitempty"`
	Removed int         `json:"removed,omitempty"`
	Stats   *StoreStats `json:"stats,omitempty"`
	Error   string      `json:"error,omitempty"`
}
