package main

import (
	"encoding/json"
	"net"
	"os"
	"path/filepath"
	"time"

	"github.com/alexonufrak/dashboardv5-sub004/internal/cache"
)

// The cache daemon holds the durable view cache shared by short-lived
// dashboard processes. It intentionally reads only its own env vars so it can
// run without record-store credentials.

func main() {
	sock := defaultString(os.Getenv("DASHBOARD_CACHE_SOCK"), defaultCachePath("cache.sock"))
	db := defaultString(os.Getenv("DASHBOARD_CACHE_DB"), defaultCachePath("cache.bbolt"))

	// Ensure socket dir exists and remove stale socket
	_ = os.MkdirAll(filepath.Dir(sock), 0o755)
	_ = os.Remove(sock)

	l, err := net.Listen("unix", sock)
	if err != nil {
		panic(err)
	}
	defer l.Close()
	_ = os.Chmod(sock, 0o600)

	store, err := cache.Open(db, cache.Options{Bucket: "views", DefaultTTL: 10 * time.Minute})
	if err != nil {
		panic(err)
	}
	defer store.Close()

	for {
		conn, err := l.Accept()
		if err != nil {
			continue
		}
		go handleConn(conn, store)
	}
}

func handleConn(conn net.Conn, store *cache.Store) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req cache.Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		switch req.Op {
		case "get":
			v, err := store.Get(req.Key)
			if err != nil {
				_ = enc.Encode(cache.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(cache.Response{OK: true, Value: v})
		case "stale":
			v, err := store.GetStale(req.Key)
			if err != nil {
				_ = enc.Encode(cache.Response{OK: false, Error: err.Error()})
				continue
			}
			// Expired is advisory; the caller asked for stale tolerance.
			_, freshErr := store.Get(req.Key)
			_ = enc.Encode(cache.Response{OK: true, Value: v, Expired: freshErr != nil})
		case "put":
			ttl := time.Duration(req.TTLSeconds) * time.Second
			if err := store.Put(req.Key, req.Value, ttl); err != nil {
				_ = enc.Encode(cache.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(cache.Response{OK: true})
		case "delete":
			if err := store.Delete(req.Key); err != nil {
				_ = enc.Encode(cache.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(cache.Response{OK: true})
		case "invalidate":
			removed, err := store.DeletePrefix(req.Prefix)
			if err != nil {
				_ = enc.Encode(cache.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(cache.Response{OK: true, Removed: removed})
		case "stats":
			st, err := store.Stats()
			if err != nil {
				_ = enc.Encode(cache.Response{OK: false, Error: err.Error()})
				continue
			}
			_ = enc.Encode(cache.Response{OK: true, Stats: &st})
		default:
			_ = enc.Encode(cache.Response{OK: false, Error: "unknown op"})
		}
	}
}

func defaultCachePath(name string) string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "dashboard", name)
}

func defaultString(v, d string) string {
	if v == "" {
		return d
	}
	return v
}
