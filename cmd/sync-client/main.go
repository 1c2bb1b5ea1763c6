// Command sync-client prints live events from the TCP sync server.
package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"mangazek/internal/logging"
	synchub "mangazek/internal/sync"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:7070", "TCP sync server address")
	pretty := flag.Bool("pretty", true, "pretty print JSON events")
	flag.Parse()

	logger, err := logging.New(true)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := run(ctx, *addr, *pretty, os.Stdout, logger); err != nil && ctx.Err() == nil {
			logger.Warn("disconnected", zap.String("addr", *addr), zap.Error(err))
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(time.Second): // auto reconnect
		}
	}
}

func run(ctx context.Context, addr string, pretty bool, w io.Writer, logger *zap.Logger) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	logger.Info("connected", zap.String("addr", addr))

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		fmt.Fprintln(w, format(sc.Bytes(), pretty))
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

// format renders known events as one readable line and anything else as
// (optionally indented) JSON.
func format(line []byte, pretty bool) string {
	if !pretty {
		return string(line)
	}

	var ev synchub.Event
	if err := json.Unmarshal(line, &ev); err == nil {
		switch ev.Type {
		case synchub.EventFavoriteAdded:
			return fmt.Sprintf("%s  %s favorited %s", ev.At.Format(time.RFC3339), ev.UserID, ev.MangaID)
		case synchub.EventFavoriteRemoved:
			return fmt.Sprintf("%s  %s unfavorited %s", ev.At.Format(time.RFC3339), ev.UserID, ev.MangaID)
		case synchub.EventChapterRead:
			return fmt.Sprintf("%s  %s read %s/%s (level %d)", ev.At.Format(time.RFC3339), ev.UserID, ev.MangaID, ev.ChapterID, ev.Level)
		}
	}

	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		// not JSON, print raw
		return string(line)
	}
	b, err := json.MarshalIndent(obj, "", "  ")
	if err != nil {
		return string(line)
	}
	return string(b)
}
