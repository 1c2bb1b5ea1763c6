package main

import (
	"bufio"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"mangazek/pkg/models"
)

func newSyncCmd(baseURL func() string) *cobra.Command {
	cmd := &cobra.Command{Use: "sync", Short: "Follow live favorite and reading events"}

	var addr string
	var pretty bool
	listen := &cobra.Command{
		Use:   "listen",
		Short: "Stream events from the TCP sync server, reconnecting on failure",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			for {
				if err := streamTCP(ctx, addr, pretty, cmd.OutOrStdout()); err != nil {
					cmd.PrintErrf("[sync] disconnected: %v\n", err)
				}
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(time.Second):
				}
			}
		},
	}
	listen.Flags().StringVar(&addr, "addr", "127.0.0.1:7070", "TCP sync server address")
	listen.Flags().BoolVar(&pretty, "pretty", true, "pretty print JSON events")

	var wsURL string
	subscribe := &cobra.Command{
		Use:   "subscribe",
		Short: "Stream events over the API WebSocket",
		RunE: func(cmd *cobra.Command, _ []string) error {
			endpoint := wsURL
			if endpoint == "" {
				var err error
				if endpoint, err = websocketURL(baseURL(), "/ws"); err != nil {
					return err
				}
			}
			return streamWebSocket(cmd.Context(), endpoint, cmd.OutOrStdout())
		},
	}
	subscribe.Flags().StringVar(&wsURL, "ws", "", "WebSocket URL (defaults to /ws on the API host)")

	cmd.AddCommand(listen, subscribe)
	return cmd
}

func streamTCP(ctx context.Context, addr string, pretty bool, w io.Writer) error {
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

	sc := bufio.NewScanner(conn)
	for sc.Scan() {
		printEvent(w, sc.Bytes(), pretty)
	}
	if err := sc.Err(); err != nil {
		return err
	}
	return io.EOF
}

func printEvent(w io.Writer, line []byte, pretty bool) {
	if !pretty {
		fmt.Fprintln(w, string(line))
		return
	}
	var obj map[string]any
	if err := json.Unmarshal(line, &obj); err != nil {
		// not JSON, print raw
		fmt.Fprintln(w, string(line))
		return
	}
	b, _ := json.MarshalIndent(obj, "", "  ")
	fmt.Fprintln(w, string(b))
}

func streamWebSocket(ctx context.Context, wsURL string, w io.Writer) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return err
	}
	defer conn.Close()

	go func() {
		<-ctx.Done()
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		fmt.Fprint(w, string(msg))
	}
}

func newExportCmd(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "export", Short: "Export the catalog through the API"}

	var out string
	var limit int
	jsonCmd := &cobra.Command{
		Use:   "json",
		Short: "Write catalog entries as JSON",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := fetchManga(cmd.Context(), client(), limit)
			if err != nil {
				return err
			}
			if err := writeJSON(out, items); err != nil {
				return err
			}
			cmd.Printf("exported %d titles to %s\n", len(items), out)
			return nil
		},
	}
	jsonCmd.Flags().StringVar(&out, "out", "data/manga.json", "output JSON path")
	jsonCmd.Flags().IntVar(&limit, "limit", 200, "max titles to export")

	csvCmd := &cobra.Command{
		Use:   "csv",
		Short: "Write catalog entries as CSV",
		RunE: func(cmd *cobra.Command, _ []string) error {
			items, err := fetchManga(cmd.Context(), client(), limit)
			if err != nil {
				return err
			}
			if err := writeCSV(out, items); err != nil {
				return err
			}
			cmd.Printf("exported %d titles to %s\n", len(items), out)
			return nil
		},
	}
	csvCmd.Flags().StringVar(&out, "out", "data/manga.csv", "output CSV path")
	csvCmd.Flags().IntVar(&limit, "limit", 200, "max titles to export")

	cmd.AddCommand(jsonCmd, csvCmd)
	return cmd
}

// fetchManga walks /manga page by page until limit titles are collected.
func fetchManga(ctx context.Context, c *apiClient, limit int) ([]models.Manga, error) {
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}

	var out []models.Manga
	for page := 1; len(out) < limit; page++ {
		var resp struct {
			Items      []models.Manga `json:"items"`
			TotalPages int            `json:"total_pages"`
		}
		q := url.Values{"page": {strconv.Itoa(page)}}
		if err := c.do(ctx, http.MethodGet, "/manga", q, "", nil, &resp); err != nil {
			return nil, err
		}
		if len(resp.Items) == 0 {
			break
		}
		out = append(out, resp.Items...)
		if page >= resp.TotalPages {
			break
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func writeJSON(path string, items []models.Manga) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}

func writeCSV(path string, items []models.Manga) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if err := writer.Write([]string{"id", "title", "authors", "genres", "status", "cover_url", "created_at"}); err != nil {
		return err
	}
	for _, item := range items {
		if err := writer.Write([]string{
			item.ID,
			item.Title,
			item.Authors,
			item.Genres,
			item.Status,
			item.CoverURL,
			item.CreatedAt,
		}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
