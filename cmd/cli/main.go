// Command cli is a terminal client for the mangazek API.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	var (
		baseURL   string
		tokenPath string
	)
	client := func() *apiClient { return newAPIClient(baseURL, tokenPath) }

	root := &cobra.Command{
		Use:          "mangazek",
		Short:        "Browse and read the mangazek catalog from a terminal",
		SilenceUsage: true,
	}
	root.SetOut(out)

	defaultAPI := defaultBaseURL
	if v := os.Getenv("MANGAZEK_API"); v != "" {
		defaultAPI = v
	}
	root.PersistentFlags().StringVar(&baseURL, "api", defaultAPI, "API base URL")
	root.PersistentFlags().StringVar(&tokenPath, "token", defaultTokenPath(), "token file path")

	root.AddCommand(
		newAuthCmd(client),
		newMangaCmd(client),
		newFavoritesCmd(client),
		newProfileCmd(client),
		newSyncCmd(func() string { return baseURL }),
		newExportCmd(client),
	)
	return root
}

func newAuthCmd(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "auth", Short: "Register, login and logout"}

	var username, email, password string
	login := &cobra.Command{
		Use:   "login",
		Short: "Log in and store the token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return authenticate(cmd, client(), "/auth/login", map[string]string{"email": email, "password": password})
		},
	}
	login.Flags().StringVar(&email, "email", "", "email address")
	login.Flags().StringVar(&password, "password", "", "password")
	_ = login.MarkFlagRequired("email")
	_ = login.MarkFlagRequired("password")

	register := &cobra.Command{
		Use:   "register",
		Short: "Create an account and store the token",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return authenticate(cmd, client(), "/auth/register", map[string]string{
				"username": username,
				"email":    email,
				"password": password,
			})
		},
	}
	register.Flags().StringVar(&username, "username", "", "username (defaults to the email)")
	register.Flags().StringVar(&email, "email", "", "email address")
	register.Flags().StringVar(&password, "password", "", "password")
	_ = register.MarkFlagRequired("email")
	_ = register.MarkFlagRequired("password")

	logout := &cobra.Command{
		Use:   "logout",
		Short: "Revoke the token and forget it",
		RunE: func(cmd *cobra.Command, _ []string) error {
			c := client()
			if err := c.authed(cmd.Context(), http.MethodPost, "/auth/logout", nil, nil, nil); err != nil {
				cmd.PrintErrf("server logout failed: %v\n", err)
			}
			if err := clearToken(c.tokenPath); err != nil {
				return err
			}
			cmd.Println("logged out")
			return nil
		},
	}

	cmd.AddCommand(login, register, logout)
	return cmd
}

func authenticate(cmd *cobra.Command, c *apiClient, path string, payload map[string]string) error {
	var resp struct {
		Token string `json:"token"`
	}
	if err := c.do(cmd.Context(), http.MethodPost, path, nil, "", payload, &resp); err != nil {
		return err
	}
	if err := saveToken(c.tokenPath, resp.Token); err != nil {
		return fmt.Errorf("save token: %w", err)
	}
	cmd.Println("logged in")
	return nil
}

func newMangaCmd(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "manga", Short: "Browse the catalog"}

	var query string
	var page int
	search := &cobra.Command{
		Use:   "search",
		Short: "Search titles",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := url.Values{"page": {strconv.Itoa(page)}}
			if query != "" {
				q.Set("search", query)
			}
			var resp map[string]any
			if err := client().do(cmd.Context(), http.MethodGet, "/manga", q, "", nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	search.Flags().StringVarP(&query, "query", "q", "", "title substring")
	search.Flags().IntVar(&page, "page", 1, "page number")

	filter := &cobra.Command{
		Use:   "filter <genre|author> <value>",
		Short: "List manga by genre or author",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			path := "/filter/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1])
			if err := client().do(cmd.Context(), http.MethodGet, path, url.Values{"page": {strconv.Itoa(page)}}, "", nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	filter.Flags().IntVar(&page, "page", 1, "page number")

	show := &cobra.Command{
		Use:   "show <manga-id>",
		Short: "Show a manga and its chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			var resp map[string]any
			if err := c.do(cmd.Context(), http.MethodGet, "/manga/"+url.PathEscape(args[0]), nil, c.optionalToken(), nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}

	read := &cobra.Command{
		Use:   "read <manga-id> <chapter-id>",
		Short: "Print the page images of a chapter",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c := client()
			var resp struct {
				Reader struct {
					Label  string   `json:"label"`
					Images []string `json:"images"`
					Prev   string   `json:"prev_chapter"`
					Next   string   `json:"next_chapter"`
				} `json:"reader"`
			}
			path := "/read/" + url.PathEscape(args[0]) + "/" + url.PathEscape(args[1])
			if err := c.do(cmd.Context(), http.MethodGet, path, nil, c.optionalToken(), nil, &resp); err != nil {
				return err
			}
			w := cmd.OutOrStdout()
			fmt.Fprintln(w, resp.Reader.Label)
			for _, img := range resp.Reader.Images {
				fmt.Fprintln(w, img)
			}
			if resp.Reader.Prev != "" {
				fmt.Fprintf(w, "prev: %s\n", resp.Reader.Prev)
			}
			if resp.Reader.Next != "" {
				fmt.Fprintf(w, "next: %s\n", resp.Reader.Next)
			}
			return nil
		},
	}

	cmd.AddCommand(search, filter, show, read)
	return cmd
}

func newFavoritesCmd(client func() *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "favorites", Short: "Manage favorites"}

	list := &cobra.Command{
		Use:   "list",
		Short: "List favorites",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp map[string]any
			if err := client().authed(cmd.Context(), http.MethodGet, "/users/favorites", nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	add := &cobra.Command{
		Use:   "add <manga-id>",
		Short: "Favorite a manga",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return favoriteCall(cmd, client(), http.MethodPost, args[0])
		},
	}
	remove := &cobra.Command{
		Use:   "remove <manga-id>",
		Short: "Unfavorite a manga",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return favoriteCall(cmd, client(), http.MethodDelete, args[0])
		},
	}

	cmd.AddCommand(list, add, remove)
	return cmd
}

func favoriteCall(cmd *cobra.Command, c *apiClient, method, mangaID string) error {
	var resp map[string]any
	if err := c.authed(cmd.Context(), method, "/users/favorites/"+url.PathEscape(mangaID), nil, nil, &resp); err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), resp)
}

func newProfileCmd(client func() *apiClient) *cobra.Command {
	var limit int
	history := &cobra.Command{
		Use:   "history",
		Short: "Show reading history",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp map[string]any
			q := url.Values{"limit": {strconv.Itoa(limit)}}
			if err := client().authed(cmd.Context(), http.MethodGet, "/users/history", q, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	history.Flags().IntVar(&limit, "limit", 20, "entries to show")

	profile := &cobra.Command{
		Use:   "profile",
		Short: "Show recent reads, favorites and level",
		RunE: func(cmd *cobra.Command, _ []string) error {
			var resp map[string]any
			if err := client().authed(cmd.Context(), http.MethodGet, "/users/profile", nil, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	profile.AddCommand(history)
	return profile
}

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(b))
	return err
}
