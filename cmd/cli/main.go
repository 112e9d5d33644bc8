package main

import (
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/yourusername/yt-backup-go/internal/domain"
	"github.com/yourusername/yt-backup-go/pkg/logger"
)

var (
	serverURL   string
	configPath  string
	noAutoStart bool
	rootCmd     = &cobra.Command{
		Use:   "yt-backup",
		Short: "yt-backup CLI - archive YouTube videos and channels",
		Long: `A command-line interface for archiving YouTube videos and whole channels.

"video" and "channel" run an archive directly. The other commands manage
requests queued on the yt-backup server.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "http://localhost:8080", "Server URL")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file")
	rootCmd.PersistentFlags().BoolVar(&noAutoStart, "no-auto-start", false, "Don't auto-start server if not running")

	rootCmd.AddCommand(videoCmd)
	rootCmd.AddCommand(channelCmd)
	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(getCmd)
	rootCmd.AddCommand(cancelCmd)
	rootCmd.AddCommand(retryCmd)
	rootCmd.AddCommand(deleteCmd)
	rootCmd.AddCommand(logsCmd)

	addCmd.Flags().StringP("kind", "k", "", "Request kind (video, channel); detected from the URL when empty")
	addCmd.Flags().String("api-key", "", "YouTube Data API key for channel requests")
	listCmd.Flags().StringP("status", "s", "", "Filter by status")
	listCmd.Flags().StringP("kind", "k", "", "Filter by kind")
	logsCmd.Flags().StringP("date", "d", "", "Log date (YYYY-MM-DD), default today")
	logsCmd.Flags().StringP("query", "q", "", "Only entries containing this text")
	logsCmd.Flags().IntP("limit", "n", 50, "Maximum number of entries")
}

// client returns an API client, starting the server first unless
// --no-auto-start is set.
func client() *apiClient {
	if !noAutoStart {
		if err := ensureServerRunning(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}
	return newAPIClient(serverURL)
}

var addCmd = &cobra.Command{
	Use:   "add [url]",
	Short: "Queue a video or channel on the server",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		apiKey, _ := cmd.Flags().GetString("api-key")

		payload := map[string]string{"url": args[0]}
		if kind != "" {
			payload["kind"] = kind
		}
		if apiKey != "" {
			payload["api_key"] = apiKey
		}

		var request domain.Request
		if err := client().do(http.MethodPost, "/api/v1/requests", payload, &request); err != nil {
			return err
		}

		fmt.Printf("Request added successfully!\n")
		fmt.Printf("ID:     %s\n", request.ID)
		fmt.Printf("Kind:   %s\n", request.Kind)
		fmt.Printf("Status: %s\n", request.Status)
		return nil
	},
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List archive requests",
	RunE: func(cmd *cobra.Command, args []string) error {
		query := url.Values{}
		if status, _ := cmd.Flags().GetString("status"); status != "" {
			query.Set("status", status)
		}
		if kind, _ := cmd.Flags().GetString("kind"); kind != "" {
			query.Set("kind", kind)
		}

		path := "/api/v1/requests"
		if len(query) > 0 {
			path += "?" + query.Encode()
		}

		var result struct {
			Requests []domain.Request `json:"requests"`
		}
		if err := client().do(http.MethodGet, path, nil, &result); err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tKIND\tSTATUS\tPROGRESS\tURL\tCREATED")
		for _, r := range result.Requests {
			fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
				truncate(r.ID, 8),
				r.Kind,
				r.Status,
				r.Current, r.Total,
				truncate(r.URL, 48),
				r.CreatedAt.Format("2006-01-02 15:04"))
		}
		return w.Flush()
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show request statistics",
	RunE: func(cmd *cobra.Command, args []string) error {
		var stats domain.RequestStats
		if err := client().do(http.MethodGet, "/api/v1/requests/stats", nil, &stats); err != nil {
			return err
		}

		fmt.Println("Request Statistics:")
		fmt.Printf("  Total:     %d\n", stats.Total)
		fmt.Printf("  Queued:    %d\n", stats.Queued)
		fmt.Printf("  Running:   %d\n", stats.Running)
		fmt.Printf("  Completed: %d\n", stats.Completed)
		fmt.Printf("  Failed:    %d\n", stats.Failed)
		fmt.Printf("  Cancelled: %d\n", stats.Cancelled)
		return nil
	},
}

var getCmd = &cobra.Command{
	Use:   "get [id]",
	Short: "Show request details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		var r domain.Request
		if err := client().do(http.MethodGet, "/api/v1/requests/"+args[0], nil, &r); err != nil {
			return err
		}

		fmt.Printf("Request Details:\n")
		fmt.Printf("  ID:       %s\n", r.ID)
		fmt.Printf("  URL:      %s\n", r.URL)
		fmt.Printf("  Kind:     %s\n", r.Kind)
		fmt.Printf("  Status:   %s\n", r.Status)
		fmt.Printf("  Progress: %d/%d\n", r.Current, r.Total)
		if r.ChannelName != "" {
			fmt.Printf("  Channel:  %s\n", r.ChannelName)
		}
		if r.Kind == domain.KindChannel {
			fmt.Printf("  Archived: %d\n", r.Archived)
			fmt.Printf("  Failed:   %d\n", r.Failed)
		}
		if r.OutputDir != "" {
			fmt.Printf("  Output:   %s\n", r.OutputDir)
		}
		if r.ErrorMessage != "" {
			fmt.Printf("  Error:    %s\n", r.ErrorMessage)
		}
		fmt.Printf("  Created:  %s\n", r.CreatedAt.Format("2006-01-02 15:04:05"))
		return nil
	},
}

var cancelCmd = &cobra.Command{
	Use:   "cancel [id]",
	Short: "Cancel a queued or running request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client().do(http.MethodPost, "/api/v1/requests/"+args[0]+"/cancel", nil, nil); err != nil {
			return err
		}
		fmt.Println("Request cancelled successfully")
		return nil
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry [id]",
	Short: "Retry a failed or cancelled request",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client().do(http.MethodPost, "/api/v1/requests/"+args[0]+"/retry", nil, nil); err != nil {
			return err
		}
		fmt.Println("Request queued for retry")
		return nil
	},
}

var deleteCmd = &cobra.Command{
	Use:   "delete [id]",
	Short: "Delete a request that is not running",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := client().do(http.MethodDelete, "/api/v1/requests/"+args[0], nil, nil); err != nil {
			return err
		}
		fmt.Println("Request deleted")
		return nil
	},
}

var logsCmd = &cobra.Command{
	Use:       "logs [category]",
	Short:     "Show structured server logs (requests, archive, error)",
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{string(logger.CategoryRequests), string(logger.CategoryArchive), string(logger.CategoryError)},
	RunE: func(cmd *cobra.Command, args []string) error {
		date, _ := cmd.Flags().GetString("date")
		search, _ := cmd.Flags().GetString("query")
		limit, _ := cmd.Flags().GetInt("limit")

		query := url.Values{}
		query.Set("limit", fmt.Sprint(limit))
		if date != "" {
			query.Set("date", date)
		}

		path := "/api/v1/logs/" + url.PathEscape(args[0])
		if search != "" {
			path += "/search"
			query.Set("q", search)
		}

		var result struct {
			Entries []logger.LogEntry `json:"entries"`
		}
		if err := client().do(http.MethodGet, path+"?"+query.Encode(), nil, &result); err != nil {
			return err
		}

		for _, e := range result.Entries {
			fmt.Printf("%s  %-5s  %s", e.Timestamp, e.Level, e.Message)
			for k, v := range e.Fields {
				fmt.Printf("  %s=%v", k, v)
			}
			fmt.Println()
		}
		return nil
	},
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
