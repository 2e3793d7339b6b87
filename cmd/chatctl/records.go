package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"

	"github.com/spf13/cobra"
)

func init() {
	var timestamp float64
	var limit int
	recordsCmd := &cobra.Command{
		Use:   "records USER_ID",
		Short: "Fetch a user's conversation records (newest first)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecords(apiFlag, args[0], timestamp, limit, os.Stdout)
		},
	}
	recordsCmd.Flags().Float64VarP(&timestamp, "timestamp", "t", 0, "Only records older than this unix timestamp")
	recordsCmd.Flags().IntVarP(&limit, "limit", "n", 0, "Max records to return")
	rootCmd.AddCommand(recordsCmd)
}

func runRecords(apiURL, userID string, timestamp float64, limit int, out io.Writer) error {
	q := url.Values{}
	if timestamp > 0 {
		q.Set("timestamp", strconv.FormatFloat(timestamp, 'f', -1, 64))
	}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	target := fmt.Sprintf("%s/api/users/%s/records", apiURL, url.PathEscape(userID))
	if enc := q.Encode(); enc != "" {
		target += "?" + enc
	}
	resp, err := http.Get(target)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("http %d: %s", resp.StatusCode, string(data))
	}
	_, err = io.Copy(out, resp.Body)
	return err
}
