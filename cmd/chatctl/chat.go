package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/spf13/cobra"
)

func init() {
	var userID, language string
	chatCmd := &cobra.Command{
		Use:   "chat QUESTION",
		Short: "Ask the bot a question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if userID == "" {
				return fmt.Errorf("--user required")
			}
			return runChat(apiFlag, userID, args[0], language, os.Stdout)
		},
	}
	chatCmd.Flags().StringVarP(&userID, "user", "u", "", "User ID (required)")
	chatCmd.Flags().StringVarP(&language, "language", "l", "", "Answer language (defaults to server config)")
	_ = chatCmd.MarkFlagRequired("user")
	rootCmd.AddCommand(chatCmd)
}

func runChat(apiURL, userID, question, language string, out io.Writer) error {
	if question == "" {
		return fmt.Errorf("question cannot be empty")
	}
	payload := map[string]interface{}{
		"user_id":    userID,
		"query_text": question,
	}
	if language != "" {
		payload["language"] = language
	}
	body, _ := json.Marshal(payload)
	resp, err := http.Post(apiURL+"/api/chat", "application/json", bytes.NewReader(body))
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
