package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/adapter/http/middleware"
)

// apiClient talks to the gobank HTTP API.
type apiClient struct {
	baseURL string
	timeout time.Duration
	token   string
	userID  string
	role    string
	out     io.Writer
}

// apiError is a non-2xx answer from the API.
type apiError struct {
	Status int
	Code   string
	Msg    string
}

func (e *apiError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("request failed with status %d", e.Status)
	}
	return fmt.Sprintf("%s (%d): %s", e.Code, e.Status, e.Msg)
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &apiClient{out: out}

	rootCmd := &cobra.Command{
		Use:           "gobank-cli",
		Short:         "GoBank CLI tool",
		Long:          `A command line interface for the GoBank ledger and transfer API.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	rootCmd.SetOut(out)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&c.baseURL, "url", envOr("GOBANK_URL", "http://localhost:8080"), "Base URL of the GoBank API")
	flags.DurationVar(&c.timeout, "timeout", 10*time.Second, "Request timeout")
	flags.StringVar(&c.token, "token", os.Getenv("GOBANK_TOKEN"), "Bearer token (when the server has auth enabled)")
	flags.StringVar(&c.userID, "as-user", "", "User ID sent as X-User-ID when auth is disabled")
	flags.StringVar(&c.role, "as-role", "", "Role sent as X-User-Role when auth is disabled")

	rootCmd.AddCommand(
		newTokenCmd(out),
		newAccountsCmd(c),
		newTransfersCmd(c),
		newLedgerCmd(c),
		newMigrateCmd(out),
	)

	return rootCmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// do sends a request and decodes a 2xx JSON answer into out.
func (c *apiClient) do(ctx context.Context, method, path string, body any, headers map[string]string, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, strings.TrimRight(c.baseURL, "/")+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if c.userID != "" {
		req.Header.Set(middleware.HeaderUserID, c.userID)
	}
	if c.role != "" {
		req.Header.Set(middleware.HeaderUserRole, c.role)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("request %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &apiError{Status: resp.StatusCode}
		var er dto.ErrorResponse
		if json.Unmarshal(raw, &er) == nil {
			apiErr.Code, apiErr.Msg = er.Error, er.Message
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func (c *apiClient) print(v any) error {
	enc := json.NewEncoder(c.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
