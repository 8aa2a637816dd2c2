package main

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/iho/gobank/internal/adapter/http/dto"
	"github.com/iho/gobank/internal/adapter/http/middleware"
	"github.com/iho/gobank/internal/domain"
	"github.com/iho/gobank/internal/infrastructure/auth"
	"github.com/iho/gobank/internal/infrastructure/idgen"
	"github.com/iho/gobank/internal/infrastructure/postgres"
)

// errInconsistent makes the consistency command exit non-zero.
var errInconsistent = errors.New("ledger is inconsistent")

func newTokenCmd(out io.Writer) *cobra.Command {
	var (
		secret string
		user   domain.User
		role   string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint a development bearer token",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				return errors.New("--secret or JWT_SECRET is required")
			}
			user.Role = domain.Role(role)
			token, err := auth.NewJWTManager(secret, ttl).Generate(&user)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(out, token)
			return err
		},
	}

	cmd.Flags().StringVar(&secret, "secret", os.Getenv("JWT_SECRET"), "HS256 signing secret")
	cmd.Flags().StringVar(&user.ID, "user", "", "User ID (subject)")
	cmd.Flags().StringVar(&user.Email, "email", "", "User email")
	cmd.Flags().StringVar(&user.Name, "name", "", "Display name")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleCustomer), "Role: customer, reviewer, acquirer or operator")
	cmd.Flags().DurationVar(&ttl, "ttl", time.Hour, "Token lifetime")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func newAccountsCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "accounts", Short: "Account operations"}

	var req dto.OpenAccountRequest
	openCmd := &cobra.Command{
		Use:   "open",
		Short: "Open the caller's account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var acc dto.AccountResponse
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/accounts", req, nil, &acc); err != nil {
				return err
			}
			return c.print(acc)
		},
	}
	openCmd.Flags().StringVar(&req.OwnerName, "name", "", "Owner name")
	openCmd.Flags().StringVar(&req.KeyType, "key-type", "", "Payment key type: email, phone, document or random")
	openCmd.Flags().StringVar(&req.PaymentKey, "key", "", "Payment key value")

	meCmd := &cobra.Command{
		Use:   "me",
		Short: "Show the caller's account",
		RunE: func(cmd *cobra.Command, args []string) error {
			var acc dto.AccountResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/accounts/me", nil, nil, &acc); err != nil {
				return err
			}
			return c.print(acc)
		},
	}

	cmd.AddCommand(openCmd, meCmd)
	return cmd
}

func newTransfersCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "transfers", Short: "Transfer operations"}

	var (
		to, amount, description, key string
	)
	sendCmd := &cobra.Command{
		Use:   "send",
		Short: "Send money to a payment key",
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := decimal.NewFromString(amount)
			if err != nil {
				return fmt.Errorf("%w: %s", domain.ErrInvalidAmount, amount)
			}
			minor, err := domain.AmountFromDecimal(d)
			if err != nil {
				return err
			}
			if key == "" {
				key = idgen.NewUUIDKeyGenerator().NewKey()
			}
			req := dto.CreateTransferRequest{ToKey: to, Amount: dto.Amount(minor), Description: description, IdempotencyKey: key}

			var res dto.TransferResponse
			// A 202 still carries the transfer; it settles through reconciliation.
			if err := c.do(cmd.Context(), http.MethodPost, "/api/v1/transfers", req,
				map[string]string{middleware.IdempotencyKeyHeader: key}, &res); err != nil {
				return err
			}
			return c.print(res)
		},
	}
	sendCmd.Flags().StringVar(&to, "to", "", "Recipient payment key")
	sendCmd.Flags().StringVar(&amount, "amount", "", `Amount in major units, e.g. "15.50"`)
	sendCmd.Flags().StringVar(&description, "description", "", "Free-text description")
	sendCmd.Flags().StringVar(&key, "idempotency-key", "", "Idempotency key (random when empty)")
	_ = sendCmd.MarkFlagRequired("to")
	_ = sendCmd.MarkFlagRequired("amount")

	var (
		direction     string
		limit, offset int
	)
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the caller's transfers",
		RunE: func(cmd *cobra.Command, args []string) error {
			q := url.Values{}
			if direction != "" {
				q.Set("direction", direction)
			}
			q.Set("limit", strconv.Itoa(limit))
			q.Set("offset", strconv.Itoa(offset))

			var res map[string]any
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/transfers?"+q.Encode(), nil, nil, &res); err != nil {
				return err
			}
			return c.print(res)
		},
	}
	listCmd.Flags().StringVar(&direction, "direction", "", "sent, received or empty for both")
	listCmd.Flags().IntVar(&limit, "limit", 20, "Page size")
	listCmd.Flags().IntVar(&offset, "offset", 0, "Page offset")

	cmd.AddCommand(sendCmd, listCmd)
	return cmd
}

func newLedgerCmd(c *apiClient) *cobra.Command {
	cmd := &cobra.Command{Use: "ledger", Short: "Ledger operations"}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency (operator)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var res dto.ConsistencyResponse
			if err := c.do(cmd.Context(), http.MethodGet, "/api/v1/ledger/consistency", nil, nil, &res); err != nil {
				return err
			}
			if err := c.print(res); err != nil {
				return err
			}
			if !res.Consistent {
				return errInconsistent
			}
			return nil
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func newMigrateCmd(out io.Writer) *cobra.Command {
	var databaseURL string

	cmd := &cobra.Command{Use: "migrate", Short: "Database schema migrations"}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection URL")

	logger := zerolog.New(zerolog.ConsoleWriter{Out: out, NoColor: true}).With().Timestamp().Logger()

	requireURL := func() error {
		if databaseURL == "" {
			return errors.New("--database-url or DATABASE_URL is required")
		}
		return nil
	}

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireURL(); err != nil {
				return err
			}
			return postgres.RunMigrations(databaseURL, logger)
		},
	}
	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back every migration",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := requireURL(); err != nil {
				return err
			}
			return postgres.RunMigrationsDown(databaseURL, logger)
		},
	}
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List the embedded migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			names, err := postgres.MigrationNames()
			if err != nil {
				return err
			}
			for _, name := range names {
				if _, err := fmt.Fprintln(out, name); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.AddCommand(upCmd, downCmd, listCmd)
	return cmd
}
