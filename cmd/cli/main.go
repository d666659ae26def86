package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"text/tabwriter"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/spf13/cobra"

	"github.com/iho/fxreval/internal/adapter/http/dto"
	"github.com/iho/fxreval/internal/adapter/http/middleware"
	"github.com/iho/fxreval/internal/domain"
	"github.com/iho/fxreval/internal/infrastructure/auth"
	"github.com/iho/fxreval/internal/infrastructure/config"
	"github.com/iho/fxreval/internal/infrastructure/postgres"
)

var (
	baseURL string
	timeout time.Duration
	token   string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "fxreval-cli",
		Short:         "FX revaluation CLI tool",
		Long:          `A command line interface for running currency revaluations against the fxreval API.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the fxreval API")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&token, "token", os.Getenv("FXREVAL_TOKEN"), "Bearer token for the API")

	rootCmd.AddCommand(revaluationCmd())
	rootCmd.AddCommand(reportCmd())
	rootCmd.AddCommand(ratesCmd())
	rootCmd.AddCommand(ledgerCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(tokenCmd())

	return rootCmd
}

func client() *apiClient {
	return newAPIClient(baseURL, token, timeout)
}

func revaluationCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "revaluation",
		Short: "Run and reverse currency revaluations",
	}

	var (
		companyID      string
		date           string
		journalID      string
		label          string
		idempotencyKey string
	)

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "Revalue the flagged accounts of a company",
		RunE: func(cmd *cobra.Command, args []string) error {
			if idempotencyKey == "" {
				idempotencyKey = ulid.Make().String()
			}

			var result dto.RunResultResponse
			err := client().do(cmd.Context(), http.MethodPost,
				"/api/v1/companies/"+url.PathEscape(companyID)+"/revaluations",
				dto.RunRevaluationRequest{Date: date, JournalID: journalID, Label: label},
				&result,
				map[string]string{middleware.IdempotencyKeyHeader: idempotencyKey},
			)
			if err != nil {
				return err
			}

			printRunResult(&result)
			return nil
		},
	}
	runCmd.Flags().StringVar(&companyID, "company", "", "Company ID")
	runCmd.Flags().StringVar(&date, "date", time.Now().Format(dto.DateLayout), "Revaluation date (YYYY-MM-DD)")
	runCmd.Flags().StringVar(&journalID, "journal", "", "Journal ID (defaults to the company revaluation journal)")
	runCmd.Flags().StringVar(&label, "label", "", "Line label template")
	runCmd.Flags().StringVar(&idempotencyKey, "idempotency-key", "", "Idempotency key (generated when empty)")
	_ = runCmd.MarkFlagRequired("company")

	var reverseDate string
	reverseCmd := &cobra.Command{
		Use:   "reverse MOVE_ID",
		Short: "Reverse a revaluation entry",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var move dto.MoveResponse
			err := client().do(cmd.Context(), http.MethodPost,
				"/api/v1/moves/"+url.PathEscape(args[0])+"/reverse",
				dto.ReverseMoveRequest{Date: reverseDate},
				&move,
				map[string]string{middleware.IdempotencyKeyHeader: "reverse-" + args[0]},
			)
			if err != nil {
				return err
			}

			fmt.Printf("Reversal %s posted on %s (%d lines)\n", move.ID, move.Date, len(move.Lines))
			return nil
		},
	}
	reverseCmd.Flags().StringVar(&reverseDate, "date", "", "Reversal date (defaults to the company policy)")

	cmd.AddCommand(runCmd, reverseCmd)
	return cmd
}

func reportCmd() *cobra.Command {
	var (
		companyID string
		date      string
		asJSON    bool
	)

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show unrealized exchange gains and losses",
		RunE: func(cmd *cobra.Command, args []string) error {
			query := url.Values{}
			if date != "" {
				query.Set("date", date)
			}

			path := "/api/v1/companies/" + url.PathEscape(companyID) + "/reports/unrealized"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			var report dto.UnrealizedReportResponse
			if err := client().do(cmd.Context(), http.MethodGet, path, nil, &report, nil); err != nil {
				return err
			}

			if asJSON {
				printJSON(report)
				return nil
			}
			printReport(&report)
			return nil
		},
	}
	cmd.Flags().StringVar(&companyID, "company", "", "Company ID")
	cmd.Flags().StringVar(&date, "date", "", "Report date (YYYY-MM-DD, defaults to today)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print raw JSON")
	_ = cmd.MarkFlagRequired("company")

	return cmd
}

func ratesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Maintain exchange rates",
	}

	var companyID string
	cmd.PersistentFlags().StringVar(&companyID, "company", "", "Company ID (empty for shared rates)")

	var (
		date string
		rate string
	)
	setCmd := &cobra.Command{
		Use:   "set CURRENCY",
		Short: "Record the rate of a currency (foreign units per home unit)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp dto.RateResponse
			err := client().do(cmd.Context(), http.MethodPost, "/api/v1/rates/",
				dto.SetRateRequest{CompanyID: companyID, Currency: args[0], Date: date, Rate: rate},
				&resp, nil)
			if err != nil {
				return err
			}

			printJSON(resp)
			return nil
		},
	}
	setCmd.Flags().StringVar(&date, "date", time.Now().Format(dto.DateLayout), "Rate date (YYYY-MM-DD)")
	setCmd.Flags().StringVar(&rate, "rate", "", "Rate value")
	_ = setCmd.MarkFlagRequired("rate")

	listCmd := &cobra.Command{
		Use:   "list CURRENCY",
		Short: "List the recorded rates of a currency",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/api/v1/rates/" + url.PathEscape(args[0])
			if companyID != "" {
				path += "?" + url.Values{"company_id": {companyID}}.Encode()
			}

			var resp dto.ListRatesResponse
			if err := client().do(cmd.Context(), http.MethodGet, path, nil, &resp, nil); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "DATE\tRATE\tCOMPANY")
			for _, r := range resp.Rates {
				fmt.Fprintf(w, "%s\t%s\t%s\n", r.Date, r.Rate.String(), r.CompanyID)
			}
			return w.Flush()
		},
	}

	cmd.AddCommand(setCmd, listCmd)
	return cmd
}

func ledgerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Ledger operations",
	}

	consistencyCmd := &cobra.Command{
		Use:   "consistency",
		Short: "Check ledger consistency",
		RunE: func(cmd *cobra.Command, args []string) error {
			return checkConsistency(cmd.Context())
		},
	}

	cmd.AddCommand(consistencyCmd)
	return cmd
}

func checkConsistency(ctx context.Context) error {
	var result dto.ConsistencyResponse
	err := client().do(ctx, http.MethodGet, "/api/v1/ledger/consistency", nil, &result, nil)
	var apiErr *apiError
	if errors.As(err, &apiErr) && apiErr.Status == http.StatusConflict {
		// The body still carries the totals.
		if jsonErr := json.Unmarshal([]byte(apiErr.RawBody), &result); jsonErr != nil {
			return err
		}
		printConsistency(&result)
		return errors.New("consistency check FAILED")
	}
	if err != nil {
		return err
	}

	fmt.Printf("Consistency check PASSED\n")
	printConsistency(&result)
	return nil
}

func migrateCmd() *cobra.Command {
	var (
		databaseURL    string
		migrationsPath string
	)

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply or roll back database migrations",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if databaseURL == "" {
				databaseURL = cfg.DatabaseURL
			}
			if migrationsPath == "" {
				migrationsPath = cfg.MigrationsPath
			}
			return nil
		},
	}
	cmd.PersistentFlags().StringVar(&databaseURL, "database-url", "", "Database URL (defaults to DATABASE_URL)")
	cmd.PersistentFlags().StringVar(&migrationsPath, "path", "", "Migrations directory (defaults to MIGRATIONS_PATH)")

	upCmd := &cobra.Command{
		Use:   "up",
		Short: "Apply all pending migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postgres.RunMigrations(databaseURL, migrationsPath); err != nil {
				return err
			}
			fmt.Println("migrations applied")
			return nil
		},
	}

	downCmd := &cobra.Command{
		Use:   "down",
		Short: "Roll back all migrations",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := postgres.RunMigrationsDown(databaseURL, migrationsPath); err != nil {
				return err
			}
			fmt.Println("migrations rolled back")
			return nil
		},
	}

	cmd.AddCommand(upCmd, downCmd)
	return cmd
}

func tokenCmd() *cobra.Command {
	var (
		userID string
		role   string
		secret string
		ttl    time.Duration
	)

	cmd := &cobra.Command{
		Use:   "token",
		Short: "Mint an API token signed with the server secret",
		RunE: func(cmd *cobra.Command, args []string) error {
			if secret == "" {
				cfg, err := config.Load()
				if err != nil {
					return err
				}
				secret = cfg.JWTSecret
				if ttl == 0 {
					ttl = cfg.JWTExpiration
				}
			}
			if secret == "" {
				return fmt.Errorf("no secret: pass --secret or set JWT_SECRET")
			}
			if ttl == 0 {
				ttl = 24 * time.Hour
			}

			signed, err := auth.NewJWTManager(secret, ttl).Generate(&domain.User{ID: userID, Role: domain.Role(role)})
			if err != nil {
				return err
			}

			fmt.Println(signed)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User ID")
	cmd.Flags().StringVar(&role, "role", string(domain.RoleAccountant), "Role (admin, accountant, viewer)")
	cmd.Flags().StringVar(&secret, "secret", "", "Signing secret (defaults to JWT_SECRET)")
	cmd.Flags().DurationVar(&ttl, "ttl", 0, "Token lifetime (defaults to JWT_EXPIRATION)")
	_ = cmd.MarkFlagRequired("user")

	return cmd
}

func printRunResult(r *dto.RunResultResponse) {
	fmt.Printf("%s on %s\n", r.Name, r.Date)
	fmt.Printf("Entries: %d  Lines: %d  Skipped: %d\n", len(r.MoveIDs), r.LineCount, r.Skipped)
	fmt.Printf("Gain: %s  Loss: %s\n", r.Gain.StringFixed(2), r.Loss.StringFixed(2))
	for _, id := range r.MoveIDs {
		fmt.Printf("  %s\n", id)
	}
}

func printReport(r *dto.UnrealizedReportResponse) {
	fmt.Printf("Unrealized gains and losses of %s as of %s (%s)\n\n", r.CompanyID, r.Date, r.HomeCurrency)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(w, "ACCOUNT\tCUR\tPARTNER\tFOREIGN\tBOOKED\tRATE\tREVALUED\tUNREALIZED\t")
	for _, l := range r.Lines {
		rate := l.Rate.String()
		switch {
		case l.MissingRate:
			rate = "missing"
		case l.RevaluedLater:
			rate = "revalued later"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			truncate(l.AccountCode+" "+l.AccountName, 28),
			l.Currency,
			truncate(l.PartnerID, 12),
			l.ForeignBalance.StringFixed(2),
			l.BookedBalance.StringFixed(2),
			rate,
			l.RevaluedBalance.StringFixed(2),
			l.Unrealized.StringFixed(2),
		)
	}
	_ = w.Flush()

	fmt.Printf("\nGain: %s  Loss: %s  Net: %s\n", r.TotalGain.StringFixed(2), r.TotalLoss.StringFixed(2), r.Net.StringFixed(2))
}

func printConsistency(r *dto.ConsistencyResponse) {
	fmt.Printf("Consistent: %v\n", r.Consistent)
	fmt.Printf("Debit: %s  Credit: %s\n", r.Debit.StringFixed(2), r.Credit.StringFixed(2))
	fmt.Printf("Revaluation debit: %s  Revaluation credit: %s\n", r.RevaluationDebit.StringFixed(2), r.RevaluationCredit.StringFixed(2))
}

func printJSON(v any) {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Printf("Failed to encode output: %v\n", err)
		return
	}
	fmt.Println(string(out))
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
