package main

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"stockroom/internal/app"
	"stockroom/internal/config"
	"stockroom/internal/domain/backup"
	"stockroom/internal/domain/reports"
	"stockroom/internal/infrastructure/http/v1/dto"
	"stockroom/pkg/logger"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			log, err := logger.New(logger.Config{Level: cfg.LogLevel, Development: true})
			if err != nil {
				return fmt.Errorf("create logger: %w", err)
			}
			ctx := logger.WithLogger(cmd.Context(), log)

			a, err := app.New(ctx, cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			applied, err := a.Migrate(ctx)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "schema is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return nil
		},
	}
}

func newSeedCmd() *cobra.Command {
	var username, password string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create the admin account when no user exists",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				if password == "" {
					password = a.Config.AdminPassword
				}
				if password == "" {
					return fmt.Errorf("--password or ADMIN_PASSWORD is required")
				}
				created, err := a.Auth.EnsureAdmin(ctx, username, password)
				if err != nil {
					return err
				}
				if created {
					fmt.Fprintf(cmd.OutOrStdout(), "admin %q created\n", username)
				} else {
					fmt.Fprintln(cmd.OutOrStdout(), "users already exist, nothing to do")
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&username, "username", "admin", "Admin login name")
	cmd.Flags().StringVar(&password, "password", "", "Admin password (default ADMIN_PASSWORD)")
	return cmd
}

func newBackupCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Export or restore a full backup",
	}

	var out string
	var compress bool
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return writeOutput(out, cmd.OutOrStdout(), func(w io.Writer) error {
					return a.Backup.Export(ctx, w, backup.Options{Compress: compress})
				})
			})
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "", "Output file (default stdout)")
	exportCmd.Flags().BoolVar(&compress, "compress", false, "Compress with zstd")

	var in string
	var yes bool
	importCmd := &cobra.Command{
		Use:   "import",
		Short: "Replace all data with a backup file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && !confirm(cmd, "This replaces ALL data. Continue?") {
				return fmt.Errorf("aborted")
			}
			f, err := os.Open(in)
			if err != nil {
				return err
			}
			defer f.Close()
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				summary, err := a.Backup.Import(ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(),
					"restored backup v%d: %d products, %d sales, %d purchases, %d movements, %d requests, %d users\n",
					summary.Version, summary.Products, summary.Sales, summary.Purchases,
					summary.Movements, summary.PurchaseRequests, summary.Users)
				return nil
			})
		},
	}
	importCmd.Flags().StringVarP(&in, "in", "i", "", "Backup file")
	importCmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	_ = importCmd.MarkFlagRequired("in")

	cmd.AddCommand(exportCmd, importCmd)
	return cmd
}

func newProductsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "products",
		Short: "Import or export the product catalog as xlsx",
	}

	importCmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Merge products from a spreadsheet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				res, err := a.Importer.ImportProducts(ctx, f)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added %d, updated %d\n", res.AddedCount, res.UpdatedCount)
				return nil
			})
		},
	}

	var out string
	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Write the catalog to a spreadsheet",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				return writeOutput(out, cmd.OutOrStdout(), func(w io.Writer) error {
					return a.Importer.ExportProducts(ctx, w)
				})
			})
		},
	}
	exportCmd.Flags().StringVarP(&out, "out", "o", "products.xlsx", "Output file")

	cmd.AddCommand(importCmd, exportCmd)
	return cmd
}

func newReportsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reports",
		Short: "List and run saved custom reports",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List saved reports",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				saved, err := a.Reports.ListReports(ctx)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tTITLE\tSOURCE\tPLACEMENT")
				for _, r := range saved {
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Title, r.DataSource, r.Placement)
				}
				return tw.Flush()
			})
		},
	}

	var req dto.RunReportRequest
	var html string
	var locale string
	runCmd := &cobra.Command{
		Use:   "run REPORT_ID",
		Short: "Evaluate a saved report and print it as a table",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withApp(cmd, func(ctx context.Context, a *app.App) error {
				filters, err := req.ToFilters(a.Reports.Location())
				if err != nil {
					return err
				}
				if html != "" {
					return writeOutput(html, cmd.OutOrStdout(), func(w io.Writer) error {
						return a.Reports.Print(ctx, args[0], filters, a.Bundle.Normalize(locale), w)
					})
				}

				_, res, err := a.Reports.Run(ctx, args[0], filters)
				if err != nil {
					return err
				}
				return printTable(cmd.OutOrStdout(), res, a.Bundle.T(a.Bundle.Normalize(locale), "report.total"), a.Reports.Location())
			})
		},
	}
	runCmd.Flags().StringVar(&req.Search, "search", "", "Free-text filter")
	runCmd.Flags().StringVar(&req.From, "from", "", "Start date (YYYY-MM-DD or RFC 3339)")
	runCmd.Flags().StringVar(&req.To, "to", "", "End date, inclusive")
	runCmd.Flags().StringVar(&html, "html", "", "Write the printable HTML page to this file instead")
	runCmd.Flags().StringVar(&locale, "locale", "", "Label language (en, ar)")

	cmd.AddCommand(listCmd, runCmd)
	return cmd
}

func printTable(w io.Writer, res *reports.Result, totalLabel string, loc *time.Location) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	headers := make([]string, len(res.Columns))
	for i, c := range res.Columns {
		headers[i] = c.Label
	}
	fmt.Fprintln(tw, strings.Join(headers, "\t"))
	for _, row := range reports.TableRows(res, loc) {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	if row, ok := reports.SummaryRow(res, totalLabel, loc); ok {
		fmt.Fprintln(tw, strings.Join(row, "\t"))
	}
	return tw.Flush()
}

// writeOutput runs fn against path, or stdout when path is empty. A file is
// only created once fn succeeded.
func writeOutput(path string, stdout io.Writer, fn func(w io.Writer) error) error {
	if path == "" {
		return fn(stdout)
	}
	var buf bytes.Buffer
	if err := fn(&buf); err != nil {
		return err
	}
	return os.WriteFile(path, buf.Bytes(), 0o600)
}

func confirm(cmd *cobra.Command, question string) bool {
	fmt.Fprintf(cmd.OutOrStdout(), "%s [y/N] ", question)
	answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
