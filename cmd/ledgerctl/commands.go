package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"profitpath-api/internal/ledger"
	"profitpath-api/internal/service"

	"github.com/google/subcommands"
	"github.com/google/uuid"
)

type recomputeCmd struct {
	fy      string
	product string
}

func (*recomputeCmd) Name() string     { return "recompute" }
func (*recomputeCmd) Synopsis() string { return "rebuild stored running balances of a financial year" }
func (*recomputeCmd) Usage() string {
	return `recompute -fy <2024-25> [-product <uuid>]

  Replays the year for one product, or every product with activity up to the
  year, and rewrites the running balances that changed. Later years are
  rebuilt until one with a pinned opening.
`
}

func (c *recomputeCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fy, "fy", "", "financial year, e.g. 2024-25 (required)")
	f.StringVar(&c.product, "product", "", "product id; all products when empty")
}

func (c *recomputeCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fy, err := ledger.ParseFinancialYear(c.fy)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}
	productID := uuid.Nil
	if c.product != "" {
		if productID, err = uuid.Parse(c.product); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing product id %q: %v\n", c.product, err)
			return subcommands.ExitUsageError
		}
	}

	e, err := openEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	var report *service.RecomputeReport
	if productID != uuid.Nil {
		report, err = e.stock.Recompute(ctx, productID, fy, service.SystemActor)
	} else {
		report, err = e.stock.RecomputeYear(ctx, fy, service.SystemActor)
	}
	if report != nil {
		fmt.Printf("%s: %d products, %d rows updated\n", report.FinancialYear, report.Products, report.RowsUpdated)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type closeYearCmd struct {
	fy string
}

func (*closeYearCmd) Name() string     { return "close-year" }
func (*closeYearCmd) Synopsis() string { return "freeze a financial year and carry closings forward" }
func (*closeYearCmd) Usage() string {
	return `close-year -fy <2023-24>

  Writes every product's closing as the next year's closed opening. The
  current financial year cannot be closed.
`
}

func (c *closeYearCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.fy, "fy", "", "financial year to close, e.g. 2023-24 (required)")
}

func (c *closeYearCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	fy, err := ledger.ParseFinancialYear(c.fy)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitUsageError
	}

	e, err := openEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	report, err := e.stock.CloseFinancialYear(ctx, fy, service.SystemActor)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	fmt.Printf("%s closed: %d products, %d already closed\n", report.FinancialYear, report.Closed, report.AlreadyClosed)
	return subcommands.ExitSuccess
}

type resetPasswordCmd struct {
	email    string
	password string
}

func (*resetPasswordCmd) Name() string     { return "reset-password" }
func (*resetPasswordCmd) Synopsis() string { return "set a user's password and end their session" }
func (*resetPasswordCmd) Usage() string {
	return `reset-password -email <email> -password <new password>
`
}

func (c *resetPasswordCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.email, "email", "", "account email (required)")
	f.StringVar(&c.password, "password", "", "new password, at least 6 characters (required)")
}

func (c *resetPasswordCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.email == "" || c.password == "" {
		fmt.Fprintln(os.Stderr, "Error: -email and -password are required.")
		return subcommands.ExitUsageError
	}

	e, err := openEnv()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return subcommands.ExitFailure
	}
	defer e.Close()

	if err := e.users.ResetPassword(ctx, c.email, c.password); err != nil {
		fmt.Fprintf(os.Stderr, "Error resetting password for %s: %v\n", c.email, err)
		return subcommands.ExitFailure
	}
	fmt.Printf("Password for %s has been reset\n", c.email)
	return subcommands.ExitSuccess
}
