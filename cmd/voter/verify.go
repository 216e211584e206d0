package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/services"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [verification-code]",
		Short: "Confirm a vote was recorded using its verification code",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.cleanup()

			code := ""
			if len(args) == 1 {
				code = args[0]
			}
			return runVerify(cmd.Context(), app, code)
		},
	}
}

func runVerify(ctx context.Context, app *app, code string) error {
	in := bufio.NewReader(os.Stdin)

	for {
		if err := waitForUnlock(ctx, app.guard, services.WorkflowVerify); err != nil {
			return err
		}

		if code == "" {
			var err error
			code, err = prompt(in, "Enter your verification code: ")
			if err != nil {
				return err
			}
		}

		record, err := app.verify.Verify(ctx, code)
		if err == nil {
			fmt.Println("\nYour vote is recorded.")
			fmt.Printf("  Cast at:   %s\n", record.CastAt.Format("2006-01-02 15:04"))
			fmt.Printf("  Positions: %s\n", strings.Join(record.Positions, ", "))
			return nil
		}

		code = ""
		var rejected *domain.AttemptRejectedError
		var locked *domain.LockedOutError
		switch {
		case errors.As(err, &rejected):
			fmt.Println(rejected.Error())
		case errors.As(err, &locked):
		default:
			return err
		}
	}
}
