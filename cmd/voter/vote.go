package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/domain"
	"github.com/hanieyo1407/official-voting-system-sub001/internal/core/services"
)

func newVoteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vote",
		Short: "Authenticate with a voucher and cast your ballot",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp()
			if err != nil {
				return err
			}
			defer app.cleanup()
			return runVote(cmd.Context(), app)
		},
	}
}

func runVote(ctx context.Context, app *app) error {
	in := bufio.NewReader(os.Stdin)

	session, err := login(ctx, app, in)
	if err != nil {
		return err
	}

	for {
		switch session.State() {
		case services.StateVoting:
			if err := askPosition(ctx, session, in); err != nil {
				return err
			}
		case services.StateReview, services.StateFailed:
			done, err := review(ctx, session, in)
			if err != nil {
				return err
			}
			if done {
				return nil
			}
		case services.StateSuccess:
			return nil
		default:
			return fmt.Errorf("unexpected session state %s", session.State())
		}
	}
}

func login(ctx context.Context, app *app, in *bufio.Reader) (*services.BallotSession, error) {
	for {
		if err := waitForUnlock(ctx, app.guard, services.WorkflowAuth); err != nil {
			return nil, err
		}

		voucher, err := prompt(in, "Enter your voting voucher: ")
		if err != nil {
			return nil, err
		}

		session, err := app.auth.Login(ctx, voucher)
		if err == nil {
			return session, nil
		}

		var rejected *domain.AttemptRejectedError
		var locked *domain.LockedOutError
		switch {
		case errors.As(err, &rejected):
			fmt.Println(rejected.Error())
		case errors.As(err, &locked):
			// Race between the pre-check and the attempt; loop into the
			// countdown.
		case errors.Is(err, domain.ErrCatalogEmpty):
			fmt.Println("The ballot is not available yet. Try again shortly.")
		default:
			fmt.Printf("Could not reach the election server: %v\n", err)
			retry, perr := prompt(in, "Retry? [y/N]: ")
			if perr != nil {
				return nil, perr
			}
			if !strings.EqualFold(retry, "y") {
				return nil, err
			}
		}
	}
}

func askPosition(ctx context.Context, session *services.BallotSession, in *bufio.Reader) error {
	pos := session.CurrentPosition()
	fmt.Printf("\n[%d/%d] %s\n", session.CurrentIndex()+1, len(session.Positions()), pos.Name)
	for i, c := range pos.Candidates {
		fmt.Printf("  %d. %s\n", i+1, c.Name)
		if c.Manifesto != "" {
			fmt.Printf("     %s\n", c.Manifesto)
		}
	}

	answer, err := prompt(in, fmt.Sprintf("Choose [1-%d], b = back: ", len(pos.Candidates)))
	if err != nil {
		return err
	}
	if strings.EqualFold(answer, "b") {
		session.Retreat()
		return nil
	}

	n, err := strconv.Atoi(answer)
	if err != nil || n < 1 || n > len(pos.Candidates) {
		fmt.Println("Please enter one of the listed numbers.")
		return nil
	}
	if err := session.Select(ctx, pos.Candidates[n-1].ID); err != nil {
		return err
	}
	return session.Advance()
}

func review(ctx context.Context, session *services.BallotSession, in *bufio.Reader) (bool, error) {
	fmt.Println("\nReview your ballot:")
	selections := session.Selections()
	for i, pos := range session.Positions() {
		name := "(none)"
		for _, c := range pos.Candidates {
			if c.ID == selections[pos.ID] {
				name = c.Name
			}
		}
		fmt.Printf("  %d. %-20s %s\n", i+1, pos.Name+":", name)
	}

	if session.State() == services.StateFailed {
		fmt.Printf("\nLast submission failed: %v\n", session.SubmitErr())
		fmt.Println("Warning: some votes may already be recorded. Submitting again can duplicate them.")
	}

	answer, err := prompt(in, "[s]ubmit, [c]hange <number>, [q]uit: ")
	if err != nil {
		return false, err
	}
	switch {
	case strings.EqualFold(answer, "s"):
		code, err := session.Submit(ctx)
		if errors.Is(err, domain.ErrOffline) {
			fmt.Println("You appear to be offline. Reconnect and submit again; your selections are saved.")
			return false, nil
		}
		if err != nil {
			return false, nil // details shown on the next review pass
		}
		fmt.Printf("\nYour vote was recorded. Verification code:\n\n    %s\n\nKeep it safe; it is shown only once.\n", code)
		return true, nil
	case strings.EqualFold(answer, "q"):
		fmt.Println("Your selections are saved; log in again to finish voting.")
		return true, nil
	case strings.HasPrefix(strings.ToLower(answer), "c"):
		raw := strings.TrimSpace(answer[1:])
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > len(session.Positions()) {
			fmt.Println("Use: c <position number>")
			return false, nil
		}
		return false, session.JumpTo(n - 1)
	default:
		return false, nil
	}
}

// waitForUnlock renders a once-per-second countdown while the workflow is
// locked. The displayed seconds are derived from the clock each tick; the
// unlock decision itself stays with the guard.
func waitForUnlock(ctx context.Context, guard *services.LockoutService, workflow string) error {
	locked, remaining, err := guard.IsLocked(ctx, workflow)
	if err != nil {
		return err
	}
	if !locked {
		return nil
	}

	until := time.Now().Add(remaining)
	for {
		secs := services.SecondsRemaining(time.Now(), until)
		if secs == 0 {
			break
		}
		fmt.Printf("\rToo many failed attempts. Locked for %3dm%02ds ", secs/60, secs%60)
		select {
		case <-ctx.Done():
			fmt.Println()
			return ctx.Err()
		case <-time.After(time.Second):
		}
	}
	fmt.Println()

	// One more check so the guard reclaims the expired lock.
	_, _, err = guard.IsLocked(ctx, workflow)
	return err
}

func prompt(in *bufio.Reader, label string) (string, error) {
	fmt.Print(label)
	line, err := in.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(line), nil
}
