package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The real App type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	isLoggedIn() bool

	SignIn(ctx context.Context) error
	SignUp(ctx context.Context) error
	Verify(ctx context.Context) error
	Resend(ctx context.Context) error
	SignOut(ctx context.Context) error

	Home(ctx context.Context) error
	EditProfile(ctx context.Context) error
	Picture(ctx context.Context, args []string) error

	Rewards(ctx context.Context) error
	Redeem(ctx context.Context, args []string) error

	Stores(ctx context.Context) error
	ChooseStore(ctx context.Context, args []string) error
	Directions(ctx context.Context, args []string) error

	Feed(ctx context.Context) error
	Reconcile(ctx context.Context) error

	Settings(ctx context.Context, args []string) error
	Theme(ctx context.Context) error
	DeleteAccount(ctx context.Context) error
}

const (
	helpSignedOut = "Available commands: signin, signup, verify, resend, stores, directions, theme, exit"
	helpSignedIn  = "Available commands: home, edit, picture <file>, rewards, redeem <id>, stores, choose <id>, " +
		"directions [id], feed, reconcile, settings [name on|off], theme, signout, delete-account, exit"
)

// runREPL starts a simple read–eval–print loop for the GophLoyalty CLI.
//
// It reads a line from the provided scanner, parses the first token as the
// command, and dispatches to methods on 'a' with the remaining tokens as
// arguments. The loop exits on scanner EOF or when the user types "exit"
// or "quit".
//
//	Signed out:
//	  - signin | login       sign in with email and password
//	  - signup | register    create an account
//	  - verify               enter the emailed 6-digit code
//	  - resend               send the code again
//	  - stores, directions   browse stores by distance
//	  - theme                toggle light/dark
//
//	Signed in, additionally:
//	  - home | profile       points, tier and progress
//	  - edit, picture <file> update profile details or photo
//	  - rewards, redeem <id> browse and redeem rewards
//	  - choose <id>          pick a store
//	  - feed, reconcile      recent activity and ledger check
//	  - settings             notification preferences
//	  - signout | logout, delete-account
//
// Errors returned by command handlers are printed and the loop continues.
func runREPL(ctx context.Context, a execIface, statusFn func() string, scanner *bufio.Scanner) {
	for {
		printlnFn(fmt.Sprintf("loyalty %s > ", statusFn()))
		if !scanner.Scan() {
			return
		}
		parts := strings.Fields(scanner.Text())
		if len(parts) == 0 {
			continue
		}
		cmd, args := strings.ToLower(parts[0]), parts[1:]

		var err error
		switch cmd {
		case "help":
			if a.isLoggedIn() {
				printlnFn(helpSignedIn)
			} else {
				printlnFn(helpSignedOut)
			}

		case "signin", "login":
			err = a.SignIn(ctx)
		case "signup", "register":
			err = a.SignUp(ctx)
		case "verify":
			err = a.Verify(ctx)
		case "resend":
			err = a.Resend(ctx)
		case "signout", "logout":
			err = a.SignOut(ctx)

		case "home", "profile":
			err = a.Home(ctx)
		case "edit":
			err = a.EditProfile(ctx)
		case "picture":
			err = a.Picture(ctx, args)

		case "rewards":
			err = a.Rewards(ctx)
		case "redeem":
			err = a.Redeem(ctx, args)

		case "stores":
			err = a.Stores(ctx)
		case "choose":
			err = a.ChooseStore(ctx, args)
		case "directions":
			err = a.Directions(ctx, args)

		case "feed":
			err = a.Feed(ctx)
		case "reconcile":
			err = a.Reconcile(ctx)

		case "settings":
			err = a.Settings(ctx, args)
		case "theme":
			err = a.Theme(ctx)
		case "delete-account":
			err = a.DeleteAccount(ctx)

		case "exit", "quit":
			printlnFn("Bye!")
			return

		default:
			printlnFn("Unknown command:", cmd)
		}

		if err != nil {
			printlnFn("Error:", err)
		}
	}
}
