package cli

import (
	"context"
	"os"

	"github.com/openfield/expensesync/internal/common"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts the user for a username and password and attempts to
// create a new account. The password byte slice is wiped before returning.
func (a *App) Register(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Register(ctx, username, string(password)); err != nil {
		return err
	}

	printlnFn("Account created, you can log in now.")
	return nil
}

// Login prompts for credentials and authenticates against the server. On
// success the session token is held by the API client and a sync pass is
// requested so drafts captured while logged out start flowing immediately.
func (a *App) Login(ctx context.Context) error {
	username, err := getSimpleText(a.reader, "Enter username", os.Stdout)
	if err != nil {
		return err
	}

	password, err := getPassword(os.Stdout)
	if err != nil {
		return err
	}
	defer common.WipeByteArray(password)

	if err := a.api.Login(ctx, username, string(password)); err != nil {
		return err
	}

	printlnFn("Logged in.")
	a.controller.RequestSync()
	return nil
}

// Logout discards the session token. Queued drafts stay in the local store
// and resume syncing after the next login.
func (a *App) Logout(ctx context.Context) error {
	a.api.ClearToken()
	printlnFn("Logged out.")
	return nil
}
