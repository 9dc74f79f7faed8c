package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/felixgeelhaar/storefront/internal/domain"
	"github.com/felixgeelhaar/storefront/internal/storefront"
)

// cmdLogin signs in and stores the token
func cmdLogin(ctx context.Context, args []string) error {
	reader := bufio.NewReader(os.Stdin)

	email := ""
	if len(args) > 0 {
		email = args[0]
	} else if email = prompt(reader, "Email: "); email == "" {
		return errors.New("email is required")
	}
	password, err := passwordFromEnvOrPrompt(reader)
	if err != nil {
		return err
	}

	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := app.Session.Login(ctx, email, password); err != nil {
		return err
	}

	user := app.Session.User()
	fmt.Printf("Signed in as %s <%s>\n", user.Name, user.Email)
	printReturn(ctx, app)
	return nil
}

// cmdRegister creates an account
func cmdRegister(ctx context.Context, args []string) error {
	if len(args) < 2 {
		return errors.New("usage: storefront register <name> <email>")
	}
	password, err := passwordFromEnvOrPrompt(bufio.NewReader(os.Stdin))
	if err != nil {
		return err
	}

	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	err = app.Session.Register(ctx, domain.Registration{
		Name:     args[0],
		Email:    args[1],
		Password: password,
	})
	if err != nil {
		return err
	}

	fmt.Printf("Welcome, %s! You are signed in.\n", app.Session.User().Name)
	printReturn(ctx, app)
	return nil
}

// printReturn leaves the login view and tells the user where they are,
// unless that is simply home.
func printReturn(ctx context.Context, app *storefront.App) {
	if loc := app.ReturnFromLogin(ctx); loc.Path != "/" {
		fmt.Printf("Back to %s\n", loc)
	}
}

// cmdLogout forgets the session
func cmdLogout(ctx context.Context) error {
	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	app.Session.Logout(ctx)
	fmt.Println("Signed out")
	return nil
}

// cmdWhoami prints the signed-in user
func cmdWhoami(ctx context.Context) error {
	app, cleanup, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	user := app.Session.User()
	if user == nil {
		fmt.Println("Not signed in")
		if err := app.Session.LastError(); err != nil {
			fmt.Printf("Stored session was not restored: %s\n", errorMessage(err))
		}
		return nil
	}

	fmt.Printf("Name:  %s\n", user.Name)
	fmt.Printf("Email: %s\n", user.Email)
	fmt.Printf("Role:  %s\n", user.Role)
	return nil
}

func prompt(reader *bufio.Reader, label string) string {
	fmt.Print(label)
	line, _ := reader.ReadString('\n')
	return strings.TrimSpace(line)
}

// passwordFromEnvOrPrompt reads STOREFRONT_PASSWORD, or prompts. On a
// terminal the password is not echoed.
func passwordFromEnvOrPrompt(reader *bufio.Reader) (string, error) {
	if pw := os.Getenv("STOREFRONT_PASSWORD"); pw != "" {
		return pw, nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return prompt(reader, "Password: "), nil
	}

	fmt.Print("Password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}
