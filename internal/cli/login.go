package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/term"

	"github.com/famomatic/nicov1/client"
)

func (a *App) runLogin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	mail := fs.String("mail", "", "Account mail address or telephone number")
	password := fs.String("password", "", "Account password (prompted without echo when omitted)")
	otp := fs.String("otp", "", "One-time code for accounts with MFA enabled")
	sessionValue := fs.String("session", "", "Existing user_session cookie value")
	if err := parseCommandFlags(fs, args); err != nil {
		return err
	}
	if fs.NArg() != 0 {
		return a.usageError("usage: nicov1 login [flags]")
	}
	if *sessionValue == "" && *mail == "" {
		return a.usageError("login needs -mail or -session")
	}

	a.allowMissingCookies = true
	c, err := a.newClient(nil)
	if err != nil {
		return err
	}

	if *sessionValue != "" {
		if err := c.LoginWithSession(ctx, *sessionValue); err != nil {
			return err
		}
	} else {
		pass := *password
		if pass == "" {
			pass, err = a.readPassword(fmt.Sprintf("password for %s: ", *mail))
			if err != nil {
				return err
			}
		}
		err := c.Login(ctx, *mail, pass, *otp)
		if errors.Is(err, client.ErrMFARequired) && *otp == "" {
			code, promptErr := a.readLine("one-time code: ")
			if promptErr != nil {
				return promptErr
			}
			err = c.Login(ctx, *mail, pass, code)
		}
		if err != nil {
			return err
		}
	}

	if a.globals.CookiesFile != "" {
		if err := c.SaveCookies(a.globals.CookiesFile); err != nil {
			return err
		}
		a.logger.Info().Str("path", a.globals.CookiesFile).Msg("session cookies saved")
	}

	if c.Premium() {
		fmt.Fprintln(a.Stdout, "logged in (premium)")
	} else {
		fmt.Fprintln(a.Stdout, "logged in")
	}
	return nil
}

// readPassword prompts on stderr and reads without echo from the
// controlling terminal.
func (a *App) readPassword(prompt string) (string, error) {
	if a.ReadPassword != nil {
		return a.ReadPassword(prompt)
	}
	fmt.Fprint(a.Stderr, prompt)
	raw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(a.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(raw), nil
}

// readLine prompts on stderr and reads one echoed line, for inputs that
// are not secrets.
func (a *App) readLine(prompt string) (string, error) {
	fmt.Fprint(a.Stderr, prompt)
	line, err := bufio.NewReader(a.stdin()).ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input: %w", err)
	}
	return strings.TrimSpace(line), nil
}

func (a *App) stdin() io.Reader {
	if a.Stdin != nil {
		return a.Stdin
	}
	return os.Stdin
}
