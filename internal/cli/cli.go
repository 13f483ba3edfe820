// Package cli implements the nicov1 command line: subcommand dispatch,
// flag parsing and record printing over the client library.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"

	"github.com/rs/zerolog"

	"github.com/famomatic/nicov1/client"
)

const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

// errUsage marks subcommand flag errors whose message flag already
// printed; Run turns it into the usage exit code without reprinting.
var errUsage = errors.New("usage")

// Run executes one command line invocation and returns the process exit
// code. ctx bounds every network operation, so wiring it to SIGINT gives
// clean cancellation.
func Run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	app := &App{Stdout: stdout, Stderr: stderr}
	return app.Run(ctx, args)
}

// App carries the wiring shared by all subcommands. The zero value plus
// Stdout/Stderr is ready to use; the function fields exist so tests can
// substitute client construction and the password prompt.
type App struct {
	Stdout io.Writer
	Stderr io.Writer
	Stdin  io.Reader // prompts; defaults to os.Stdin

	// NewClient overrides client construction.
	NewClient func(cfg client.Config) (*client.Client, error)

	// ReadPassword overrides the no-echo terminal prompt.
	ReadPassword func(prompt string) (string, error)

	globals globalOptions
	logger  zerolog.Logger

	// set by login so a missing --cookies file means "create on save"
	// instead of an error.
	allowMissingCookies bool
}

type globalOptions struct {
	CookiesFile string // --cookies
	ProxyURL    string // --proxy
	Verbose     bool   // --verbose
	JSON        bool   // --json
}

// Run parses global flags, dispatches the subcommand and maps its error
// to an exit code.
func (a *App) Run(ctx context.Context, args []string) int {
	fs := flag.NewFlagSet("nicov1", flag.ContinueOnError)
	fs.SetOutput(a.Stderr)
	fs.Usage = func() { a.printUsage(fs) }

	fs.StringVar(&a.globals.CookiesFile, "cookies", "", "Netscape cookies.txt file to load and update")
	fs.StringVar(&a.globals.ProxyURL, "proxy", "", "HTTP/HTTPS/SOCKS proxy URL")
	fs.BoolVar(&a.globals.Verbose, "verbose", false, "Print debug logging")
	fs.BoolVar(&a.globals.JSON, "json", false, "Print records as JSON")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitUsage
	}

	a.logger = newLogger(a.Stderr, a.globals.Verbose)

	rest := fs.Args()
	if len(rest) == 0 {
		a.printUsage(fs)
		return exitUsage
	}
	command, commandArgs := rest[0], rest[1:]

	var err error
	switch command {
	case "help":
		a.printUsage(fs)
		return exitOK
	case "info":
		err = a.runInfo(ctx, commandArgs)
	case "tags":
		err = a.runTags(ctx, commandArgs)
	case "comments":
		err = a.runComments(ctx, commandArgs)
	case "download":
		err = a.runDownload(ctx, commandArgs)
	case "login":
		err = a.runLogin(ctx, commandArgs)
	case "mylist":
		err = a.runMylist(ctx, commandArgs)
	case "user":
		err = a.runUser(ctx, commandArgs)
	case "search":
		err = a.runSearch(ctx, commandArgs)
	default:
		fmt.Fprintf(a.Stderr, "error: invalid_input: unknown command %q\n", command)
		a.printUsage(fs)
		return exitUsage
	}

	if err != nil {
		if errors.Is(err, errHelp) {
			return exitOK
		}
		if errors.Is(err, errUsage) {
			return exitUsage
		}
		fmt.Fprintf(a.Stderr, "error: %s: %v\n", errorKind(err), err)
		return exitFailure
	}
	return exitOK
}

func (a *App) printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(a.Stderr, `Usage: nicov1 [GLOBAL FLAGS] COMMAND [FLAGS] [ARGS]

Commands:
  info <id-or-url>        Print video metadata
  tags <id-or-url>        Print the video's tags
  comments <id-or-url>    Pull the comment feed
  download <id-or-url>    Download and merge the video
  login                   Log in and persist session cookies
  mylist <mylist-id>      Print a mylist and its items
  user <user-id|me>       Print a user profile
  search <query>          Search for videos

Global flags:
`)
	fs.PrintDefaults()
	fmt.Fprintf(a.Stderr, "\nRun \"nicov1 COMMAND -h\" for command flags.\n")
}

// newLogger builds the console logger all subcommands share. Info level
// by default; --verbose opens up debug.
func newLogger(w io.Writer, verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(level).With().Timestamp().Logger()
}

// newClient builds the library client with the global wiring applied.
// configure runs before construction so subcommands can add their own
// config, such as the ffmpeg location.
func (a *App) newClient(configure func(*client.Config)) (*client.Client, error) {
	cfg := client.Config{
		ProxyURL:        a.globals.ProxyURL,
		Logger:          client.ZerologLogger{L: a.logger},
		OnDownloadEvent: a.logDownloadEvent,
	}
	if configure != nil {
		configure(&cfg)
	}

	construct := a.NewClient
	if construct == nil {
		construct = client.New
	}
	c, err := construct(cfg)
	if err != nil {
		return nil, err
	}

	if a.globals.CookiesFile != "" {
		if err := c.LoadCookies(a.globals.CookiesFile); err != nil {
			if a.allowMissingCookies && errors.Is(err, fs.ErrNotExist) {
				a.logger.Debug().Str("path", a.globals.CookiesFile).Msg("cookies file not found, starting fresh")
			} else {
				return nil, err
			}
		}
	}
	return c, nil
}

// logDownloadEvent surfaces library download progress through the CLI
// logger. Transfer milestones land at info, bookkeeping at debug.
func (a *App) logDownloadEvent(ev client.DownloadEvent) {
	e := a.logger.Debug()
	if ev.Stage != "cleanup" && ev.Phase != "failure" {
		e = a.logger.Info()
	}
	if ev.Phase == "failure" {
		e = a.logger.Warn()
	}
	e = e.Str("stage", ev.Stage).Str("phase", ev.Phase).Str("video", ev.VideoID)
	if ev.Path != "" {
		e = e.Str("path", ev.Path)
	}
	if ev.Detail != "" {
		e = e.Str("detail", ev.Detail)
	}
	e.Msg("download progress")
}
