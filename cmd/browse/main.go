package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"web-browser/application/browser"
	"web-browser/application/http/actor/client"
	"web-browser/application/http/semantic"
	"web-browser/transport/tcp"

	"github.com/alecthomas/kong"
	"github.com/benbjohnson/clock"
	"github.com/mattn/go-isatty"
)

type CLI struct {
	Timeout   time.Duration `help:"Give up on the exchange after this long. Zero waits forever." default:"0s"`
	UserAgent string        `help:"User-Agent header sent with the request." default:"${userAgent}"`

	LogLevel  string `help:"Minimum log level." enum:"debug,info,warn,error" default:"warn"`
	LogFormat string `help:"Log format. Defaults to text on a terminal, json otherwise." enum:"auto,text,json" default:"auto"`

	URL string `arg:"" help:"URL to load, as scheme://host[:port][/path]."`
}

func main() {
	cli := &CLI{}
	cliCtx := kong.Parse(cli,
		kong.Name("browse"),
		kong.Description("Fetch a page over HTTP or HTTPS and print its text."),
		kong.Vars{"userAgent": semantic.DefaultUserAgent},
		kong.UsageOnError(),
	)

	logger := newLogger(os.Stderr, cli.LogLevel, cli.LogFormat)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	err := cli.run(ctx, logger, os.Stdout)
	cliCtx.FatalIfErrorf(err)
}

func (cli *CLI) run(ctx context.Context, logger *slog.Logger, out io.Writer) error {
	opts := client.DefaultOptions
	opts.UserAgent = cli.UserAgent
	opts.Timeout.Exchange = cli.Timeout

	c := client.New(tcp.NewDialer(), logger, clock.New(), opts)

	return browser.New(c, out, logger).Load(ctx, cli.URL)
}

func newLogger(w *os.File, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelWarn
	}

	if format == "auto" {
		format = "json"
		if isatty.IsTerminal(w.Fd()) || isatty.IsCygwinTerminal(w.Fd()) {
			format = "text"
		}
	}

	opts := &slog.HandlerOptions{Level: lvl}
	if format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
