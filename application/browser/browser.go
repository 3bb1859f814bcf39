// Package browser loads a URL and writes its visible text.
package browser

import (
	"context"
	"io"
	"log/slog"

	"web-browser/application/render"
	"web-browser/application/util/uri"

	"github.com/pkg/errors"
)

// Fetcher returns the body of the resource at an address.
// *client.Client is the production implementation.
type Fetcher interface {
	Fetch(ctx context.Context, addr uri.Address) (string, error)
}

type Browser struct {
	fetcher Fetcher
	out     io.Writer
	logger  *slog.Logger
}

func New(fetcher Fetcher, out io.Writer, logger *slog.Logger) *Browser {
	return &Browser{
		fetcher: fetcher,
		out:     out,
		logger:  logger,
	}
}

// Load fetches rawURL and renders the body to the output.
// Nothing is written unless the whole body was fetched.
func (b *Browser) Load(ctx context.Context, rawURL string) error {
	addr, err := uri.Parse(rawURL)
	if err != nil {
		return errors.Wrap(err, "parsing url")
	}

	b.logger.Info("loading", slog.String("url", addr.String()))

	body, err := b.fetcher.Fetch(ctx, addr)
	if err != nil {
		return errors.Wrapf(err, "fetching %s", addr)
	}

	if err := render.Render(b.out, body); err != nil {
		return errors.Wrap(err, "rendering body")
	}

	b.logger.Debug("rendered", slog.Int("bodyLength", len(body)))

	return nil
}
