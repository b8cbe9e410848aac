// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package registry

import (
	"context"
	"io"
	"net/http"
	"net/url"

	"github.com/go-faster/errors"
	"github.com/go-faster/jx"
	"github.com/thediveo/lxkns/log"
	"golang.org/x/time/rate"
)

// Default registry endpoints.
const (
	DefaultListingURL  = "https://replicate.npmjs.com/_all_docs"
	DefaultMetadataURL = "https://replicate.npmjs.com/"
)

// DefaultUserAgent is sent with every request unless overridden.
const DefaultUserAgent = "orphandig"

// decoder buffer size for streaming documents.
const bufferSize = 64 * 1024

// Client talks to a package registry. A Client is safe for concurrent use.
type Client struct {
	httpclnt    *http.Client
	listingURL  string
	metadataURL string
	userAgent   string
	limiter     *rate.Limiter // nil: unlimited.
}

// ClientOption configures a [Client] when passed to [New].
type ClientOption func(*Client)

// WithHTTPClient sets the HTTP client to use instead of [http.DefaultClient].
func WithHTTPClient(httpclnt *http.Client) ClientOption {
	return func(c *Client) { c.httpclnt = httpclnt }
}

// WithListingURL sets the URL of the bulk listing of package names.
func WithListingURL(u string) ClientOption {
	return func(c *Client) { c.listingURL = u }
}

// WithMetadataURL sets the base URL that package names get appended to in
// order to fetch their metadata documents.
func WithMetadataURL(u string) ClientOption {
	return func(c *Client) { c.metadataURL = u }
}

// WithUserAgent sets the user agent to send.
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) { c.userAgent = ua }
}

// WithRateLimit limits metadata requests to the specified number of requests
// per second, shared by all callers of the client. A zero or negative limit
// means unlimited.
func WithRateLimit(rps float64) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		burst := int(rps)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// New returns a new registry client, configured using the passed options.
func New(opts ...ClientOption) *Client {
	c := &Client{
		httpclnt:    http.DefaultClient,
		listingURL:  DefaultListingURL,
		metadataURL: DefaultMetadataURL,
		userAgent:   DefaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Names fetches the bulk listing and calls fn for each package name in the
// order listed. The listing is decoded while it is streamed in, so fn gets
// called long before the listing has been completely downloaded. If fn
// returns an error, the listing is abandoned and Names returns that error.
func (c *Client) Names(ctx context.Context, fn func(name string) error) error {
	resp, err := c.get(ctx, c.listingURL)
	if err != nil {
		return errors.Wrap(err, "cannot fetch package listing")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Wrap(&StatusError{Status: resp.StatusCode}, "cannot fetch package listing")
	}
	log.Debugf("streaming package listing from %s", c.listingURL)
	var fnerr error
	err = jx.Decode(resp.Body, bufferSize).Obj(func(d *jx.Decoder, key string) error {
		if key != "rows" {
			return d.Skip()
		}
		return d.Arr(func(d *jx.Decoder) error {
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "key" || d.Next() != jx.String {
					return d.Skip()
				}
				name, err := d.Str()
				if err != nil {
					return err
				}
				if fnerr = fn(name); fnerr != nil {
					return fnerr
				}
				return nil
			})
		})
	})
	if fnerr != nil {
		return fnerr
	}
	if err != nil {
		// A cancelled context surfaces as a body read error; report the
		// cancellation instead.
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return errors.Wrapf(err, "cannot decode package listing")
	}
	return nil
}

// Maintainers returns the e-mail addresses of the maintainers of the named
// package, in the order listed in the package's metadata document.
// Maintainers without an e-mail address are skipped.
func (c *Client) Maintainers(ctx context.Context, name string) ([]string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	resp, err := c.get(ctx, c.metadataURL+url.PathEscape(name))
	if err != nil {
		return nil, err
	}
	defer func() {
		// drain so that the connection can be reused.
		_, _ = io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return nil, statusError(resp.StatusCode)
	}
	emails, err := decodeMaintainers(jx.Decode(resp.Body, bufferSize))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, err
	}
	return emails, nil
}

// decodeMaintainers returns the maintainers' e-mail addresses from a package
// metadata document.
func decodeMaintainers(d *jx.Decoder) ([]string, error) {
	var emails []string
	found := false
	err := d.Obj(func(d *jx.Decoder, key string) error {
		if key != "maintainers" {
			return d.Skip()
		}
		if d.Next() != jx.Array {
			return errors.Wrap(ErrMalformed, "maintainers is not a list")
		}
		found = true
		return d.Arr(func(d *jx.Decoder) error {
			if d.Next() != jx.Object {
				return d.Skip()
			}
			return d.Obj(func(d *jx.Decoder, key string) error {
				if key != "email" || d.Next() != jx.String {
					return d.Skip()
				}
				email, err := d.Str()
				if err != nil {
					return err
				}
				emails = append(emails, email)
				return nil
			})
		})
	})
	if err != nil {
		if errors.Is(err, ErrMalformed) {
			return nil, err
		}
		return nil, errors.Wrapf(ErrMalformed, "%s", err.Error())
	}
	if !found {
		return nil, errors.Wrap(ErrMalformed, "no maintainers")
	}
	return emails, nil
}

func (c *Client) get(ctx context.Context, u string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpclnt.Do(req)
}
