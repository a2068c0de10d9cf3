package driver

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/rustyeddy/jantrader/market"
)

// HTTPDriver fetches a Yahoo style CSV document over HTTP. The source passed
// to Open is the URL. The body is streamed through the same parser as
// YahooDriver.
type HTTPDriver struct {
	Client *http.Client
	Header http.Header

	csv YahooDriver
}

var _ Driver = (*HTTPDriver)(nil)

func NewHTTPDriver(client *http.Client) *HTTPDriver {
	return &HTTPDriver{Client: client}
}

func (d *HTTPDriver) Open(ctx context.Context, url string) error {
	_ = d.csv.Close()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("http driver: %w", err)
	}
	for k, vs := range d.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	req.Header.Set("Accept", "text/csv")

	httpClient := d.Client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("http driver: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
		resp.Body.Close()
		return fmt.Errorf("http driver: %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(b)))
	}

	d.csv.attach(url, resp.Body)
	return nil
}

func (d *HTTPDriver) Next() (market.DayPrice, bool, error) { return d.csv.Next() }

func (d *HTTPDriver) EOF() bool { return d.csv.EOF() }

func (d *HTTPDriver) Close() error { return d.csv.Close() }
