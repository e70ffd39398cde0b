package span

import (
	"bytes"
	"crypto/tls"
	"encoding/json"
	"net/http"

	"github.com/sethgrid/pester"

	"github.com/cleanroom-dev/cleanroom/pkg/backplane/ca"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// Client pushes spans from inside a service container to the run's Server,
// following the teacher's worker.DoRequest: build the request, submit it
// with a retrying client, and treat anything but 2xx as failure. Unlike
// DoRequest's fire-and-forget error reporting, a failed span push is fatal
// to the step that produced it -- a scenario missing spans can't be
// validated at all.
type Client struct {
	URL        string
	httpClient *pester.Client
}

// NewClient builds a Client that authenticates to url with clientCert and
// trusts only authority's root.
func NewClient(url string, authority *ca.Authority, clientCert *tls.Certificate) *Client {
	httpClient := pester.New()
	httpClient.MaxRetries = 3
	httpClient.Backoff = pester.ExponentialBackoff
	httpClient.Transport = &http.Transport{
		TLSClientConfig: &tls.Config{
			Certificates: []tls.Certificate{*clientCert},
			RootCAs:      authority.CACertPool(),
		},
	}
	return &Client{URL: url, httpClient: httpClient}
}

// Push submits a batch of spans. Call sites are expected to batch every
// span produced by one step into a single Push rather than one call per
// span, keeping the retry unit coarse.
func (c *Client) Push(batch []Data) error {
	body, err := json.Marshal(batch)
	if err != nil {
		return errlog.Wrap(errlog.Internal, err, "encoding span batch")
	}

	resp, err := c.httpClient.Post(c.URL, "application/json", bytes.NewReader(body))
	if err != nil {
		return errlog.Wrap(errlog.Io, err, "pushing %d spans to %s", len(batch), c.URL)
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return errlog.New(errlog.Io, "span push to %s returned status %d", c.URL, resp.StatusCode)
	}
	return nil
}
