package validate

import (
	"fmt"
	"net"
	"strings"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/span"
)

// externalAttrKeys are span attribute keys that, when present, are checked
// for a non-loopback host value under no_external_services.
var externalAttrKeys = []string{
	"http.url", "net.peer.name", "net.peer.ip", "peer.address", "db.connection_string",
}

type hermeticityValidator struct{}

func (hermeticityValidator) Name() string { return "hermeticity" }

func (hermeticityValidator) Validate(expect config.Expectations, spans []span.Data) []Error {
	if expect.Hermeticity == nil {
		return nil
	}
	h := expect.Hermeticity

	var errs []Error
	if h.NoExternalServices {
		errs = append(errs, checkNoExternalServices(spans)...)
	}
	if h.ResourceAttrs != nil {
		errs = append(errs, checkResourceAttrs(*h.ResourceAttrs, spans)...)
	}
	if h.SpanAttrs != nil {
		errs = append(errs, checkSpanAttrForbidKeys(*h.SpanAttrs, spans)...)
	}
	return errs
}

func checkNoExternalServices(spans []span.Data) []Error {
	var errs []Error
	for _, d := range spans {
		for _, key := range externalAttrKeys {
			val, ok := d.Attributes[key]
			if !ok {
				continue
			}
			if host := hostOfAttr(val); host != "" && !isLoopbackHost(host) {
				errs = append(errs, Error{
					Validator:   "hermeticity",
					Expectation: "hermeticity.no_external_services",
					SpanIDs:     []string{d.SpanID},
					SpanNames:   []string{d.Name},
					Message:     fmt.Sprintf("span %q attribute %q references external host %q", d.Name, key, host),
				})
			}
		}
	}
	return errs
}

func checkResourceAttrs(r config.ResourceAttrsExpectation, spans []span.Data) []Error {
	var errs []Error
	for _, d := range spans {
		for key, want := range r.MustMatch {
			if got := d.ResourceAttrs[key]; got != want {
				errs = append(errs, Error{
					Validator:   "hermeticity",
					Expectation: "hermeticity.resource_attrs",
					SpanIDs:     []string{d.SpanID},
					SpanNames:   []string{d.Name},
					Message:     fmt.Sprintf("span %q resource attribute %q = %q, want %q", d.Name, key, got, want),
				})
			}
		}
	}
	return errs
}

func checkSpanAttrForbidKeys(s config.SpanAttrsExpectation, spans []span.Data) []Error {
	var errs []Error
	for _, d := range spans {
		for attrKey := range d.Attributes {
			for _, forbidden := range s.ForbidKeys {
				if strings.Contains(attrKey, forbidden) {
					errs = append(errs, Error{
						Validator:   "hermeticity",
						Expectation: "hermeticity.span_attrs.forbid_keys",
						SpanIDs:     []string{d.SpanID},
						SpanNames:   []string{d.Name},
						Message:     fmt.Sprintf("span %q carries forbidden attribute key %q (matches %q)", d.Name, attrKey, forbidden),
					})
				}
			}
		}
	}
	return errs
}

// hostOfAttr extracts a bare host from an attribute value that may be a
// full URL, a host:port pair, or a bare host/IP.
func hostOfAttr(val string) string {
	if strings.Contains(val, "://") {
		if idx := strings.Index(val, "://"); idx != -1 {
			val = val[idx+3:]
		}
		if idx := strings.IndexAny(val, "/?"); idx != -1 {
			val = val[:idx]
		}
	}
	if host, _, err := net.SplitHostPort(val); err == nil {
		return host
	}
	return val
}

func isLoopbackHost(host string) bool {
	if host == "localhost" {
		return true
	}
	ip := net.ParseIP(host)
	if ip == nil {
		return false
	}
	return ip.IsLoopback()
}
