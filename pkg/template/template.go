// Package template renders scenario files written against Cleanroom's Tera
// dialect (spec.md section 4.3) before they reach pkg/config's TOML parser.
// It is the one concrete Renderer that satisfies config.Renderer; cmd/cleanroom
// wires an Engine into pkg/config.Load the same way sonobuoy wired its own
// text/template helpers into manifest generation, just with a richer dialect.
package template

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/flosch/pongo2/v6"

	"github.com/cleanroom-dev/cleanroom/pkg/clock"
	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// maxIncludeDepth bounds `{% include %}` recursion (spec.md section 4.3).
const maxIncludeDepth = 16

// outputRatioCap bounds rendered-size/source-size, catching runaway
// {% for %} loops before they produce unbounded output.
const outputRatioCap = 16

// Engine is a stateless Tera-dialect renderer. Each Render call builds its
// own pongo2 TemplateSet, generator and include tracker, so an Engine value
// is safe to share across goroutines.
type Engine struct{}

// IsTemplate reports whether text contains any Tera delimiter. Plain TOML
// scenario files never do, so this is a cheap way to skip the render step
// entirely for the common case.
func (Engine) IsTemplate(text string) bool {
	return strings.Contains(text, "{{") || strings.Contains(text, "{%") || strings.Contains(text, "{#")
}

// Render expands text and returns the rendered TOML plus the absolute paths
// of any files pulled in via `{% include %}`, so the caller (pkg/config's
// loader) can fold them into the scenario's fingerprint inputs.
func (Engine) Render(text string, opts config.RenderOptions) (string, []string, error) {
	maxBytes := opts.MaxBytes
	if maxBytes <= 0 {
		maxBytes = config.DefaultTemplateBytes
	}
	if int64(len(text)) > maxBytes {
		return "", nil, errlog.New(errlog.Template, "template source is %d bytes, exceeds limit of %d", len(text), maxBytes)
	}

	baseDir := "."
	if opts.SourcePath != "" {
		baseDir = filepath.Dir(opts.SourcePath)
	}
	loader := &trackingLoader{baseDir: baseDir, depth: map[string]int{}}
	set := pongo2.NewSet("cleanroom", loader)

	tpl, err := set.FromString(text)
	if err != nil {
		return "", nil, translateError(err)
	}

	gen := newGenerator(opts)
	ctx := pongo2.Context{
		"env":              os.Getenv,
		"now_rfc3339":      func() string { return clock.Now().UTC().Format(time.RFC3339) },
		"sha256":           hashHex,
		"toml_encode":      tomlEncode,
		"fake_uuid":        gen.uuid,
		"fake_uuid_seeded": gen.uuidSeeded,
		"fake_name":        gen.name,
		"fake_email":       gen.email,
		"fake_ipv4":        gen.ipv4,
		"fake_int":         gen.int,
		"fake_string":      gen.string,
		"fake_bool":        gen.bool,
		"random_choice":    gen.choice,
		"property_range":   gen.propertyRange,
	}
	for k, v := range preScanVars(text) {
		ctx[k] = v
	}
	for k, v := range opts.CLIVars {
		ctx[k] = v // explicit CLI vars win over everything else
	}

	known := make(map[string]bool, len(ctx))
	for k := range ctx {
		known[k] = true
	}
	if err := checkUndefinedVars(text, known, opts.SourcePath); err != nil {
		return "", nil, err
	}

	rendered, err := tpl.Execute(ctx)
	if err != nil {
		return "", nil, translateError(err)
	}

	if len(text) > 0 && int64(len(rendered))/int64(len(text)) > outputRatioCap {
		return "", nil, errlog.New(errlog.Template,
			"rendered output is %dx the source size, exceeds the %dx safety cap", len(rendered)/len(text), outputRatioCap)
	}

	return rendered, loader.included, nil
}

func translateError(err error) error {
	if perr, ok := err.(*pongo2.Error); ok {
		e := errlog.New(errlog.Template, "%s", perr.OrigError)
		if perr.Filename != "" {
			e = e.With("%s:%d:%d", perr.Filename, perr.Line, perr.Column)
		}
		if perr.Token != nil {
			e = e.With("near token %q", perr.Token.Val)
		}
		return e
	}
	return errlog.Wrap(errlog.Template, err, "rendering template")
}

// hashHex implements the `sha256(...)` template function: a hex digest of
// its string argument, used for deterministic identifiers derived from
// scenario content.
func hashHex(s string) string {
	return sha256Hex([]byte(s))
}

// tomlEncode implements `toml_encode(value)`: renders a Go value (typically
// a map built up in the template itself) back out as an inline TOML
// fragment, useful for building one service's `env` table programmatically.
func tomlEncode(v interface{}) (string, error) {
	return encodeTOMLValue(v)
}

// trackingLoader resolves `{% include "file.toml" %}` relative to the
// scenario's own directory and records every path it serves, along with a
// per-path include depth so cyclical/over-deep includes fail loudly instead
// of hanging.
type trackingLoader struct {
	baseDir  string
	included []string
	depth    map[string]int
}

func (l *trackingLoader) Abs(base, name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	dir := l.baseDir
	if base != "" {
		dir = filepath.Dir(base)
	}
	return filepath.Join(dir, name)
}

func (l *trackingLoader) Get(path string) (io.Reader, error) {
	l.depth[path]++
	if l.depth[path] > maxIncludeDepth {
		return nil, fmt.Errorf("include depth exceeded for %s (max %d)", path, maxIncludeDepth)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	abs, _ := filepath.Abs(path)
	l.included = append(l.included, abs)
	return strings.NewReader(string(data)), nil
}

// preScanVars does a best-effort, line-oriented extraction of the scenario's
// own `[vars]` table so its values are available to the template pass that
// produces the rest of the document. A full TOML parse isn't safe here: a
// document using `{% for %}` to generate repeated tables isn't valid TOML
// until after rendering, so only a line scan (not a real parser) can run
// this early.
func preScanVars(text string) map[string]interface{} {
	out := map[string]interface{}{}
	inBlock := false
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if line == "[vars]" {
			inBlock = true
			continue
		}
		if inBlock && strings.HasPrefix(line, "[") {
			break
		}
		if !inBlock {
			continue
		}
		eq := strings.Index(line, "=")
		if eq <= 0 {
			continue
		}
		key := strings.Trim(strings.TrimSpace(line[:eq]), `"'`)
		out[key] = parseScalar(strings.TrimSpace(line[eq+1:]))
	}
	return out
}

func parseScalar(v string) interface{} {
	switch {
	case v == "true":
		return true
	case v == "false":
		return false
	case len(v) >= 2 && (v[0] == '"' || v[0] == '\'') && v[len(v)-1] == v[0]:
		return v[1 : len(v)-1]
	default:
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
		return v
	}
}
