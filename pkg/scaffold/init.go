package scaffold

import (
	"bytes"
	"os"
	"path/filepath"
	"text/template"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// Options configures one Init call.
type Options struct {
	// Dir is the directory to scaffold into; created if missing.
	Dir string
	// Name is the scenario's name field.
	Name string
	// Image is the starter service's container image.
	Image string
}

// Init writes a starter scenario TOML, a companion README, and an empty
// .cleanroom/ cache directory into opts.Dir.
func Init(opts Options) error {
	if opts.Image == "" {
		opts.Image = "alpine:latest"
	}

	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return errlog.Wrap(errlog.Io, err, "creating %s", opts.Dir)
	}
	if err := os.MkdirAll(filepath.Join(opts.Dir, ".cleanroom"), 0o755); err != nil {
		return errlog.Wrap(errlog.Io, err, "creating .cleanroom cache directory")
	}

	fileName := opts.Name + ".toml"
	scenarioPath := filepath.Join(opts.Dir, fileName)
	if err := renderToFile(Scenario, scenarioPath, map[string]string{
		"Name":  opts.Name,
		"Image": opts.Image,
	}); err != nil {
		return err
	}

	readmePath := filepath.Join(opts.Dir, "README.md")
	if err := renderToFile(README, readmePath, map[string]string{
		"Name":     opts.Name,
		"FileName": fileName,
	}); err != nil {
		return err
	}

	return nil
}

func renderToFile(tmpl *template.Template, path string, data interface{}) error {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return errlog.Wrap(errlog.Internal, err, "rendering scaffold template for %s", path)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return errlog.Wrap(errlog.Io, err, "writing %s", path)
	}
	return nil
}
