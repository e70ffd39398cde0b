package config

import (
	toml "github.com/pelletier/go-toml/v2"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// Canonicalize re-encodes a rendered TOML document into its canonical form:
// decode into a generic map and re-marshal. go-toml/v2 marshals map keys in
// sorted order, so two semantically identical documents written in a
// different key order converge to the same bytes -- the property `cleanroom
// fmt` checks for idempotence.
//
// This does not go through Scenario/Parse: a generic round-trip preserves
// unknown-to-Cleanroom keys (e.g. comments-as-metadata conventions some
// teams adopt) that a typed re-encode would silently drop.
func Canonicalize(raw []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, errlog.Wrap(errlog.Config, err, "parsing TOML for formatting")
	}
	out, err := toml.Marshal(doc)
	if err != nil {
		return nil, errlog.Wrap(errlog.Config, err, "re-encoding TOML")
	}
	return out, nil
}
