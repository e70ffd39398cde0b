// Package fingerprint computes the content digest Cleanroom uses to decide
// whether a scenario actually needs to run again (spec.md section 4.4): a
// scenario whose input files (its source file and any included files,
// compared in canonical form) are unchanged since its last recorded outcome
// can be skipped in `cleanroom run --if-changed`. Rendered output is not
// hashed, so a change that only alters what a template renders to (an
// environment variable read by env(), a --var value) does not change the
// digest.
package fingerprint

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"
	"sort"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// SchemaVersion is folded into every digest so a Cleanroom upgrade that
// changes how scenarios are interpreted invalidates old cache entries even
// when the scenario file itself hasn't changed.
const SchemaVersion = "cleanroom/v1"

// Digest is a hex-encoded SHA-256 sum.
type Digest string

// Compute hashes every file that contributed to a scenario's rendered form
// (scenario.RawInputs: the source file plus any `{% include %}`ed files).
// Each file is first reduced to a canonical form -- parsed TOML re-encoded
// with sorted keys, so reordering unrelated keys or changing whitespace
// doesn't change the digest -- and non-TOML include fragments (partial Tera
// snippets) are hashed as raw bytes since they can't stand alone as TOML.
func Compute(scenario *config.Scenario) (Digest, error) {
	type fileHash struct {
		path string
		hash string
	}

	hashes := make([]fileHash, 0, len(scenario.RawInputs))
	for _, path := range scenario.RawInputs {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", errlog.Wrap(errlog.Io, err, "reading %s for fingerprint", path)
		}
		canon, err := canonicalize(data)
		if err != nil {
			canon = data
		}
		sum := sha256.Sum256(canon)
		hashes = append(hashes, fileHash{path: path, hash: hex.EncodeToString(sum[:])})
	}
	sort.Slice(hashes, func(i, j int) bool { return hashes[i].path < hashes[j].path })

	h := sha256.New()
	io.WriteString(h, SchemaVersion)
	for _, fh := range hashes {
		io.WriteString(h, fh.path)
		io.WriteString(h, fh.hash)
	}
	return Digest(hex.EncodeToString(h.Sum(nil))), nil
}

// canonicalize parses raw TOML and re-serializes it as JSON. encoding/json
// sorts map keys on marshal, which is the whole trick: two TOML documents
// that differ only in key order or insignificant whitespace produce
// identical canonical bytes.
func canonicalize(raw []byte) ([]byte, error) {
	var doc map[string]interface{}
	if err := toml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	return json.Marshal(doc)
}
