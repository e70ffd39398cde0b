package report

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sort"

	"github.com/cleanroom-dev/cleanroom/pkg/executor"
)

// WriteDigest writes a single hex SHA-256 sum to w over a canonical
// representation of results: scenarios sorted by name, each contributing
// its outcome and the *set* of validator-error kinds it produced (not the
// messages, which may embed timestamps or paths) -- spec.md section 6's
// "stable across runs, machines, and time" requirement.
func WriteDigest(w io.Writer, results []executor.Result) error {
	sorted := make([]executor.Result, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ScenarioName < sorted[j].ScenarioName })

	h := sha256.New()
	for _, r := range sorted {
		io.WriteString(h, r.ScenarioName)
		io.WriteString(h, "\x00")
		io.WriteString(h, string(r.Outcome))
		io.WriteString(h, "\x00")

		kinds := validatorKindSet(r)
		for _, k := range kinds {
			io.WriteString(h, k)
			io.WriteString(h, "\x00")
		}
		io.WriteString(h, "\x01")
	}

	_, err := io.WriteString(w, hex.EncodeToString(h.Sum(nil)))
	return err
}

// validatorKindSet returns the sorted, de-duplicated set of validator
// names that produced at least one error for r.
func validatorKindSet(r executor.Result) []string {
	seen := map[string]bool{}
	for _, ve := range r.ValidatorErrors {
		seen[ve.Validator] = true
	}
	kinds := make([]string, 0, len(seen))
	for k := range seen {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
