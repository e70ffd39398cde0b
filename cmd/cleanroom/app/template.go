package app

import (
	"sort"

	"github.com/spf13/cobra"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// snippets holds one ready-to-paste TOML fragment per expectation/service
// kind, for `cleanroom template <kind>` to print -- a quicker reference
// than re-reading the scenario schema for a block's exact field names.
var snippets = map[string]string{
	"service": `[services.app]
image = "myregistry/app"
tag = "latest"
env = { LOG_LEVEL = "debug" }
`,
	"step": `[[steps]]
name = "hit-endpoint"
service = "app"
command = ["curl", "-sf", "http://app:8080/health"]
expected_exit_code = 0
`,
	"counts": `[expect.counts]
spans_total = { gte = 1 }

[[expect.counts.by_name]]
pattern = "http.request"
eq = 1
`,
	"order": `[expect.order]
must_precede = [["request.start", "request.end"]]
`,
	"status": `[expect.status]
all = "ok"

[expect.status.by_name]
"err_*" = "error"
`,
	"graph": `[expect.graph]
acyclic = true
must_include = [["request.start", "db.query"]]
`,
	"window": `[[expect.window]]
outer = "request.start"
contains = ["db.query", "cache.lookup"]
`,
	"hermeticity": `[expect.hermeticity]
no_external_services = true

[expect.hermeticity.span_attrs]
forbid_keys = ["http.url"]
`,
}

// NewCmdTemplate builds `cleanroom template <kind>`.
func NewCmdTemplate() *cobra.Command {
	return &cobra.Command{
		Use:   "template <kind>",
		Short: "Print a starter TOML fragment for a scenario block kind",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			snippet, ok := snippets[args[0]]
			if !ok {
				kinds := make([]string, 0, len(snippets))
				for k := range snippets {
					kinds = append(kinds, k)
				}
				sort.Strings(kinds)
				return errlog.New(errlog.Config, "unknown template kind %q, known kinds: %v", args[0], kinds)
			}
			cmd.Print(snippet)
			return nil
		},
	}
}
