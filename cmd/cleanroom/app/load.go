package app

import (
	"strings"

	"github.com/spf13/pflag"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/template"
)

// rawVarFlags backs the repeated --var key=value flag, the CLI-sourced
// half of pkg/template's vars precedence (CLI wins over a scenario's
// [vars] block).
var rawVarFlags []string

func registerVarFlag(fs *pflag.FlagSet) {
	fs.StringArrayVar(&rawVarFlags, "var", nil, "set a template variable, key=value (repeatable)")
}

func parseVarFlags() map[string]string {
	out := map[string]string{}
	for _, raw := range rawVarFlags {
		key, value, ok := strings.Cut(raw, "=")
		if !ok {
			continue
		}
		out[key] = value
	}
	return out
}

// loadScenarios loads and validates every path, using pkg/template's Engine
// as the renderer so `{{ }}`/`{% %}`/`{# #}` scenario files work the same
// way whether invoked from `run`, `validate`, `render`, or `dry-run`.
func loadScenarios(paths []string) (*config.ScenarioSet, error) {
	engine := &template.Engine{}
	cliVars := parseVarFlags()

	set := &config.ScenarioSet{}
	for _, path := range paths {
		scenario, err := config.Load(path, engine, cliVars)
		if err != nil {
			return nil, err
		}
		set.Scenarios = append(set.Scenarios, scenario)
	}
	return set, nil
}
