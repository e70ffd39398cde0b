package config

// The types below mirror the TOML wire schema (spec.md section 6) exactly,
// decoded with github.com/pelletier/go-toml/v2. They are an intermediate
// representation: loader.go turns a scenarioDoc into the typed Scenario
// the rest of Cleanroom consumes, applying ordering (tomlorder.go),
// defaults, and structural validation along the way.

var knownTopLevelKeys = map[string]bool{
	"meta":        true,
	"services":    true,
	"steps":       true,
	"expect":      true,
	"report":      true,
	"determinism": true,
	"limits":      true,
	"vars":        true,
}

type scenarioDoc struct {
	Meta        map[string]string        `toml:"meta"`
	Services    map[string]serviceDoc     `toml:"services"`
	Steps       []stepDoc                 `toml:"steps"`
	Expect      expectDoc                 `toml:"expect"`
	Report      reportDoc                 `toml:"report"`
	Determinism *determinismDoc           `toml:"determinism"`
	Limits      limitsDoc                 `toml:"limits"`
	Vars        map[string]interface{}    `toml:"vars"`
}

type serviceDoc struct {
	Plugin  string            `toml:"plugin"`
	Image   string            `toml:"image"`
	Tag     string            `toml:"tag"`
	Env     map[string]string `toml:"env"`
	Ports   []int             `toml:"ports"`
	Volumes []VolumeSpec      `toml:"volumes"`
}

type stepDoc struct {
	Name                string `toml:"name"`
	Service             string `toml:"service"`
	Command             []string `toml:"command"`
	ExpectedExitCode    *int   `toml:"expected_exit_code"`
	ExpectedStdoutRegex string `toml:"expected_stdout_regex"`
	Timeout             string `toml:"timeout"`
	Retries             uint   `toml:"retries"`
}

type countConstraintDoc struct {
	Pattern string `toml:"pattern"`
	Eq      *int64 `toml:"eq"`
	Gte     *int64 `toml:"gte"`
	Lte     *int64 `toml:"lte"`
}

type countsDoc struct {
	SpansTotal *countConstraintDoc  `toml:"spans_total"`
	ByName     []countConstraintDoc `toml:"by_name"`
}

type orderDoc struct {
	MustPrecede [][]string `toml:"must_precede"`
	MustFollow  [][]string `toml:"must_follow"`
}

type statusDoc struct {
	All    string            `toml:"all"`
	ByName map[string]string `toml:"by_name"`
}

type graphDoc struct {
	MustInclude [][]string `toml:"must_include"`
	Acyclic     bool       `toml:"acyclic"`
}

type windowDoc struct {
	Outer    string   `toml:"outer"`
	Contains []string `toml:"contains"`
}

type resourceAttrsDoc struct {
	MustMatch map[string]string `toml:"must_match"`
}

type spanAttrsDoc struct {
	ForbidKeys []string `toml:"forbid_keys"`
}

type hermeticityDoc struct {
	NoExternalServices bool              `toml:"no_external_services"`
	ResourceAttrs      *resourceAttrsDoc `toml:"resource_attrs"`
	SpanAttrs          *spanAttrsDoc     `toml:"span_attrs"`
}

type spanAssertionDoc struct {
	Name          string            `toml:"name"`
	Attributes    map[string]string `toml:"attributes"`
	DurationMinMs *int64            `toml:"duration_min_ms"`
	DurationMaxMs *int64            `toml:"duration_max_ms"`
	Required      bool              `toml:"required"`
}

type expectDoc struct {
	Counts      *countsDoc        `toml:"counts"`
	Order       *orderDoc         `toml:"order"`
	Status      *statusDoc        `toml:"status"`
	Graph       *graphDoc         `toml:"graph"`
	Window      []windowDoc       `toml:"window"`
	Hermeticity *hermeticityDoc   `toml:"hermeticity"`
	Spans       []spanAssertionDoc `toml:"spans"`
}

type reportDoc struct {
	JSON   string `toml:"json"`
	JUnit  string `toml:"junit"`
	Digest string `toml:"digest"`
}

type determinismDoc struct {
	Seed        *int64 `toml:"seed"`
	FreezeClock string `toml:"freeze_clock"`
}

type limitsDoc struct {
	TemplateBytes   int64  `toml:"template_bytes"`
	StepTimeoutMs   int64  `toml:"step_timeout_ms"`
	ScenarioTimeout string `toml:"scenario_timeout"`
}
