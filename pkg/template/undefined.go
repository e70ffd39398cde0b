package template

import (
	"regexp"
	"sort"
	"strings"

	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// pongo2 resolves a missing variable to an empty value and renders it as an
// empty string rather than erroring -- convenient for Django templates, but
// spec.md section 4.3 requires an undefined lookup to be fatal. pongo2 has
// no strict-undefined switch, so this file pre-validates every {{ }} output
// expression and {% if/elif %} condition against the render context before
// Execute ever runs, catching the same class of mistake a step earlier and
// with a source location attached.
var (
	exprTagRe  = regexp.MustCompile(`\{\{-?\s*(.*?)\s*-?\}\}`)
	condTagRe  = regexp.MustCompile(`\{%-?\s*(?:if|elif)\s+(.*?)\s*-?%\}`)
	forTagRe   = regexp.MustCompile(`\{%-?\s*for\s+([A-Za-z_]\w*)\s*(?:,\s*([A-Za-z_]\w*))?\s+in\b`)
	withTagRe  = regexp.MustCompile(`\{%-?\s*with\s+(.*?)-?%\}`)
	macroTagRe = regexp.MustCompile(`\{%-?\s*macro\s+[A-Za-z_]\w*\s*\(([^)]*)\)`)
	importAsRe = regexp.MustCompile(`\{%-?\s*import\s+.*?\bas\s+([A-Za-z_]\w*)`)
	assignRe   = regexp.MustCompile(`([A-Za-z_][A-Za-z0-9_]*)\s*=`)
	quotedRe   = regexp.MustCompile(`"[^"]*"|'[^']*'`)
	identRe    = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*`)
)

// exprKeywords are tokens that can appear inside a {{ }} or {% if %} body
// without being a variable reference: boolean operators, literals, and the
// loop-scoped names pongo2 injects automatically inside a {% for %} block.
var exprKeywords = map[string]bool{
	"and": true, "or": true, "not": true, "in": true, "is": true,
	"true": true, "false": true, "none": true,
	"True": true, "False": true, "None": true,
	"forloop": true, "loop": true,
}

// checkUndefinedVars reports the first variable referenced in text that is
// neither a key of known (the fully assembled render context) nor a name
// bound locally by a {% for %}, {% with %}, {% macro %} or {% import as %}
// tag. Bindings are collected over the whole document before any expression
// is checked, so a variable's scope within a block is approximated rather
// than tracked precisely -- deliberately permissive, since a false "missing"
// is worse here than letting a narrowly out-of-scope name through.
func checkUndefinedVars(text string, known map[string]bool, filename string) error {
	bound := map[string]bool{}
	for _, m := range forTagRe.FindAllStringSubmatch(text, -1) {
		if m[1] != "" {
			bound[m[1]] = true
		}
		if m[2] != "" {
			bound[m[2]] = true
		}
	}
	for _, m := range withTagRe.FindAllStringSubmatch(text, -1) {
		for _, am := range assignRe.FindAllStringSubmatch(m[1], -1) {
			bound[am[1]] = true
		}
	}
	for _, m := range macroTagRe.FindAllStringSubmatch(text, -1) {
		for _, p := range strings.Split(m[1], ",") {
			name := strings.TrimSpace(strings.SplitN(p, "=", 2)[0])
			if name != "" {
				bound[name] = true
			}
		}
	}
	for _, m := range importAsRe.FindAllStringSubmatch(text, -1) {
		bound[m[1]] = true
	}

	for _, loc := range exprLocations(text) {
		if err := checkExprUndefined(text, loc, known, bound, filename); err != nil {
			return err
		}
	}
	return nil
}

type exprLoc struct {
	bodyStart int
	body      string
}

func exprLocations(text string) []exprLoc {
	var locs []exprLoc
	for _, re := range []*regexp.Regexp{exprTagRe, condTagRe} {
		for _, idx := range re.FindAllStringSubmatchIndex(text, -1) {
			locs = append(locs, exprLoc{bodyStart: idx[2], body: text[idx[2]:idx[3]]})
		}
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].bodyStart < locs[j].bodyStart })
	return locs
}

func checkExprUndefined(text string, loc exprLoc, known, bound map[string]bool, filename string) error {
	stripped := quotedRe.ReplaceAllStringFunc(loc.body, func(s string) string { return strings.Repeat(" ", len(s)) })
	for _, idx := range identRe.FindAllStringIndex(stripped, -1) {
		start, end := idx[0], idx[1]
		if start > 0 {
			switch stripped[start-1] {
			case '.', '|':
				continue // attribute access or filter name, not a variable
			}
		}
		name := stripped[start:end]
		if exprKeywords[name] || known[name] || bound[name] {
			continue
		}
		abs := loc.bodyStart + start
		line, col := lineCol(text, abs)
		return errlog.New(errlog.Template, "undefined variable %q", name).With("%s:%d:%d", displayFilename(filename), line, col)
	}
	return nil
}

func displayFilename(filename string) string {
	if filename == "" {
		return "<template>"
	}
	return filename
}

func lineCol(text string, offset int) (line, col int) {
	line, col = 1, 1
	for i := 0; i < offset && i < len(text); i++ {
		if text[i] == '\n' {
			line++
			col = 1
		} else {
			col++
		}
	}
	return line, col
}
