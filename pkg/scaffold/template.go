/*
Copyright 2018 Heptio Inc.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package scaffold is `cleanroom init`'s static file generator. It
// deliberately uses text/template rather than pkg/template's pongo2
// engine: init only ever stamps out Cleanroom's own trusted scaffolding,
// never user-supplied Tera markup, so the simpler stdlib templating is the
// right tool here, same separation the teacher draws between its
// text/template manifest rendering and any user-facing template language.
package scaffold

import (
	"strings"
	"text/template"
)

// TemplateFuncs exports the functions available inside scaffold templates.
var TemplateFuncs = map[string]interface{}{
	"indent": func(i int, input string) string {
		split := strings.Split(input, "\n")
		indent := "\n" + strings.Repeat(" ", i)
		return strings.Join(split, indent)
	},
}

// NewTemplate declares a new scaffold template with TemplateFuncs in scope.
func NewTemplate(name, tmpl string) *template.Template {
	return template.Must(template.New(name).Funcs(TemplateFuncs).Parse(tmpl))
}
