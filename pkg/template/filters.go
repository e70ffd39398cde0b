package template

import (
	"encoding/base64"

	"github.com/flosch/pongo2/v6"
)

// init registers the two filters the Tera dialect adds on top of pongo2's
// own built-ins (which already cover `upper`/`lower` -- see spec.md
// section 4.3's filter list). Filters are process-global in pongo2, so this
// runs once regardless of how many Engine values get created.
func init() {
	mustRegisterFilter("sha256", filterSHA256)
	mustRegisterFilter("base64", filterBase64)
}

func mustRegisterFilter(name string, fn pongo2.FilterFunction) {
	if err := pongo2.RegisterFilter(name, fn); err != nil {
		panic("template: registering filter " + name + ": " + err.Error())
	}
}

func filterSHA256(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(sha256Hex([]byte(in.String()))), nil
}

func filterBase64(in, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	return pongo2.AsValue(base64.StdEncoding.EncodeToString([]byte(in.String()))), nil
}
