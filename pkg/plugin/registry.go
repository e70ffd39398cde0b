// Package plugin is Cleanroom's registry of service drivers: the handful
// of ways a [config.ServiceSpec] can be realized beyond "pull this image
// and run it" (spec.md section 3's service.plugin field). It replaces the
// teacher's Kubernetes plugin-dispatch system (Interface/aggregation
// server/daemonset-or-job driver) with something that fits a single-host,
// container-per-service model: a driver is just a name and a description
// `cleanroom plugins` can list, with room to grow into more than the
// built-in "container" driver without touching pkg/service or pkg/executor.
package plugin

import "sort"

// Driver describes one way of realizing a service. Cleanroom ships exactly
// one today ("container", the default when ServiceSpec.PluginID is empty);
// the registry exists so a scenario author can discover what's available
// without reading source.
type Driver struct {
	Name        string
	Description string
}

var builtins = map[string]Driver{
	"container": {
		Name:        "container",
		Description: "runs the service as a single container via the configured backend (default)",
	},
}

// List returns every registered driver, sorted by name.
func List() []Driver {
	out := make([]Driver, 0, len(builtins))
	for _, d := range builtins {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Lookup returns the driver registered under name, if any. An empty name
// resolves to the "container" default, matching ServiceSpec.PluginID's
// documented zero-value behavior.
func Lookup(name string) (Driver, bool) {
	if name == "" {
		name = "container"
	}
	d, ok := builtins[name]
	return d, ok
}
