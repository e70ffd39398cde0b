// Package mount validates bind-mount volumes before a service container is
// started (spec.md section 4.5): host paths must be absolute, must exist,
// and must resolve (after following symlinks) inside a policy-approved set
// of roots, so a scenario file can't bind-mount an arbitrary host path a
// test author never intended to expose.
package mount

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
	"github.com/cleanroom-dev/cleanroom/pkg/errlog"
)

// VolumeMount is a validated, canonicalized bind mount, ready to hand to a
// ContainerBackend. Unlike config.VolumeSpec, HostPath here is guaranteed
// absolute, symlink-resolved, and policy-approved.
type VolumeMount struct {
	HostPath      string
	ContainerPath string
	ReadOnly      bool
}

// New validates spec against policy and returns the canonical VolumeMount,
// or a Security-kind error describing exactly why the mount was rejected.
func New(spec config.VolumeSpec, policy *Policy) (VolumeMount, error) {
	if !filepath.IsAbs(spec.HostPath) {
		return VolumeMount{}, errlog.New(errlog.Security, "host_path %q must be an absolute path", spec.HostPath)
	}
	if !filepath.IsAbs(spec.ContainerPath) {
		return VolumeMount{}, errlog.New(errlog.Security, "container_path %q must be an absolute path", spec.ContainerPath)
	}
	if strings.Contains(filepath.Clean(spec.HostPath), "..") {
		return VolumeMount{}, errlog.New(errlog.Security, "host_path %q must not contain '..' segments", spec.HostPath)
	}

	resolved, err := filepath.EvalSymlinks(spec.HostPath)
	if err != nil {
		if os.IsNotExist(err) {
			return VolumeMount{}, errlog.New(errlog.Security, "host_path %q does not exist", spec.HostPath)
		}
		return VolumeMount{}, errlog.Wrap(errlog.Security, err, "resolving host_path %q", spec.HostPath)
	}

	if policy != nil && !policy.Allows(resolved) {
		return VolumeMount{}, errlog.New(errlog.Security,
			"host_path %q (resolved to %q) is outside every allowed root", spec.HostPath, resolved).
			With("allowed roots: %s", strings.Join(policy.Roots, ", "))
	}

	return VolumeMount{
		HostPath:      resolved,
		ContainerPath: filepath.Clean(spec.ContainerPath),
		ReadOnly:      spec.ReadOnly,
	}, nil
}

// Policy is a whitelist of host directories bind mounts may resolve inside.
// DefaultPolicy permits the system temp dir and the current working
// directory, which covers the common case of mounting fixtures checked in
// next to the scenario file; a Policy with no Roots and Permissive unset
// permits nothing.
type Policy struct {
	Roots      []string
	Permissive bool // if true, Allows always returns true (explicit opt-out)
}

// DefaultPolicy permits mounts rooted under os.TempDir() and the process's
// current working directory.
func DefaultPolicy() *Policy {
	roots := []string{os.TempDir()}
	if cwd, err := os.Getwd(); err == nil {
		roots = append(roots, cwd)
	}
	return &Policy{Roots: canonicalizeRoots(roots)}
}

// NewPolicy builds a whitelist policy from the given roots, canonicalizing
// each (symlink resolution) so later comparisons are apples to apples.
func NewPolicy(roots []string) *Policy {
	return &Policy{Roots: canonicalizeRoots(roots)}
}

// PermissivePolicy disables the whitelist entirely. Scenarios that need it
// must opt in explicitly (spec.md section 7: security checks fail closed by
// default).
func PermissivePolicy() *Policy {
	return &Policy{Permissive: true}
}

// Allows reports whether resolvedPath (already symlink-resolved) falls
// inside one of the policy's roots.
func (p *Policy) Allows(resolvedPath string) bool {
	if p.Permissive {
		return true
	}
	for _, root := range p.Roots {
		if resolvedPath == root || strings.HasPrefix(resolvedPath, root+string(filepath.Separator)) {
			return true
		}
	}
	return false
}

func canonicalizeRoots(roots []string) []string {
	out := make([]string, 0, len(roots))
	for _, r := range roots {
		if resolved, err := filepath.EvalSymlinks(r); err == nil {
			out = append(out, resolved)
		} else {
			out = append(out, filepath.Clean(r))
		}
	}
	return out
}
