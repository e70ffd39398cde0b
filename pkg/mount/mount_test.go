package mount

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cleanroom-dev/cleanroom/pkg/config"
)

func TestNewRejectsRelativePaths(t *testing.T) {
	_, err := New(config.VolumeSpec{HostPath: "relative", ContainerPath: "/data"}, PermissivePolicy())
	if err == nil {
		t.Fatal("expected an error for a relative host_path")
	}
}

func TestNewRejectsMissingPath(t *testing.T) {
	_, err := New(config.VolumeSpec{HostPath: "/no/such/dir", ContainerPath: "/data"}, PermissivePolicy())
	if err == nil {
		t.Fatal("expected an error for a host_path that doesn't exist")
	}
}

func TestNewAllowsPathInsideWhitelistedRoot(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "fixtures")
	if err := os.Mkdir(sub, 0o755); err != nil {
		t.Fatal(err)
	}

	mnt, err := New(config.VolumeSpec{HostPath: sub, ContainerPath: "/data", ReadOnly: true}, NewPolicy([]string{dir}))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if mnt.ContainerPath != "/data" || !mnt.ReadOnly {
		t.Errorf("New() = %+v", mnt)
	}
}

func TestNewRejectsPathOutsideWhitelist(t *testing.T) {
	dir := t.TempDir()
	other := t.TempDir()

	_, err := New(config.VolumeSpec{HostPath: other, ContainerPath: "/data"}, NewPolicy([]string{dir}))
	if err == nil {
		t.Fatal("expected an error for a host_path outside every whitelisted root")
	}
}

func TestPermissivePolicyAllowsAnything(t *testing.T) {
	dir := t.TempDir()
	mnt, err := New(config.VolumeSpec{HostPath: dir, ContainerPath: "/data"}, PermissivePolicy())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if mnt.HostPath == "" {
		t.Error("expected resolved host path to be set")
	}
}
