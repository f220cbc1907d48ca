// Package deps builds the third-party libraries SCONE links against
// (OpenSceneGraph, Simbody, OpenSim) and SCONE itself with CMake, and
// installs the system packages the build needs.
//
// Sources live under <root>/submodules (SCONE under <root>/scone); every
// component gets <root>/dependencies/<name>/{build,install}. A component
// whose install directory exists is considered built and skipped unless a
// rebuild is forced. SCONE itself always rebuilds.
package deps

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Target selects what Builder.Build does.
type Target string

// Build targets
const (
	TargetDeps    Target = "deps"
	TargetOSG     Target = "osg"
	TargetSimbody Target = "simbody"
	TargetOpenSim Target = "opensim"
	TargetSCONE   Target = "scone"
	TargetAll     Target = "all"
)

// Targets lists every valid target in display order.
func Targets() []Target {
	return []Target{TargetDeps, TargetOSG, TargetSimbody, TargetOpenSim, TargetSCONE, TargetAll}
}

// ParseTarget validates a target name.
func ParseTarget(s string) (Target, error) {
	t := Target(strings.ToLower(strings.TrimSpace(s)))
	for _, valid := range Targets() {
		if t == valid {
			return t, nil
		}
	}
	names := make([]string, 0, len(Targets()))
	for _, v := range Targets() {
		names = append(names, string(v))
	}
	return "", fmt.Errorf("invalid target %q, must be one of: %s", s, strings.Join(names, ", "))
}

// component is one CMake project.
type component struct {
	name    string
	display string
	// fixed components are pinned submodules and can be skipped once installed
	fixed bool
}

var components = []component{
	{name: "osg", display: "OSG", fixed: true},
	{name: "simbody", display: "Simbody", fixed: true},
	{name: "opensim", display: "OpenSim", fixed: true},
	{name: "scone", display: "SCONE", fixed: false},
}

func lookupComponent(name string) (component, bool) {
	for _, c := range components {
		if c.name == name {
			return c, true
		}
	}
	return component{}, false
}

// Layout locates sources and build trees under a root directory.
type Layout struct {
	Root         string
	Submodules   string
	Dependencies string
	sources      map[string]string
}

// NewLayout returns the standard layout rooted at root.
func NewLayout(root string) Layout {
	sub := filepath.Join(root, "submodules")
	return Layout{
		Root:         root,
		Submodules:   sub,
		Dependencies: filepath.Join(root, "dependencies"),
		sources: map[string]string{
			"osg":     filepath.Join(sub, "OpenSceneGraph"),
			"simbody": filepath.Join(sub, "simbody"),
			"opensim": filepath.Join(sub, "opensim3-scone"),
			"scone":   filepath.Join(root, "scone"),
		},
	}
}

// Source returns the CMake source directory of a component.
func (l Layout) Source(name string) string {
	return l.sources[name]
}

// DepDir returns dependencies/<name>.
func (l Layout) DepDir(name string) string {
	return filepath.Join(l.Dependencies, name)
}

// BuildDir returns dependencies/<name>/build.
func (l Layout) BuildDir(name string) string {
	return filepath.Join(l.DepDir(name), "build")
}

// InstallDir returns dependencies/<name>/install.
func (l Layout) InstallDir(name string) string {
	return filepath.Join(l.DepDir(name), "install")
}

// Components returns the component names in build order.
func (l Layout) Components() []string {
	names := make([]string, 0, len(components))
	for _, c := range components {
		names = append(names, c.name)
	}
	return names
}
