package binding

import "github.com/Masterminds/semver/v3"

// defaultBuildVersion is what BuildVersion reports for a module whose
// build version was never set; NewModule does not stamp one.
var defaultBuildVersion = semver.MustParse("0.0.0")

// BuildVersion returns the module's stamped build version (defaulting to
// 0.0.0 for a module that never had one set), the same kind of version
// comparison the teacher's internal/packagemanager performs against
// dependency constraints via this library — here scoped to a single
// module's own build metadata rather than a whole dependency graph.
func (m *Module) BuildVersion() *semver.Version {
	if m.buildVersion == nil {
		return defaultBuildVersion
	}

	return m.buildVersion
}

// SetBuildVersion stamps an explicit build version on the module, parsing
// a raw string with the same library the teacher's dependency resolver
// uses for every other version comparison in the codebase.
func (m *Module) SetBuildVersion(raw string) error {
	v, err := semver.NewVersion(raw)
	if err != nil {
		return err
	}

	m.buildVersion = v

	return nil
}

// SatisfiesConstraint reports whether m's build version satisfies a
// semver constraint expression (e.g. ">= 1.2.0, < 2.0.0"), letting a host
// runtime gate `using`/`import` of a module on compatible build versions
// the same way the teacher gates a dependency resolution.
func (m *Module) SatisfiesConstraint(expr string) (bool, error) {
	c, err := semver.NewConstraint(expr)
	if err != nil {
		return false, err
	}

	return c.Check(m.BuildVersion()), nil
}
