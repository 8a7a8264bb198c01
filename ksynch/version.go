package ksynch

import (
	"fmt"

	"golang.org/x/mod/semver"
)

// Version information for ksynch.
const (
	// Version is the current release.
	Version = "0.1.0"

	// VersionMajor is the major version number.
	VersionMajor = 0

	// VersionMinor is the minor version number.
	VersionMinor = 1

	// VersionPatch is the patch version number.
	VersionPatch = 0
)

// Info describes the build.
type Info struct {
	// Version is the release string without the leading "v".
	Version string

	// Policies lists the supported lock policies.
	Policies []string

	// Priorities is the priority range, low to high.
	Priorities [2]int
}

// GetInfo returns information about this build.
//
// Example:
//
//	info := ksynch.GetInfo()
//	fmt.Printf("ksynch %s (%v)\n", info.Version, info.Policies)
func GetInfo() Info {
	return Info{
		Version:    Version,
		Policies:   []string{PolicyDonation.String(), PolicyMLFQS.String()},
		Priorities: [2]int{PriMin, PriMax},
	}
}

// Compatible reports whether this build satisfies a caller that requires
// version required ("v0.1", "v0.1.0", "0.1.0"). Versions are compatible when
// they share the major version and this build is not older.
func Compatible(required string) (bool, error) {
	if required != "" && required[0] != 'v' {
		required = "v" + required
	}
	if !semver.IsValid(required) {
		return false, fmt.Errorf("ksynch: invalid version %q", required)
	}
	have := "v" + Version
	if semver.Major(have) != semver.Major(required) {
		return false, nil
	}
	return semver.Compare(have, required) >= 0, nil
}
