package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckVersionCompatibility checks whether a binary can open data written by
// another version. Returns nil if compatible, error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - Minor versions must match exactly
//   - Patch versions can differ (e.g., 0.4.0 reads a store written by 0.4.2)
//
// Examples:
//   - Binary 0.4.0, Store 0.4.0 -> OK
//   - Binary 0.4.1, Store 0.4.0 -> OK (patch differs)
//   - Binary 0.5.0, Store 0.4.0 -> ERROR (minor differs)
//   - Binary main, Store 0.4.0 -> OK (dev build)
func CheckVersionCompatibility(binaryVersion, storeVersion string) error {
	binaryVersion = strings.TrimPrefix(binaryVersion, "v")
	storeVersion = strings.TrimPrefix(storeVersion, "v")

	if binaryVersion == "main" || storeVersion == "main" {
		return nil
	}

	binarySemver, err := semver.NewVersion(binaryVersion)
	if err != nil {
		return fmt.Errorf("invalid binary version '%s': %w", binaryVersion, err)
	}

	storeSemver, err := semver.NewVersion(storeVersion)
	if err != nil {
		return fmt.Errorf("invalid store version '%s': %w", storeVersion, err)
	}

	if binarySemver.Major() != storeSemver.Major() {
		return fmt.Errorf("major version mismatch: binary is %d.x.x but store was written by %d.x.x",
			binarySemver.Major(), storeSemver.Major())
	}

	if binarySemver.Minor() != storeSemver.Minor() {
		return fmt.Errorf("minor version mismatch: binary is %d.%d.x but store was written by %d.%d.x",
			binarySemver.Major(), binarySemver.Minor(),
			storeSemver.Major(), storeSemver.Minor())
	}

	return nil
}
