package version

import (
	"fmt"
	"strings"

	"github.com/Masterminds/semver/v3"
)

// CheckFileCompatibility checks whether a file written by version writtenBy can be read
// by a build at version current. Returns nil if it can, an error with details if not.
//
// Compatibility Rules:
//   - If either version is "main" (development build), the check is skipped
//   - Major versions must match exactly
//   - Files from a newer minor version are rejected, they may carry fields this build drops
//   - Older minor versions and any patch version are accepted
//
// Examples:
//   - Current 1.2.0, file 1.2.0 -> OK
//   - Current 1.3.0, file 1.2.4 -> OK (older minor)
//   - Current 1.2.0, file 1.3.0 -> ERROR (newer minor)
//   - Current 2.0.0, file 1.2.0 -> ERROR (major differs)
//   - Current main, file 1.2.0 -> OK (dev build, skip check)
func CheckFileCompatibility(current, writtenBy string) error {
	current = strings.TrimPrefix(current, "v")
	writtenBy = strings.TrimPrefix(writtenBy, "v")

	if current == "main" || writtenBy == "main" {
		return nil
	}

	currentSemver, err := semver.NewVersion(current)
	if err != nil {
		return fmt.Errorf("invalid current version '%s': %w", current, err)
	}

	fileSemver, err := semver.NewVersion(writtenBy)
	if err != nil {
		return fmt.Errorf("invalid file version '%s': %w", writtenBy, err)
	}

	if currentSemver.Major() != fileSemver.Major() {
		return fmt.Errorf("major version mismatch: running %d.x.x but file was written by %d.x.x",
			currentSemver.Major(), fileSemver.Major())
	}

	if fileSemver.Minor() > currentSemver.Minor() {
		return fmt.Errorf("file was written by a newer version: running %d.%d.x but file requires %d.%d.x",
			currentSemver.Major(), currentSemver.Minor(),
			fileSemver.Major(), fileSemver.Minor())
	}

	return nil
}
