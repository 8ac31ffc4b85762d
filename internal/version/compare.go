package version

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	"github.com/rxtech-lab/argo-macd/pkg/errors"
)

// CheckResultCompatibility reports whether a result file written by
// resultVersion can be read by an engine at currentVersion.
//
// Rules:
//   - "main" on either side skips the check
//   - major versions must match
//   - the result's minor version must not be newer than the engine's
//   - patch versions are ignored
//
// Examples:
//   - engine 1.2.0, result 1.2.7 -> OK
//   - engine 1.3.0, result 1.2.0 -> OK (older result)
//   - engine 1.2.0, result 1.3.0 -> ERROR (result is newer)
//   - engine 2.0.0, result 1.9.0 -> ERROR (major differs)
func CheckResultCompatibility(currentVersion, resultVersion string) error {
	currentVersion = strings.TrimPrefix(currentVersion, "v")
	resultVersion = strings.TrimPrefix(resultVersion, "v")

	if currentVersion == "main" || resultVersion == "main" {
		return nil
	}

	current, err := semver.NewVersion(currentVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid engine version '%s'", currentVersion)
	}

	result, err := semver.NewVersion(resultVersion)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidVersion, err, "invalid result version '%s'", resultVersion)
	}

	if current.Major() != result.Major() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"major version mismatch: engine is %d.x.x but result was written by %d.x.x",
			current.Major(), result.Major())
	}

	if result.Minor() > current.Minor() {
		return errors.Newf(errors.ErrCodeVersionMismatch,
			"result was written by a newer engine: %d.%d.x is newer than %d.%d.x",
			result.Major(), result.Minor(), current.Major(), current.Minor())
	}

	return nil
}
