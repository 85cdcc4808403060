// Copyright 2026 The Pegasus Authors
// SPDX-License-Identifier: Apache-2.0

package launchdef

import (
	"fmt"
	"regexp"

	"github.com/pegasus-robotics/pegasus/lib/config"
)

var packageSharePattern = regexp.MustCompile(`\$\(\s*find-pkg-share\s+([^)\s]+)\s*\)`)

// HasPackageShares reports whether text contains $(find-pkg-share pkg).
func HasPackageShares(text string) bool {
	return packageSharePattern.MatchString(text)
}

// ExpandPackageShares replaces every $(find-pkg-share pkg) in text with
// the package's share directory under cfg's prefixes. An unknown package
// is an error naming it.
func ExpandPackageShares(text string, cfg *config.Config) (string, error) {
	var expandErr error
	result := packageSharePattern.ReplaceAllStringFunc(text, func(match string) string {
		if expandErr != nil {
			return match
		}
		pkg := packageSharePattern.FindStringSubmatch(match)[1]
		share, err := cfg.SharePath(pkg)
		if err != nil {
			expandErr = fmt.Errorf("expanding %s: %w", match, err)
			return match
		}
		return share
	})
	if expandErr != nil {
		return "", expandErr
	}
	return result, nil
}
