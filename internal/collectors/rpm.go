// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package collectors

import (
	"context"
	"fmt"
	"strings"
)

// rpmQueryFormat asks rpm for exactly the fields rpm_package's contract
// declares, tab-separated so a missing package (rpm's "package foo is not
// installed" on stderr, empty stdout) is unambiguous.
const rpmQueryFormat = "%{NAME}\t%{EPOCH}\t%{VERSION}\t%{RELEASE}\t%{ARCH}\n"

// RpmPackageCollector shells out to `rpm -q` for one package's
// installation status and epoch:version-release.
type RpmPackageCollector struct {
	Runner *CommandRunner
}

// NewRpmPackageCollector returns a collector whose runner already has
// "rpm" whitelisted.
func NewRpmPackageCollector(runner *CommandRunner) *RpmPackageCollector {
	runner.Allow("rpm")
	return &RpmPackageCollector{Runner: runner}
}

// Collect expects a "package_name" parameter.
func (c *RpmPackageCollector) Collect(params map[string]string) ([]map[string]any, error) {
	name, ok := params["package_name"]
	if !ok || name == "" {
		return nil, fmt.Errorf("collectors: rpm collector requires a \"package_name\" field")
	}
	out, exitCode, err := c.Runner.Run(context.Background(), "rpm", "-q", "--qf", rpmQueryFormat, name)
	if err != nil {
		return nil, err
	}
	if exitCode != 0 {
		return []map[string]any{{
			"package_name": name,
			"installed":    false,
		}}, nil
	}
	line := strings.TrimSpace(strings.SplitN(out, "\n", 2)[0])
	fields := strings.Split(line, "\t")
	if len(fields) != 5 {
		return nil, fmt.Errorf("collectors: unexpected rpm -q output for %q: %q", name, out)
	}
	epoch := fields[1]
	if epoch == "(none)" {
		epoch = "0"
	}
	evr := fields[3]
	if epoch != "0" {
		evr = epoch + ":" + fields[2] + "-" + fields[3]
	} else {
		evr = fields[2] + "-" + fields[3]
	}
	return []map[string]any{{
		"package_name": fields[0],
		"installed":    true,
		"version":      fields[2],
		"release":      fields[3],
		"arch":         fields[4],
		"evr":          evr,
	}}, nil
}
