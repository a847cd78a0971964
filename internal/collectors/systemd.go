// Copyright (c) 2025 Michael D Henderson. All rights reserved.

package collectors

import (
	"context"
	"fmt"
	"strings"
)

// SystemdServiceCollector shells out to `systemctl show` for one unit's
// load/active/sub state.
type SystemdServiceCollector struct {
	Runner *CommandRunner
}

// NewSystemdServiceCollector returns a collector whose runner already has
// "systemctl" whitelisted.
func NewSystemdServiceCollector(runner *CommandRunner) *SystemdServiceCollector {
	runner.Allow("systemctl")
	return &SystemdServiceCollector{Runner: runner}
}

// Collect expects a "service_name" parameter.
func (c *SystemdServiceCollector) Collect(params map[string]string) ([]map[string]any, error) {
	unit, ok := params["service_name"]
	if !ok || unit == "" {
		return nil, fmt.Errorf("collectors: systemd collector requires a \"service_name\" field")
	}
	out, exitCode, err := c.Runner.Run(context.Background(), "systemctl", "show", unit,
		"--property=LoadState,ActiveState,SubState,UnitFileState")
	if err != nil {
		return nil, err
	}
	if exitCode != 0 {
		return nil, fmt.Errorf("collectors: systemctl show %q exited %d", unit, exitCode)
	}
	props := map[string]string{}
	for _, line := range strings.Split(out, "\n") {
		k, v, found := strings.Cut(line, "=")
		if found {
			props[k] = v
		}
	}
	return []map[string]any{{
		"service_name":    unit,
		"load_state":      props["LoadState"],
		"active_state":    props["ActiveState"],
		"sub_state":       props["SubState"],
		"unit_file_state": props["UnitFileState"],
		"enabled":         props["UnitFileState"] == "enabled",
		"running":         props["ActiveState"] == "active",
	}}, nil
}
