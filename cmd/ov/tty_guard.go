package main

import (
	"os"
	"strings"
)

// init runs before the TUI packages probe the terminal. Lipgloss background
// detection writes OSC/DSR queries to stdout, which corrupts JSON consumed by
// scripts. Non-interactive invocations set CI=1 so termenv skips the probe.
func init() {
	if os.Getenv("CI") != "" {
		return
	}
	if !suppressTTYQueries(os.Args, os.Getenv("OV_ROBOT") == "1", os.Getenv("OV_TEST_MODE") != "") {
		return
	}
	_ = os.Setenv("CI", "1")
}

func suppressTTYQueries(args []string, envRobot, envTest bool) bool {
	if envRobot || envTest {
		return true
	}
	for _, arg := range args {
		if strings.HasPrefix(arg, "--robot-") || strings.HasPrefix(arg, "-robot-") {
			return true
		}
		switch arg {
		case "--version", "-version", "--help", "-help", "--check-sources", "-check-sources":
			return true
		}
	}
	return false
}
