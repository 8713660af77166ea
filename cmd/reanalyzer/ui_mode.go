package main

import (
	"fmt"
	"strings"
)

// progressMode is the --ui setting for the analyze progress view.
type progressMode uint8

const (
	progressAuto progressMode = iota
	progressOn
	progressOff
)

func parseProgressMode(value string) (progressMode, error) {
	switch strings.TrimSpace(strings.ToLower(value)) {
	case "", "auto":
		return progressAuto, nil
	case "on", "true", "1":
		return progressOn, nil
	case "off", "false", "0":
		return progressOff, nil
	}
	return progressAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// progressEnv is what auto mode looks at. The view draws on stderr.
type progressEnv struct {
	JSON         bool
	Quiet        bool
	StderrIsTTY  bool
	CI           bool
	DumbTerminal bool
}

// enabled decides whether to draw the view. JSON and --quiet runs never
// get one; "on" forces it otherwise.
func (m progressMode) enabled(env progressEnv) bool {
	if env.JSON || env.Quiet {
		return false
	}
	switch m {
	case progressOn:
		return true
	case progressOff:
		return false
	}
	return env.StderrIsTTY && !env.CI && !env.DumbTerminal
}
