// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package gwserver

import (
	"bufio"
	"os/exec"
	"strings"
)

// GitStatus is the porcelain-v1 summary of a working tree.
type GitStatus struct {
	Branch string        `json:"branch"`
	Clean  bool          `json:"clean"`
	Files  []GitFileStat `json:"files"`
}

// GitFileStat is one changed path from `git status --porcelain`.
type GitFileStat struct {
	Path string `json:"path"`
	XY   string `json:"xy"`
}

func gitPorcelainStatus(dir string) GitStatus {
	status := GitStatus{Clean: true}

	branchOut, err := exec.Command("git", "-C", dir, "rev-parse", "--abbrev-ref", "HEAD").Output()
	if err == nil {
		status.Branch = strings.TrimSpace(string(branchOut))
	}

	out, err := exec.Command("git", "-C", dir, "status", "--porcelain").Output()
	if err != nil {
		return status
	}

	scanner := bufio.NewScanner(strings.NewReader(string(out)))
	for scanner.Scan() {
		line := scanner.Text()
		if len(line) < 4 {
			continue
		}
		status.Files = append(status.Files, GitFileStat{XY: line[:2], Path: strings.TrimSpace(line[3:])})
		status.Clean = false
	}
	return status
}
