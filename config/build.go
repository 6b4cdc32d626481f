// Copyright 2025, the XEO OS contributors
// SPDX-License-Identifier: AGPL-3.0-only

package config

import (
	"runtime/debug"
	"strings"
)

// BuildVersion is the latest tagged release of XEO.
const BuildVersion string = "v0.4.0"

// shortRevisionLen is how much of the commit hash /healthz and the startup
// log show.
const shortRevisionLen = 8

// buildInfo is the VCS stamp the Go toolchain embeds in the binary.
type buildInfo struct {
	VcsRevision string
	VcsTime     string
	VcsModified bool
}

// Revision renders the stamp as "<commit date>-<short hash>[+dirty]", or
// "unknown" for builds without VCS information.
func (b *buildInfo) Revision() string {
	if b.VcsRevision == "" {
		return "unknown"
	}

	rev := b.VcsRevision
	if len(rev) > shortRevisionLen {
		rev = rev[:shortRevisionLen]
	}

	if date, _, _ := strings.Cut(b.VcsTime, "T"); date != "" {
		rev = date + "-" + rev
	}

	if b.VcsModified {
		rev += "+dirty"
	}

	return rev
}

func (b *buildInfo) load() {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return
	}

	b.fromSettings(info.Settings)
}

func (b *buildInfo) fromSettings(settings []debug.BuildSetting) {
	for _, s := range settings {
		switch s.Key {
		case "vcs.revision":
			b.VcsRevision = s.Value
		case "vcs.time":
			b.VcsTime = s.Value
		case "vcs.modified":
			b.VcsModified = s.Value == "true"
		}
	}
}
