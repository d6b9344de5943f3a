package cli

import (
	"runtime/debug"
	"strings"
)

const (
	devVersion         = "dev"
	goDevelMainVersion = "(devel)"
	vcsRevisionKey     = "vcs.revision"
	vcsModifiedKey     = "vcs.modified"
	shortRevisionLen   = 12
)

var readBuildInfo = debug.ReadBuildInfo

// ResolveVersion returns raw when it was injected at build time, otherwise
// the module version or VCS revision recorded by the Go toolchain.
func ResolveVersion(raw string) string {
	return resolvedVersion(raw)
}

func resolvedVersion(raw string) string {
	if v := strings.TrimSpace(raw); v != "" && v != devVersion {
		return v
	}
	info, ok := readBuildInfo()
	if !ok || info == nil {
		return devVersion
	}
	if v := strings.TrimSpace(info.Main.Version); v != "" && v != goDevelMainVersion {
		return v
	}
	if v := vcsVersion(info.Settings); v != "" {
		return v
	}
	return devVersion
}

// vcsVersion renders a short revision, suffixed with -dirty for builds from a
// modified tree.
func vcsVersion(settings []debug.BuildSetting) string {
	values := make(map[string]string, len(settings))
	for _, s := range settings {
		values[s.Key] = strings.TrimSpace(s.Value)
	}
	revision := values[vcsRevisionKey]
	if revision == "" {
		return ""
	}
	if len(revision) > shortRevisionLen {
		revision = revision[:shortRevisionLen]
	}
	if strings.EqualFold(values[vcsModifiedKey], "true") {
		revision += "-dirty"
	}
	return revision
}
