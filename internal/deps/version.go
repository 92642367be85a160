package deps

import (
	"regexp"
	"strings"
)

var versionPattern = regexp.MustCompile(`version\s+([\w.\-]+)`)

// parseVersion extracts a version token from "<tool> -version" output.
// Typical first lines look like:
//
//	ffmpeg version 7.0.2 Copyright (c) ...
//	ffprobe version 6.0-essentials_build-www.gyan.dev ...
func parseVersion(output, toolName string) string {
	for _, line := range strings.Split(output, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		if match := versionPattern.FindStringSubmatch(line); match != nil {
			return match[1]
		}
		break
	}
	fallback := regexp.MustCompile(regexp.QuoteMeta(toolName) + `\s+([\w.\-]+)`)
	if match := fallback.FindStringSubmatch(output); match != nil {
		return match[1]
	}
	return ""
}

// parseBuildInfo surfaces build configuration hints without being brittle
// about the exact banner layout.
func parseBuildInfo(output string) map[string]string {
	build := map[string]string{}
	for _, line := range strings.Split(output, "\n") {
		lower := strings.ToLower(line)
		if strings.HasPrefix(lower, "configuration") {
			if _, value, found := strings.Cut(line, ":"); found {
				build["configuration"] = strings.TrimSpace(value)
			}
		} else if strings.Contains(lower, "built") && strings.Contains(lower, "gcc") {
			if _, ok := build["compiler"]; !ok {
				build["compiler"] = strings.TrimSpace(line)
			}
		}
	}
	if len(build) == 0 {
		return nil
	}
	return build
}
