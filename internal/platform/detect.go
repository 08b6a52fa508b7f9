package platform

import (
	"regexp"
	"strings"

	"github.com/vladelaina/catime-monitor/internal/models"
)

// Detection patterns, most specific first. The bare-numeric UID rule has no
// length floor, so very short numbers classify as Bilibili UIDs; a known
// limitation of the heuristic.
var (
	bvPattern      = regexp.MustCompile(`^BV[0-9A-Za-z]{10}$`)
	repoPattern    = regexp.MustCompile(`^[A-Za-z0-9_.-]+/[A-Za-z0-9_.-]+$`)
	numericPattern = regexp.MustCompile(`^[0-9]+$`)
)

// Detect classifies free-form pasted text into a platform and primary
// identifier for the editing UI. Heuristics run in specificity order:
// video id, GitHub URL or "user/repo" slug, then bare numeric UID last.
// The fetch path never calls this.
func Detect(input string) (models.Platform, string, bool) {
	s := strings.TrimSpace(input)
	if s == "" {
		return models.PlatformUnknown, "", false
	}

	if bv, ok := detectVideo(s); ok {
		return models.PlatformBilibiliVideo, bv, true
	}
	if slug, ok := detectGitHub(s); ok {
		return models.PlatformGitHub, slug, true
	}
	if uid, ok := detectUser(s); ok {
		return models.PlatformBilibiliUser, uid, true
	}
	return models.PlatformUnknown, "", false
}

func detectVideo(s string) (string, bool) {
	if bvPattern.MatchString(s) {
		return s, true
	}
	// Video page URLs carry the BV id as a path segment.
	if i := strings.Index(s, "bilibili.com/video/"); i >= 0 {
		candidate := s[i+len("bilibili.com/video/"):]
		candidate = strings.TrimRight(strings.SplitN(candidate, "?", 2)[0], "/")
		if bvPattern.MatchString(candidate) {
			return candidate, true
		}
	}
	return "", false
}

func detectGitHub(s string) (string, bool) {
	candidate := s
	if i := strings.Index(candidate, "github.com/"); i >= 0 {
		candidate = candidate[i+len("github.com/"):]
		candidate = strings.SplitN(candidate, "?", 2)[0]
		candidate = strings.TrimSuffix(strings.TrimRight(candidate, "/"), ".git")
		// Keep only owner/repo from deeper paths.
		parts := strings.Split(candidate, "/")
		if len(parts) >= 2 {
			candidate = parts[0] + "/" + parts[1]
		}
	}
	if repoPattern.MatchString(candidate) {
		return candidate, true
	}
	return "", false
}

func detectUser(s string) (string, bool) {
	candidate := s
	if i := strings.Index(candidate, "space.bilibili.com/"); i >= 0 {
		candidate = candidate[i+len("space.bilibili.com/"):]
		candidate = strings.TrimRight(strings.SplitN(candidate, "?", 2)[0], "/")
	}
	if numericPattern.MatchString(candidate) {
		return candidate, true
	}
	return "", false
}
