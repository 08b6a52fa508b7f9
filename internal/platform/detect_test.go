package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vladelaina/catime-monitor/internal/models"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		input    string
		platform models.Platform
		param1   string
		ok       bool
	}{
		{"https://github.com/vladelaina/Catime", models.PlatformGitHub, "vladelaina/Catime", true},
		{"github.com/vladelaina/Catime/", models.PlatformGitHub, "vladelaina/Catime", true},
		{"https://github.com/vladelaina/Catime.git", models.PlatformGitHub, "vladelaina/Catime", true},
		{"https://github.com/vladelaina/Catime/issues", models.PlatformGitHub, "vladelaina/Catime", true},
		{"vladelaina/Catime", models.PlatformGitHub, "vladelaina/Catime", true},
		{"BV1xx411c7mD", models.PlatformBilibiliVideo, "BV1xx411c7mD", true},
		{"https://www.bilibili.com/video/BV1xx411c7mD?p=1", models.PlatformBilibiliVideo, "BV1xx411c7mD", true},
		{"123456", models.PlatformBilibiliUser, "123456", true},
		{"https://space.bilibili.com/123456", models.PlatformBilibiliUser, "123456", true},
		{"", models.PlatformUnknown, "", false},
		{"   ", models.PlatformUnknown, "", false},
		{"not a source", models.PlatformUnknown, "", false},
	}
	for _, tt := range tests {
		platform, param1, ok := Detect(tt.input)
		assert.Equal(t, tt.ok, ok, "input %q", tt.input)
		assert.Equal(t, tt.platform, platform, "input %q", tt.input)
		assert.Equal(t, tt.param1, param1, "input %q", tt.input)
	}
}

// A bare number that could plausibly be part of a repo name must still
// classify as a UID: the numeric rule runs only after the more specific
// patterns fail, and nothing more specific matches a bare number.
func TestDetectNumericRunsLast(t *testing.T) {
	platform, param1, ok := Detect("1024")
	assert.True(t, ok)
	assert.Equal(t, models.PlatformBilibiliUser, platform)
	assert.Equal(t, "1024", param1)

	// A numeric-looking video id keeps its higher-specificity match.
	platform, _, _ = Detect("BV1234567890")
	assert.Equal(t, models.PlatformBilibiliVideo, platform)
}
