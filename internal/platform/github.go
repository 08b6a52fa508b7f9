package platform

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"log/slog"

	"github.com/vladelaina/catime-monitor/internal/httpx"
	"github.com/vladelaina/catime-monitor/internal/jsonfield"
	"github.com/vladelaina/catime-monitor/internal/models"
	"github.com/vladelaina/catime-monitor/internal/secret"
)

const (
	githubHost      = "api.github.com"
	githubUserAgent = "Catime Monitor/1.0"
)

// GitHub fetches repository counters from the GitHub REST API. param1 is
// the "owner/repo" slug, param2 selects the metric.
type GitHub struct {
	fetcher *httpx.Fetcher
	secrets *secret.Store
	logger  *slog.Logger
}

// NewGitHub builds the GitHub adapter. secrets unseals any stored token.
func NewGitHub(fetcher *httpx.Fetcher, secrets *secret.Store, logger *slog.Logger) *GitHub {
	return &GitHub{fetcher: fetcher, secrets: secrets, logger: logger}
}

func (g *GitHub) Platform() models.Platform { return models.PlatformGitHub }

func (g *GitHub) Options() []models.MetricOption {
	return []models.MetricOption{
		{Label: "Stars", Key: "star"},
		{Label: "Forks", Key: "fork"},
		{Label: "Watchers", Key: "watcher"},
		{Label: "Open Issues", Key: "issue"},
	}
}

func (g *GitHub) FetchValue(ctx context.Context, cfg models.MonitorConfig) (int64, error) {
	path := fmt.Sprintf("/repos/%s", cfg.Param1)

	headers := map[string]string{}
	if cfg.SealedToken != "" {
		if token, ok := g.unsealToken(cfg); ok {
			headers["Authorization"] = "token " + token
		}
	}

	body, err := g.fetcher.Get(ctx, githubHost, path, githubUserAgent, headers)
	clearHeaders(headers)
	if err != nil {
		return 0, err
	}

	value, err := jsonfield.ExtractInt64(string(body), githubKey(cfg.Param2))
	if err != nil {
		return 0, httpx.NewError(httpx.ClassParse, err)
	}
	return value, nil
}

// unsealToken decrypts the config's sealed token and strips anything
// non-printable. An unreadable token degrades to an unauthenticated fetch:
// most repository counters are public.
func (g *GitHub) unsealToken(cfg models.MonitorConfig) (string, bool) {
	blob, err := base64.StdEncoding.DecodeString(cfg.SealedToken)
	if err != nil {
		g.logger.Warn("stored token unreadable, fetching unauthenticated", "descriptor", cfg.Descriptor())
		return "", false
	}
	plaintext, err := g.secrets.Unseal(blob)
	if err != nil {
		if errors.Is(err, secret.ErrDecryptFailed) {
			g.logger.Warn("stored token unreadable, fetching unauthenticated", "descriptor", cfg.Descriptor())
		}
		return "", false
	}
	token := strings.Map(func(r rune) rune {
		if r < 0x21 || r > 0x7e {
			return -1
		}
		return r
	}, string(plaintext))
	secret.Wipe(plaintext)
	if token == "" {
		return "", false
	}
	return token, true
}

// githubKey maps a metric option to the JSON field holding its count,
// defaulting to stars when the option is unrecognized.
func githubKey(param2 string) string {
	switch param2 {
	case "fork":
		return `"forks_count":`
	case "watcher":
		return `"subscribers_count":`
	case "issue":
		return `"open_issues_count":`
	default:
		return `"stargazers_count":`
	}
}

// clearHeaders drops header values so token material does not outlive the
// request.
func clearHeaders(headers map[string]string) {
	for k := range headers {
		headers[k] = ""
		delete(headers, k)
	}
}
