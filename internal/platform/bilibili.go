package platform

import (
	"context"
	"fmt"

	"log/slog"

	"github.com/vladelaina/catime-monitor/internal/httpx"
	"github.com/vladelaina/catime-monitor/internal/jsonfield"
	"github.com/vladelaina/catime-monitor/internal/models"
)

const (
	bilibiliHost = "api.bilibili.com"
	// Bilibili's public endpoints reject non-browser clients.
	bilibiliUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

func bilibiliHeaders() map[string]string {
	return map[string]string{
		"Referer": "https://www.bilibili.com/",
		"Accept":  "application/json, text/plain, */*",
	}
}

// checkEnvelope rejects responses whose API-level "code" field is non-zero;
// Bilibili reports errors inside a 200 response.
func checkEnvelope(body string) error {
	code, err := jsonfield.ExtractInt64(body, `"code":`)
	if err == nil && code != 0 {
		return httpx.NewError(httpx.ClassUpstream, fmt.Errorf("bilibili api code %d", code))
	}
	return nil
}

// BilibiliUser fetches creator statistics by numeric UID.
type BilibiliUser struct {
	fetcher *httpx.Fetcher
	logger  *slog.Logger
}

func NewBilibiliUser(fetcher *httpx.Fetcher, logger *slog.Logger) *BilibiliUser {
	return &BilibiliUser{fetcher: fetcher, logger: logger}
}

func (b *BilibiliUser) Platform() models.Platform { return models.PlatformBilibiliUser }

func (b *BilibiliUser) Options() []models.MetricOption {
	return []models.MetricOption{
		{Label: "Followers", Key: "fans"},
		{Label: "Following", Key: "following"},
	}
}

func (b *BilibiliUser) FetchValue(ctx context.Context, cfg models.MonitorConfig) (int64, error) {
	path := fmt.Sprintf("/x/relation/stat?vmid=%s", cfg.Param1)
	body, err := b.fetcher.Get(ctx, bilibiliHost, path, bilibiliUserAgent, bilibiliHeaders())
	if err != nil {
		return 0, err
	}
	text := string(body)
	if err := checkEnvelope(text); err != nil {
		return 0, err
	}

	key := `"follower":`
	if cfg.Param2 == "following" {
		key = `"following":`
	}
	value, err := jsonfield.ExtractInt64(text, key)
	if err != nil {
		return 0, httpx.NewError(httpx.ClassParse, err)
	}
	return value, nil
}

// BilibiliVideo fetches per-video statistics by public BV id.
type BilibiliVideo struct {
	fetcher *httpx.Fetcher
	logger  *slog.Logger
}

func NewBilibiliVideo(fetcher *httpx.Fetcher, logger *slog.Logger) *BilibiliVideo {
	return &BilibiliVideo{fetcher: fetcher, logger: logger}
}

func (b *BilibiliVideo) Platform() models.Platform { return models.PlatformBilibiliVideo }

func (b *BilibiliVideo) Options() []models.MetricOption {
	return []models.MetricOption{
		{Label: "Views", Key: "view"},
		{Label: "Likes", Key: "like"},
		{Label: "Coins", Key: "coin"},
		{Label: "Favorites", Key: "favorite"},
	}
}

func (b *BilibiliVideo) FetchValue(ctx context.Context, cfg models.MonitorConfig) (int64, error) {
	path := fmt.Sprintf("/x/web-interface/view?bvid=%s", cfg.Param1)
	body, err := b.fetcher.Get(ctx, bilibiliHost, path, bilibiliUserAgent, bilibiliHeaders())
	if err != nil {
		return 0, err
	}
	text := string(body)
	if err := checkEnvelope(text); err != nil {
		return 0, err
	}

	var key string
	switch cfg.Param2 {
	case "like":
		key = `"like":`
	case "coin":
		key = `"coin":`
	case "favorite":
		key = `"favorite":`
	default:
		key = `"view":`
	}
	value, err := jsonfield.ExtractInt64(text, key)
	if err != nil {
		return 0, httpx.NewError(httpx.ClassParse, err)
	}
	return value, nil
}
