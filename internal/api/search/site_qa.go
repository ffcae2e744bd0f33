package search

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"unicode/utf8"

	"userfinderapi/internal/api"
	"userfinderapi/pkg/config"

	"github.com/redis/go-redis/v9"
)

var tagRe = regexp.MustCompile(`(?s)<script.*?</script>|<style.*?</style>|<[^>]*>`)
var spaceRe = regexp.MustCompile(`\s+`)

// SiteQA answers a question about the content of a URL. Extracted page
// text is cached in redis with a TTL so repeated questions against the
// same page skip the fetch. Cache entries are capped in size and expire,
// nothing accumulates in process memory.
func (h *Handler) SiteQA(w http.ResponseWriter, r *http.Request) {

	defer r.Body.Close()
	resParams := &api.ResParams{W: w, R: r}

	var reqData struct {
		Url      string `json:"url" validate:"required,url"`
		Question string `json:"question" validate:"required,max=1000"`
	}

	// validate request body
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}
	if err := h.Validate.Struct(&reqData); err != nil {
		resParams.Code = http.StatusBadRequest
		resParams.Err = err
		h.Res(resParams)
		return
	}

	h.GateAction(w, r, reqData, func(ctx context.Context) (any, error) {

		pageText, err := h.siteIndex(ctx, reqData.Url)
		if err != nil {
			return nil, err
		}

		return h.AICli.Answer(ctx, reqData.Question, pageText)

	})

}

func (h *Handler) siteIndex(ctx context.Context, pageUrl string) (string, error) {

	sum := sha256.Sum256([]byte(pageUrl))
	cacheKey := "siteindex:" + hex.EncodeToString(sum[:16])

	cached, err := h.RedisCli.Get(ctx, cacheKey).Result()
	if err == nil {
		return cached, nil
	} else if !errors.Is(err, redis.Nil) {
		return "", fmt.Errorf("in siteIndex: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "GET", pageUrl, nil)
	if err != nil {
		return "", err
	}
	res, err := h.HttpCli.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("site fetch http %d", res.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, 4*config.SITE_INDEX_MAX_BYTES))
	if err != nil {
		return "", err
	}

	text := tagRe.ReplaceAllString(string(body), " ")
	text = strings.TrimSpace(spaceRe.ReplaceAllString(text, " "))
	text = truncateText(text, config.SITE_INDEX_MAX_BYTES)

	if err := h.RedisCli.Set(ctx, cacheKey, text, config.SITE_INDEX_TTL).Err(); err != nil {
		return "", fmt.Errorf("in siteIndex: %w", err)
	}

	return text, nil

}

// truncateText cuts at max bytes, backed off to a rune boundary so the
// cached text stays valid UTF-8.
func truncateText(text string, max int) string {

	if len(text) <= max {
		return text
	}
	for max > 0 && !utf8.RuneStart(text[max]) {
		max--
	}

	return text[:max]

}
