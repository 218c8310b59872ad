// Package draftparser turns a 【】-delimited LLM reply into a models.Draft.
//
// The model is asked for five sections in a fixed order:
//
//	【标题】 title
//	【正文】 body
//	【话题】 hashtags
//	【推荐平台】 platforms, one "name：reason" per line
//	【图片提示】 image prompt
//
// Parsing never fails. Missing or malformed sections are replaced with
// defaults so every Draft field is populated, with exactly 5 hashtags and
// exactly 3 platforms.
package draftparser

import (
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

// Section markers, in the order the prompt requests them.
const (
	MarkerTitle       = "【标题】"
	MarkerBody        = "【正文】"
	MarkerHashtags    = "【话题】"
	MarkerPlatforms   = "【推荐平台】"
	MarkerImagePrompt = "【图片提示】"
)

const (
	HashtagCount  = 5
	PlatformCount = 3
)

// DefaultHashtags pads the hashtag list up to HashtagCount.
var DefaultHashtags = []string{"#产品特点", "#时尚穿搭", "#设计灵感", "#新品上市", "#时尚趋势"}

// DefaultPlatforms pads the platform list up to PlatformCount.
var DefaultPlatforms = []string{"小红书", "微博", "抖音", "知乎", "微信"}

// Each section runs from its marker to the next section's marker or the end of input.
// Go Pattern: RE2 has no lookahead, so the terminator is consumed with a
// non-capturing group instead. The lazy .*? still stops at the first marker.
var (
	titleRe       = sectionRegexp(MarkerTitle, MarkerBody)
	bodyRe        = sectionRegexp(MarkerBody, MarkerHashtags)
	hashtagsRe    = sectionRegexp(MarkerHashtags, MarkerPlatforms)
	platformsRe   = sectionRegexp(MarkerPlatforms, MarkerImagePrompt)
	imagePromptRe = sectionRegexp(MarkerImagePrompt, "")

	hashtagTokenRe  = regexp.MustCompile(`#[^\s#]+`)
	commaRe         = regexp.MustCompile(`[,，]`)
	leadingNumberRe = regexp.MustCompile(`^\s*(?:\d+\s*[.、)）]|\d+\s+|[-*•·])\s*`)
	platformSplitRe = regexp.MustCompile(`[：:]`)
	markdownNoiseRe = regexp.MustCompile(`[*\[\]]`)
)

// recoverDraft must be deferred directly so recover() sees the panic.
func recoverDraft(fileName string, logger *slog.Logger, draft *models.Draft) {
	if r := recover(); r != nil {
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("draft parsing panicked, using defaults", "file", fileName, "panic", r)
		*draft = Default(fileName)
	}
}

func sectionRegexp(start, next string) *regexp.Regexp {
	end := `\z`
	if next != "" {
		end = regexp.QuoteMeta(next) + `|\z`
	}
	return regexp.MustCompile(`(?s)` + regexp.QuoteMeta(start) + `\s*(.*?)(?:` + end + `)`)
}

// Parse converts a raw LLM reply into a Draft. logger may be nil.
func Parse(raw, fileName string, logger *slog.Logger) (draft models.Draft) {
	// Go Pattern: recover() inside a deferred function turns a panic into a
	// normal return. Parsing is best-effort, so any surprise yields defaults.
	defer recoverDraft(fileName, logger, &draft)

	title := capture(titleRe, raw)
	if title == "" {
		title = defaultTitle(fileName)
	}

	content := capture(bodyRe, raw)
	if content == "" {
		content = fmt.Sprintf("分析了%s文档，但未能提取详细内容。请查看原始文档了解更多信息。", fileName)
	}

	imagePrompt := capture(imagePromptRe, raw)
	if imagePrompt == "" {
		imagePrompt = defaultImagePrompt(fileName)
	}

	return models.Draft{
		FileName:    fileName,
		Title:       title,
		Content:     content,
		Hashtags:    ParseHashtags(capture(hashtagsRe, raw)),
		Platforms:   ParsePlatforms(capture(platformsRe, raw)),
		ImagePrompt: imagePrompt,
	}
}

// Default returns a fully defaulted Draft built from the file name alone.
func Default(fileName string) models.Draft {
	return models.Draft{
		FileName:    fileName,
		Title:       defaultTitle(fileName),
		Content:     fmt.Sprintf("这是关于%s的产品分析。该文档包含了重要的产品信息和特点。", fileName),
		Hashtags:    pad(nil, DefaultHashtags, HashtagCount),
		Platforms:   pad(nil, DefaultPlatforms, PlatformCount),
		ImagePrompt: defaultImagePrompt(fileName),
	}
}

// HasExpectedFormat reports whether the reply carries the title, body and hashtag markers.
func HasExpectedFormat(raw string) bool {
	return strings.Contains(raw, MarkerTitle) &&
		strings.Contains(raw, MarkerBody) &&
		strings.Contains(raw, MarkerHashtags)
}

// MissingSections lists the markers absent from raw, in prompt order.
func MissingSections(raw string) []string {
	var missing []string
	for _, m := range []string{MarkerTitle, MarkerBody, MarkerHashtags, MarkerPlatforms, MarkerImagePrompt} {
		if !strings.Contains(raw, m) {
			missing = append(missing, m)
		}
	}
	return missing
}

// ParseHashtags extracts hashtags from a section body and normalizes to HashtagCount entries.
// Tokens that already carry '#' win; otherwise whitespace-separated words are prefixed.
func ParseHashtags(section string) []string {
	var tags []string
	if section != "" {
		if found := hashtagTokenRe.FindAllString(section, -1); len(found) > 0 {
			tags = found
		} else {
			for _, word := range strings.Fields(section) {
				word = commaRe.ReplaceAllString(word, "")
				if word == "" {
					continue
				}
				tags = append(tags, "#"+word)
			}
		}
	}
	return pad(tags, DefaultHashtags, HashtagCount)
}

// ParsePlatforms extracts platform names from "name：reason" lines and normalizes to PlatformCount entries.
func ParsePlatforms(section string) []string {
	var platforms []string
	for _, line := range strings.Split(section, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		name := platformSplitRe.Split(line, 2)[0]
		name = leadingNumberRe.ReplaceAllString(name, "")
		name = strings.TrimSpace(markdownNoiseRe.ReplaceAllString(name, ""))
		if name != "" {
			platforms = append(platforms, name)
		}
	}
	return pad(platforms, DefaultPlatforms, PlatformCount)
}

func capture(re *regexp.Regexp, raw string) string {
	m := re.FindStringSubmatch(raw)
	if len(m) < 2 {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// pad truncates values to n, then appends defaults not already present until it has n entries.
func pad(values, defaults []string, n int) []string {
	if len(values) > n {
		values = values[:n]
	}
	out := make([]string, 0, n)
	seen := make(map[string]bool, n)
	for _, v := range values {
		out = append(out, v)
		seen[v] = true
	}
	for _, d := range defaults {
		if len(out) >= n {
			break
		}
		if seen[d] {
			continue
		}
		out = append(out, d)
		seen[d] = true
	}
	return out
}

func defaultTitle(fileName string) string {
	return fileName + "产品分析"
}

func defaultImagePrompt(fileName string) string {
	return fmt.Sprintf("高质量时尚产品图片，展示%s中的服装设计，清晰细节，专业布光，模特展示，时尚杂志风格", fileName)
}
