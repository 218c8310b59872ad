// parser_test.go covers section capture and the Draft normalization rules.
//
// Go Pattern: Table-driven tests. Each case names the malformed input it
// models, and every case re-checks the Draft invariants at the end.
package draftparser

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
)

const wellFormed = `【标题】
✨秋冬新款羊绒大衣｜高级感拉满✨

【正文】
这款大衣采用100%羊绒面料，手感细腻。

【话题】
#羊绒大衣 #秋冬穿搭 #高级感 #通勤穿搭 #新品推荐

【推荐平台】
1. 小红书：种草氛围浓厚
2. 抖音：短视频展示上身效果
3. 微博：话题传播快

【图片提示】
米白色羊绒大衣，自然光，城市街景`

// assertInvariants checks the guarantees every parsed Draft must satisfy.
func assertInvariants(t *testing.T, d models.Draft) {
	t.Helper()
	if len(d.Hashtags) != HashtagCount {
		t.Errorf("len(Hashtags) = %d, want %d (%v)", len(d.Hashtags), HashtagCount, d.Hashtags)
	}
	if len(d.Platforms) != PlatformCount {
		t.Errorf("len(Platforms) = %d, want %d (%v)", len(d.Platforms), PlatformCount, d.Platforms)
	}
	for name, v := range map[string]string{
		"FileName":    d.FileName,
		"Title":       d.Title,
		"Content":     d.Content,
		"ImagePrompt": d.ImagePrompt,
	} {
		if strings.TrimSpace(v) == "" {
			t.Errorf("%s is empty", name)
		}
	}
	for i, h := range d.Hashtags {
		if strings.TrimSpace(h) == "" || h == "#" {
			t.Errorf("Hashtags[%d] = %q, want non-empty tag", i, h)
		}
	}
	for i, p := range d.Platforms {
		if strings.TrimSpace(p) == "" {
			t.Errorf("Platforms[%d] is empty", i)
		}
	}
}

func TestParse_WellFormed(t *testing.T) {
	d := Parse(wellFormed, "coat.pdf", nil)
	assertInvariants(t, d)

	if d.Title != "✨秋冬新款羊绒大衣｜高级感拉满✨" {
		t.Errorf("Title = %q", d.Title)
	}
	if d.Content != "这款大衣采用100%羊绒面料，手感细腻。" {
		t.Errorf("Content = %q", d.Content)
	}
	wantTags := []string{"#羊绒大衣", "#秋冬穿搭", "#高级感", "#通勤穿搭", "#新品推荐"}
	for i, want := range wantTags {
		if d.Hashtags[i] != want {
			t.Errorf("Hashtags[%d] = %q, want %q", i, d.Hashtags[i], want)
		}
	}
	wantPlatforms := []string{"小红书", "抖音", "微博"}
	for i, want := range wantPlatforms {
		if d.Platforms[i] != want {
			t.Errorf("Platforms[%d] = %q, want %q", i, d.Platforms[i], want)
		}
	}
	if d.ImagePrompt != "米白色羊绒大衣，自然光，城市街景" {
		t.Errorf("ImagePrompt = %q", d.ImagePrompt)
	}
}

func TestParse_MissingSections(t *testing.T) {
	tests := []struct {
		name      string
		raw       string
		wantTitle string
	}{
		{name: "empty reply", raw: "", wantTitle: "report.pdf产品分析"},
		{name: "plain prose, no markers", raw: "Sorry, I cannot help with that.", wantTitle: "report.pdf产品分析"},
		{name: "only title", raw: "【标题】好物推荐", wantTitle: "好物推荐"},
		{name: "empty title section", raw: "【标题】\n\n【正文】正文内容", wantTitle: "report.pdf产品分析"},
		{name: "no hashtags or platforms", raw: "【标题】标题\n【正文】内容\n【图片提示】图片", wantTitle: "标题"},
		{name: "markers only", raw: "【标题】【正文】【话题】【推荐平台】【图片提示】", wantTitle: "report.pdf产品分析"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Parse(tt.raw, "report.pdf", nil)
			assertInvariants(t, d)
			if d.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", d.Title, tt.wantTitle)
			}
		})
	}
}

func TestParse_TitleRunsToEndWhenBodyMarkerMissing(t *testing.T) {
	d := Parse("【标题】第一行\n第二行", "a.pdf", nil)
	if d.Title != "第一行\n第二行" {
		t.Errorf("Title = %q, want both lines", d.Title)
	}
}

func TestParseHashtags(t *testing.T) {
	tests := []struct {
		name    string
		section string
		want    []string
	}{
		{
			name:    "tags with markers",
			section: "#a #b #c #d #e #f",
			want:    []string{"#a", "#b", "#c", "#d", "#e"},
		},
		{
			name:    "words without markers",
			section: "羊绒，大衣, 秋冬",
			want:    []string{"#羊绒大衣", "#秋冬", "#产品特点", "#时尚穿搭", "#设计灵感"},
		},
		{
			name:    "fewer than five padded",
			section: "#only",
			want:    []string{"#only", "#产品特点", "#时尚穿搭", "#设计灵感", "#新品上市"},
		},
		{
			name:    "padding skips duplicates",
			section: "#时尚穿搭 #产品特点",
			want:    []string{"#时尚穿搭", "#产品特点", "#设计灵感", "#新品上市", "#时尚趋势"},
		},
		{
			name:    "empty section",
			section: "",
			want:    DefaultHashtags,
		},
		{
			name:    "adjacent markers",
			section: "#one#two",
			want:    []string{"#one", "#two", "#产品特点", "#时尚穿搭", "#设计灵感"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseHashtags(tt.section)
			if strings.Join(got, " ") != strings.Join(tt.want, " ") {
				t.Errorf("ParseHashtags(%q) = %v, want %v", tt.section, got, tt.want)
			}
		})
	}
}

func TestParsePlatforms(t *testing.T) {
	tests := []struct {
		name    string
		section string
		want    []string
	}{
		{
			name:    "numbered with fullwidth colon",
			section: "1. 小红书：原因\n2、抖音：原因\n3) 微博：原因\n4. 知乎：原因",
			want:    []string{"小红书", "抖音", "微博"},
		},
		{
			name:    "ascii colon and bullets",
			section: "- Instagram: visual\n* LinkedIn: B2B",
			want:    []string{"Instagram", "LinkedIn", "小红书"},
		},
		{
			name:    "bracket placeholders and blank lines",
			section: "[B站]：[原因]\n\n\n**快手**：原因",
			want:    []string{"B站", "快手", "小红书"},
		},
		{
			name:    "digits inside names are kept",
			section: "36氪：科技读者",
			want:    []string{"36氪", "小红书", "微博"},
		},
		{
			name:    "empty",
			section: "",
			want:    []string{"小红书", "微博", "抖音"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParsePlatforms(tt.section)
			if strings.Join(got, "|") != strings.Join(tt.want, "|") {
				t.Errorf("ParsePlatforms(%q) = %v, want %v", tt.section, got, tt.want)
			}
		})
	}
}

func TestDefault(t *testing.T) {
	d := Default("brochure.pdf")
	assertInvariants(t, d)
	if !strings.Contains(d.Title, "brochure.pdf") {
		t.Errorf("Title = %q, want file name", d.Title)
	}
}

func TestRecoverDraft_LogsThroughInjectedLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	var d models.Draft
	func() {
		defer recoverDraft("broken.pdf", logger, &d)
		panic("regexp exploded")
	}()

	assertInvariants(t, d)
	if d.Title != defaultTitle("broken.pdf") {
		t.Errorf("Title = %q, want default", d.Title)
	}
	if !strings.Contains(buf.String(), "regexp exploded") || !strings.Contains(buf.String(), "broken.pdf") {
		t.Errorf("log output = %q, want panic value and file name", buf.String())
	}
}

func TestHasExpectedFormat(t *testing.T) {
	if !HasExpectedFormat(wellFormed) {
		t.Error("HasExpectedFormat(wellFormed) = false, want true")
	}
	if HasExpectedFormat("【标题】only") {
		t.Error("HasExpectedFormat(title only) = true, want false")
	}
	if got := MissingSections("【标题】x【正文】y"); len(got) != 3 {
		t.Errorf("MissingSections() = %v, want 3 markers", got)
	}
}
