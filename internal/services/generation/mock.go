package generation

import (
	"fmt"
	"math/rand/v2"
	"path/filepath"
	"regexp"
	"slices"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/Shimizu-Technology/docpost-api/internal/models"
	"github.com/Shimizu-Technology/docpost-api/internal/services/draftparser"
)

// MockPlatforms are the platforms every mock draft recommends.
var MockPlatforms = []string{"LinkedIn", "Twitter", "Facebook"}

// MockHashtagPool is the pool mock hashtags are drawn from.
var MockHashtagPool = []string{
	"#Analysis", "#Insights", "#Research", "#Document", "#PDF",
	"#DataDriven", "#Information", "#Knowledge", "#Learning",
	"#Professional", "#Business", "#Innovation", "#Strategy",
}

var fileWordSplitRe = regexp.MustCompile(`[_\-\s.]+`)

// Mock builds a plausible draft locally when every real provider failed.
// Everything except the hashtag picks is derived from the file name and text.
type Mock struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewMock creates a mock generator. A nil src seeds from runtime randomness.
func NewMock(src rand.Source) *Mock {
	if src == nil {
		src = rand.NewPCG(rand.Uint64(), rand.Uint64())
	}
	return &Mock{rng: rand.New(src)}
}

// Generate never fails.
func (m *Mock) Generate(text, fileName string) models.Draft {
	stem := strings.TrimSuffix(fileName, filepath.Ext(fileName))
	words := splitWords(stem)

	title := "Key Takeaways from " + fileName
	if len(words) > 0 {
		capitalized := make([]string, len(words))
		for i, w := range words {
			capitalized[i] = capitalize(w)
		}
		title = "New Insights from " + strings.Join(capitalized, " ")
	}

	sample := strings.TrimSpace(excerpt(text, 500))
	opening := strings.TrimSpace(excerpt(sample, 100))
	content := fmt.Sprintf(`Just reviewed "%s"! %s... Check out the full document for more insights on this topic. #DocumentAnalysis`, stem, opening)

	pool := m.shuffledPool()
	hashtags := pool[:draftparser.HashtagCount:draftparser.HashtagCount]
	if len(words) > 0 && utf8.RuneCountInString(words[0]) > 3 {
		tag := "#" + capitalize(words[0])
		// Keep the five tags distinct when the file tag was also drawn.
		if i := slices.Index(hashtags, tag); i > 0 {
			hashtags[i] = pool[draftparser.HashtagCount]
		}
		hashtags[0] = tag
	}

	return models.Draft{
		FileName:    fileName,
		Title:       title,
		Content:     content,
		Hashtags:    hashtags,
		Platforms:   append([]string(nil), MockPlatforms...),
		ImagePrompt: fmt.Sprintf("Professional business image related to %s, modern style, high quality", stem),
	}
}

func (m *Mock) shuffledPool() []string {
	pool := slices.Clone(MockHashtagPool)

	m.mu.Lock()
	m.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
	m.mu.Unlock()

	return pool
}

func splitWords(stem string) []string {
	var words []string
	for _, w := range fileWordSplitRe.Split(stem, -1) {
		if w != "" {
			words = append(words, w)
		}
	}
	return words
}

// capitalize upper-cases the first rune and lower-cases the rest.
func capitalize(word string) string {
	r, size := utf8.DecodeRuneInString(word)
	if r == utf8.RuneError {
		return word
	}
	return strings.ToUpper(string(r)) + strings.ToLower(word[size:])
}
