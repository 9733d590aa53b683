// Package replies is the multilingual response template bank for the scripted
// dialogue. Templates are grouped by logical category, with several
// interchangeable variants per category so the bot does not repeat itself
// verbatim. English is the base language; other languages fall back to English
// for any variant they do not translate.
package replies

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"

	"github.com/buildmart/buildmart-server/internal/domain"
)

//go:embed locale/*.json
var localeFS embed.FS

var localeFiles = []string{"locale/en.json", "locale/hi.json"}

// SupportedLanguages lists the language tags the bank ships templates for.
var SupportedLanguages = []string{"en", "hi"}

// Category is a logical bucket of interchangeable canned responses.
type Category string

const (
	Greeting      Category = "greeting"
	GreetingNudge Category = "greeting-nudge"
	AskName       Category = "ask-name"
	AskLocation   Category = "ask-location"
	AskCategory   Category = "ask-category"
	MarketInsight Category = "market-insight"
	Completion    Category = "completion"
	Closing       Category = "closing"
	Apology       Category = "apology"
)

// Variant counts per category. These must match the base-language locale file;
// every variant ID "<category>-<n>" for n < count must exist in en.json.
var variants = map[Category]int{
	Greeting:      3,
	GreetingNudge: 2,
	AskName:       3,
	AskLocation:   3,
	AskCategory:   2,
	MarketInsight: 2,
	Completion:    2,
	Closing:       2,
	Apology:       2,
}

// Variant counts for per-category material detail templates. Categories absent
// here use the generic detail template.
var detailVariants = map[domain.CategoryID]int{
	domain.CategoryTMTSteel:       2,
	domain.CategoryMildSteel:      1,
	domain.CategoryStainlessSteel: 1,
	domain.CategoryCement:         2,
	domain.CategoryAggregates:     1,
	domain.CategoryBricks:         1,
	domain.CategoryElectrical:     1,
	domain.CategoryPlumbing:       1,
	domain.CategoryPaints:         1,
	domain.CategoryHardware:       1,
	domain.CategoryGeneral:        2,
}

// Bank selects and renders response templates. It is safe for concurrent use;
// the random source is guarded by a mutex so selection stays deterministic
// under a fixed seed in tests.
type Bank struct {
	bundle *i18n.Bundle

	mu  sync.Mutex
	rng *rand.Rand
}

// NewBank loads the embedded locale files and returns a bank whose variant
// selection is driven by the given seed.
func NewBank(seed int64) (*Bank, error) {
	bundle := i18n.NewBundle(language.English)
	bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
	for _, file := range localeFiles {
		data, err := localeFS.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("reading locale file %s: %w", file, err)
		}
		if _, err := bundle.ParseMessageFileBytes(data, file); err != nil {
			return nil, fmt.Errorf("parsing locale file %s: %w", file, err)
		}
	}

	return &Bank{
		bundle: bundle,
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Select picks a random variant for the category and renders it in the
// requested language, falling back to English when the variant has no
// translation. An unknown category is a configuration error.
func (b *Bank) Select(cat Category, lang string, data map[string]string) (string, error) {
	n, ok := variants[cat]
	if !ok || n == 0 {
		return "", fmt.Errorf("no templates registered for category %q", cat)
	}
	return b.localize(fmt.Sprintf("%s-%d", cat, b.pick(n)), lang, data)
}

// SelectMaterialDetails renders a material-details template for the given
// category, degrading to the generic detail template for categories without a
// dedicated one.
func (b *Bank) SelectMaterialDetails(id domain.CategoryID, lang string, data map[string]string) (string, error) {
	n, ok := detailVariants[id]
	if !ok {
		id = domain.CategoryGeneral
		n = detailVariants[domain.CategoryGeneral]
	}
	return b.localize(fmt.Sprintf("material-details-%s-%d", id, b.pick(n)), lang, data)
}

func (b *Bank) pick(n int) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.rng.Intn(n)
}

func (b *Bank) localize(messageID, lang string, data map[string]string) (string, error) {
	cfg := &i18n.LocalizeConfig{
		MessageID:    messageID,
		TemplateData: data,
	}
	msg, err := i18n.NewLocalizer(b.bundle, lang).Localize(cfg)
	if err != nil {
		// The localizer does not fall back across languages on its own; an
		// untranslated variant renders in the base language instead.
		var notFound *i18n.MessageNotFoundErr
		if errors.As(err, &notFound) && lang != domain.DefaultLanguage {
			msg, err = i18n.NewLocalizer(b.bundle, domain.DefaultLanguage).Localize(cfg)
		}
		if err != nil {
			return "", fmt.Errorf("localizing %s: %w", messageID, err)
		}
	}
	return msg, nil
}
