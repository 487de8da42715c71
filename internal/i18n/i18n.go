// Package i18n resolves user-facing copy for errors and session prompts.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/message/catalog"
	"gopkg.in/yaml.v3"
)

// BaseLocale is the locale every other catalog is checked against.
const BaseLocale = "en-US"

// Message keys.
const (
	KeyErrorTitle           = "error.title"
	KeyErrorNetwork         = "error.network"
	KeyErrorAuthExpired     = "error.auth_expired"
	KeyErrorAuthInvalid     = "error.auth_invalid"
	KeyErrorValidation      = "error.validation"
	KeyErrorServer          = "error.server"
	KeyErrorInvalidCreds    = "error.invalid_credentials"
	KeyErrorForbidden       = "error.forbidden"
	KeyErrorNotFound        = "error.not_found"
	KeyErrorUnknown         = "error.unknown"
	KeySessionExpiringTitle = "session.expiring.title"
	KeySessionExpiringBody  = "session.expiring.message"
	KeySessionExpiredTitle  = "session.expired.title"
	KeySessionExpiredBody   = "session.expired.message"
)

//go:embed locales/*.yaml
var embeddedFS embed.FS

type catalogFile struct {
	Locale   string            `yaml:"locale"`
	Messages map[string]string `yaml:"messages"`
}

// Localizer renders message keys in one resolved language.
type Localizer struct {
	tag     language.Tag
	printer *message.Printer
	base    map[string]string
}

// Bundle holds every loaded catalog.
type Bundle struct {
	builder *catalog.Builder
	tags    []language.Tag
	matcher language.Matcher
	base    map[string]string
}

// LoadEmbedded loads the catalogs shipped with the package.
func LoadEmbedded() (*Bundle, error) {
	return LoadFromFS(embeddedFS)
}

// LoadFromFS loads locales/*.yaml from fsys.
func LoadFromFS(fsys fs.FS) (*Bundle, error) {
	paths, err := fs.Glob(fsys, "locales/*.yaml")
	if err != nil {
		return nil, fmt.Errorf("glob locale catalogs: %w", err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no catalog files found")
	}
	sort.Strings(paths)

	b := &Bundle{builder: catalog.NewBuilder(catalog.Fallback(language.MustParse(BaseLocale)))}
	files := make(map[string]catalogFile, len(paths))
	for _, p := range paths {
		data, err := fs.ReadFile(fsys, p)
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", p, err)
		}
		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse catalog %s: %w", p, err)
		}
		fromPath := strings.TrimSuffix(path.Base(p), path.Ext(p))
		if strings.TrimSpace(file.Locale) != fromPath {
			return nil, fmt.Errorf("catalog %s: locale %q must match file name", p, file.Locale)
		}
		files[file.Locale] = file
	}

	base, ok := files[BaseLocale]
	if !ok {
		return nil, fmt.Errorf("base locale %s is not defined in catalogs", BaseLocale)
	}
	b.base = base.Messages

	// Base first so it is the matcher's default.
	locales := make([]string, 0, len(files))
	locales = append(locales, BaseLocale)
	for locale := range files {
		if locale != BaseLocale {
			locales = append(locales, locale)
		}
	}
	sort.Strings(locales[1:])

	for _, locale := range locales {
		tag, err := language.Parse(locale)
		if err != nil {
			return nil, fmt.Errorf("parse locale tag %q: %w", locale, err)
		}
		for key, value := range files[locale].Messages {
			if _, known := base.Messages[key]; !known {
				return nil, fmt.Errorf("catalog %s: key %q missing from base locale", locale, key)
			}
			if err := b.builder.SetString(tag, key, value); err != nil {
				return nil, fmt.Errorf("catalog %s: set %q: %w", locale, key, err)
			}
		}
		b.tags = append(b.tags, tag)
	}
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Locales returns the loaded locale tags, base first.
func (b *Bundle) Locales() []language.Tag {
	return append([]language.Tag(nil), b.tags...)
}

// Localizer returns a Localizer for the best match of locale. Unknown or
// malformed locales fall back to BaseLocale.
func (b *Bundle) Localizer(locale string) *Localizer {
	tag := b.tags[0]
	if desired, err := language.Parse(strings.TrimSpace(locale)); err == nil {
		_, idx, conf := b.matcher.Match(desired)
		if conf != language.No {
			tag = b.tags[idx]
		}
	}
	return &Localizer{
		tag:     tag,
		printer: message.NewPrinter(tag, message.Catalog(b.builder)),
		base:    b.base,
	}
}

// Tag returns the resolved language.
func (l *Localizer) Tag() language.Tag {
	return l.tag
}

// Text renders key. Missing keys render from the base catalog, then as the
// key itself.
func (l *Localizer) Text(key string, args ...any) string {
	if l == nil {
		return key
	}
	value := strings.TrimSpace(l.printer.Sprintf(key, args...))
	if value != "" && value != key {
		return value
	}
	if fallback, ok := l.base[key]; ok {
		if len(args) > 0 {
			return fmt.Sprintf(fallback, args...)
		}
		return fallback
	}
	return key
}
