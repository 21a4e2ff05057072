// Package i18n holds the message catalog used for user-facing labels
// (report field names, totals marker, authentication failures).
package i18n

import (
	"strings"
)

const (
	LocaleEN = "en"
	LocaleAR = "ar"
)

// Translator looks up a message key. ok is false when the key is unknown.
type Translator func(key string) (string, bool)

// Bundle is an immutable set of per-locale catalogs with a fallback locale.
type Bundle struct {
	fallback string
	catalogs map[string]map[string]string
}

// NewBundle creates a bundle from per-locale catalogs.
func NewBundle(fallback string, catalogs map[string]map[string]string) *Bundle {
	return &Bundle{fallback: fallback, catalogs: catalogs}
}

// Default returns the built-in English/Arabic bundle.
func Default() *Bundle {
	return NewBundle(LocaleEN, map[string]map[string]string{
		LocaleEN: english,
		LocaleAR: arabic,
	})
}

// WithFallback returns a copy of b falling back to locale, or b itself when
// locale is not supported.
func (b *Bundle) WithFallback(locale string) *Bundle {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if _, ok := b.catalogs[locale]; !ok || locale == b.fallback {
		return b
	}
	return &Bundle{fallback: locale, catalogs: b.catalogs}
}

// Translator returns a lookup bound to locale, falling back to the bundle's fallback locale.
func (b *Bundle) Translator(locale string) Translator {
	primary := b.catalogs[b.Normalize(locale)]
	fallback := b.catalogs[b.fallback]
	return func(key string) (string, bool) {
		if v, ok := primary[key]; ok {
			return v, true
		}
		if v, ok := fallback[key]; ok {
			return v, true
		}
		return "", false
	}
}

// T translates key, returning the key itself when no catalog has it.
func (b *Bundle) T(locale, key string) string {
	if v, ok := b.Translator(locale)(key); ok {
		return v
	}
	return key
}

// Normalize maps "ar-EG" or "AR" to a supported locale, or the fallback.
func (b *Bundle) Normalize(locale string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if i := strings.IndexAny(locale, "-_"); i > 0 {
		locale = locale[:i]
	}
	if _, ok := b.catalogs[locale]; ok {
		return locale
	}
	return b.fallback
}

// Direction returns the text direction of locale, "rtl" or "ltr".
func (b *Bundle) Direction(locale string) string {
	if b.Normalize(locale) == LocaleAR {
		return "rtl"
	}
	return "ltr"
}

// Negotiate picks the first supported locale from an Accept-Language header.
func (b *Bundle) Negotiate(acceptLanguage string) string {
	for _, part := range strings.Split(acceptLanguage, ",") {
		tag := strings.TrimSpace(strings.SplitN(part, ";", 2)[0])
		if tag == "" {
			continue
		}
		n := b.Normalize(tag)
		if n != b.fallback || strings.HasPrefix(strings.ToLower(tag), b.fallback) {
			return n
		}
	}
	return b.fallback
}
