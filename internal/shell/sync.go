// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package shell

import (
	"context"
	"log/slog"
	"os"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/jeranaias/orchat/internal/cloud"
	"github.com/jeranaias/orchat/internal/config"
)

// Theme-color hints used for the auto theme.
const (
	AutoDarkHint  = "#151515"
	AutoLightHint = "#fafafa"
)

// Supported lists the locales the UI can present, default first.
var Supported = []language.Tag{
	language.English,
	language.SimplifiedChinese,
	language.TraditionalChinese,
	language.Japanese,
	language.Korean,
	language.French,
	language.Spanish,
	language.Italian,
	language.German,
	language.BrazilianPortuguese,
	language.Russian,
	language.Turkish,
	language.Vietnamese,
	language.Indonesian,
	language.Czech,
	language.Norwegian,
	language.Arabic,
	language.Bengali,
	language.Slovak,
}

var matcher = language.NewMatcher(Supported)

// Gateway is the part of the config gateway the synchronizer uses.
type Gateway interface {
	Models(ctx context.Context) ([]cloud.Model, error)
	MergeModels(models []cloud.Model)
}

// Synchronizer aligns the Document with theme, locale and remote models.
type Synchronizer struct {
	doc     *Document
	gateway Gateway
	logger  *slog.Logger

	loadOnce sync.Once
}

// NewSynchronizer returns a synchronizer over doc. gateway may be nil, in
// which case LoadData does nothing.
func NewSynchronizer(doc *Document, gateway Gateway, logger *slog.Logger) *Synchronizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Synchronizer{doc: doc, gateway: gateway, logger: logger}
}

// Document returns the synchronized document.
func (s *Synchronizer) Document() *Document {
	return s.doc
}

// ApplyTheme removes the light and dark root classes, then adds the class
// for theme unless it is auto, and sets both theme-color hints. Applying
// the same theme twice leaves the document unchanged.
func (s *Synchronizer) ApplyTheme(theme, accent string) {
	themeClasses := []string{config.ThemeDark, config.ThemeLight}

	switch theme {
	case config.ThemeDark, config.ThemeLight:
		s.doc.SwapClasses(themeClasses, theme)
		s.doc.SetHint(HintDark, accent)
		s.doc.SetHint(HintLight, accent)
	default:
		s.doc.SwapClasses(themeClasses, "")
		s.doc.SetHint(HintDark, AutoDarkHint)
		s.doc.SetHint(HintLight, AutoLightHint)
	}
}

// ApplyLang sets the lang attribute to the supported locale best matching
// locale. It returns the applied value.
func (s *Synchronizer) ApplyLang(locale string) string {
	lang := ResolveLang(locale)
	if s.doc.SetLang(lang) {
		s.logger.Debug("document language changed", "lang", lang)
	}
	return lang
}

// LoadData fetches the remote model list through the gateway and merges it.
// It runs at most once per Synchronizer; later calls return immediately.
// Failures are logged and never returned.
func (s *Synchronizer) LoadData(ctx context.Context) {
	if s.gateway == nil {
		return
	}
	s.loadOnce.Do(func() {
		models, err := s.gateway.Models(ctx)
		if err != nil {
			s.logger.Warn("remote model load failed", "err", err)
			return
		}
		s.gateway.MergeModels(models)
		s.logger.Debug("remote models merged", "count", len(models))
	})
}

// ResolveLang picks a supported locale for preferred. An empty preferred
// falls back to LC_ALL, then LANG, then English.
func ResolveLang(preferred string) string {
	candidates := []string{preferred, os.Getenv("LC_ALL"), os.Getenv("LANG")}
	for _, c := range candidates {
		if tag, ok := parseLocale(c); ok {
			_, index, conf := matcher.Match(tag)
			if conf != language.No {
				return Supported[index].String()
			}
		}
	}
	return language.English.String()
}

// parseLocale accepts BCP 47 tags and POSIX forms such as "fr_FR.UTF-8".
func parseLocale(s string) (language.Tag, bool) {
	s = strings.TrimSpace(s)
	if i := strings.IndexAny(s, ".@"); i >= 0 {
		s = s[:i]
	}
	if s == "" || s == "C" || s == "POSIX" {
		return language.Und, false
	}
	tag, err := language.Parse(strings.ReplaceAll(s, "_", "-"))
	if err != nil {
		return language.Und, false
	}
	return tag, true
}
