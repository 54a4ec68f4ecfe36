package i18n

import (
	"embed"
	"encoding/json"
	"sync"

	goi18n "github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed locales/*.json
var localeFS embed.FS

var (
	bundle   *goi18n.Bundle
	initOnce sync.Once
	initErr  error
)

// Init loads the embedded locale files. Safe to call more than once.
func Init() error {
	initOnce.Do(func() {
		bundle = goi18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
		for _, path := range []string{"locales/active.en.json", "locales/active.id.json"} {
			if _, err := bundle.LoadMessageFileFS(localeFS, path); err != nil {
				initErr = err
				return
			}
		}
	})
	return initErr
}

// Localize renders messageID for the given Accept-Language value. fallback is
// the already-rendered English text, used when no bundle has the message.
func Localize(acceptLanguage, messageID, fallback string, data map[string]any) string {
	if err := Init(); err != nil || messageID == "" {
		return fallback
	}

	localizer := goi18n.NewLocalizer(bundle, acceptLanguage)
	msg, err := localizer.Localize(&goi18n.LocalizeConfig{
		MessageID:      messageID,
		TemplateData:   data,
		DefaultMessage: &goi18n.Message{ID: messageID, Other: fallback},
	})
	if err != nil {
		return fallback
	}
	return msg
}
