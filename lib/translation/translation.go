package translation

import (
	"github.com/leonelquinteros/gotext"
)

// Configure selects the message catalog used for outbound notifications.
func Configure(localesDir, lang string) {
	gotext.Configure(localesDir, lang, "default")
}

func GetLanguage() string {
	lang := gotext.GetLanguage()

	if lang == "und" || lang == "" {
		return "en"
	}

	return lang
}

func Translate(msgID string, vars ...interface{}) string {
	return gotext.Get(msgID, vars...)
}
