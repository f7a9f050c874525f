package enums

type Language string

const (
	LanguageRU Language = "ru"
	LanguageEN Language = "en"
	LanguageUK Language = "uk"
	LanguageBE Language = "be"
	LanguageKK Language = "kk"
	LanguagePL Language = "pl"
)

var supportedLanguages = map[Language]struct{}{
	LanguageRU: {},
	LanguageEN: {},
	LanguageUK: {},
	LanguageBE: {},
	LanguageKK: {},
	LanguagePL: {},
}

func (l Language) Supported() bool {
	_, ok := supportedLanguages[l]
	return ok
}
