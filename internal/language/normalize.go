package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// Auto is the sentinel returned when a code has no provider mapping. Providers
// treat it as "detect the source language".
const Auto = "auto"

// providerCodes maps recognizer output to the codes translation providers accept.
var providerCodes = map[string]string{
	"nn":      "no",
	"nb":      "no",
	"no":      "no",
	"ja":      "ja",
	"en":      "en",
	"zh":      "zh-CN",
	"zh-cn":   "zh-CN",
	"zh-hans": "zh-CN",
	"zh-tw":   "zh-TW",
	"zh-hant": "zh-TW",
	"yue":     "zh-TW",
	"de":      "de",
	"fr":      "fr",
	"es":      "es",
	"it":      "it",
	"pt":      "pt",
	"ru":      "ru",
	"ko":      "ko",
	"nl":      "nl",
	"sv":      "sv",
	"da":      "da",
	"fi":      "fi",
	"pl":      "pl",
	"ar":      "ar",
	"hi":      "hi",
	"tr":      "tr",
	"uk":      "uk",
	"vi":      "vi",
	"th":      "th",
	"id":      "id",
	"auto":    Auto,
}

// Normalize maps a recognizer language tag to a translation provider code.
// Matching is case-insensitive and accepts "_" as a separator. Codes with no
// mapping return Auto. Normalize is total and idempotent.
func Normalize(code string) string {
	key := canonicalKey(code)
	if key == "" {
		return Auto
	}
	if mapped, ok := providerCodes[key]; ok {
		return mapped
	}
	// Three-letter codes and English names ("eng", "german").
	if e := lookup(key); e != nil && !strings.Contains(key, "-") {
		if mapped, ok := providerCodes[e.code2]; ok {
			return mapped
		}
	}
	return normalizeTag(key)
}

func normalizeTag(key string) string {
	tag, err := xlanguage.Parse(key)
	if err != nil {
		return Auto
	}
	base, confidence := tag.Base()
	if confidence == xlanguage.No {
		return Auto
	}
	baseCode := base.String()
	if baseCode == "zh" || baseCode == "yue" {
		script, _ := tag.Script()
		region, _ := tag.Region()
		switch {
		case script.String() == "Hant":
			return "zh-TW"
		case script.String() == "Hans":
			return "zh-CN"
		case region.String() == "TW" || region.String() == "HK" || region.String() == "MO":
			return "zh-TW"
		}
	}
	if mapped, ok := providerCodes[baseCode]; ok {
		return mapped
	}
	return Auto
}

func canonicalKey(code string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(code)), "_", "-")
}

// Same reports whether two codes name the same provider language, so a
// transcript in a needs no translation into b. Unmapped codes compare by
// their trimmed, case-folded form.
func Same(a, b string) bool {
	na, nb := Normalize(a), Normalize(b)
	if na != Auto && nb != Auto {
		return na == nb
	}
	ka, kb := canonicalKey(a), canonicalKey(b)
	return ka != "" && ka != Auto && ka == kb
}
