package language

import "strings"

type entry struct {
	code2   string // ISO 639-1
	code3   string // ISO 639-2/T
	alt3    string // ISO 639-2/B where it differs
	display string
}

// The lower-cased display name doubles as the word form WhisperX and the
// dictionary sites use ("german").
var languages = []entry{
	{"en", "eng", "", "English"},
	{"es", "spa", "", "Spanish"},
	{"fr", "fra", "fre", "French"},
	{"de", "deu", "ger", "German"},
	{"it", "ita", "", "Italian"},
	{"pt", "por", "", "Portuguese"},
	{"ja", "jpn", "", "Japanese"},
	{"ko", "kor", "", "Korean"},
	{"zh", "zho", "chi", "Chinese"},
	{"ru", "rus", "", "Russian"},
	{"ar", "ara", "", "Arabic"},
	{"hi", "hin", "", "Hindi"},
	{"nl", "nld", "dut", "Dutch"},
	{"pl", "pol", "", "Polish"},
	{"sv", "swe", "", "Swedish"},
	{"da", "dan", "", "Danish"},
	{"no", "nor", "", "Norwegian"},
	{"nb", "nob", "", "Norwegian Bokmål"},
	{"nn", "nno", "", "Norwegian Nynorsk"},
	{"fi", "fin", "", "Finnish"},
	{"tr", "tur", "", "Turkish"},
	{"uk", "ukr", "", "Ukrainian"},
	{"vi", "vie", "", "Vietnamese"},
	{"th", "tha", "", "Thai"},
	{"id", "ind", "", "Indonesian"},
}

var aliases = map[string]string{"mandarin": "zh"}

var index = buildIndex()

func buildIndex() map[string]*entry {
	idx := make(map[string]*entry, len(languages)*4)
	for i := range languages {
		e := &languages[i]
		for _, key := range []string{e.code2, e.code3, e.alt3, strings.ToLower(e.display)} {
			if key != "" {
				idx[key] = e
			}
		}
	}
	for alias, code := range aliases {
		idx[alias] = idx[code]
	}
	return idx
}

// lookup resolves a two or three letter code or an English name. Region and
// script qualified tags ("zh-CN", "pt_BR") resolve by their base.
func lookup(code string) *entry {
	code = strings.ToLower(strings.TrimSpace(code))
	if e, ok := index[code]; ok {
		return e
	}
	if base, _, found := strings.Cut(strings.ReplaceAll(code, "_", "-"), "-"); found {
		return index[base]
	}
	return nil
}

// ToISO2 returns the ISO 639-1 code for any recognized code or name. Unknown
// two-letter input passes through; anything else unknown yields "".
func ToISO2(code string) string {
	if e := lookup(code); e != nil {
		return e.code2
	}
	if code = strings.ToLower(strings.TrimSpace(code)); len(code) == 2 {
		return code
	}
	return ""
}

// DisplayName is the English name shown in prompts and tables. Unknown codes
// come back upper-cased and empty input as "Unknown".
func DisplayName(code string) string {
	code = strings.TrimSpace(code)
	if code == "" {
		return "Unknown"
	}
	if e := lookup(code); e != nil {
		return e.display
	}
	return strings.ToUpper(code)
}

// Name returns the lower-case English word used in dictionary site URLs.
// Bokmål and Nynorsk map to "norwegian"; unknown codes yield "".
func Name(code string) string {
	e := lookup(code)
	if e == nil {
		return ""
	}
	if word, _, _ := strings.Cut(strings.ToLower(e.display), " "); word != "" {
		return word
	}
	return ""
}
