package source

import "strings"

// DefaultKeywords selects cross-strait and domestic political coverage, the
// articles the analysis service is built to judge.
var DefaultKeywords = []string{
	"兩岸", "台海", "統一", "台獨", "九二共識", "一國兩制",
	"中共", "解放軍", "國台辦", "陸委會",
	"總統", "行政院", "立法院", "立委", "國防", "軍購",
	"民進黨", "國民黨", "民眾黨", "選舉", "罷免", "公投",
	"美中", "印太", "制裁", "主權",
	"taiwan strait", "cross-strait", "beijing", "sovereignty",
}

// Filter matches article text against include and exclude keyword lists.
type Filter struct {
	keywords []string
	exclude  []string
}

// NewFilter creates a filter with the default keywords plus extras.
func NewFilter(extraKeywords, excludeKeywords []string) *Filter {
	keywords := make([]string, 0, len(DefaultKeywords)+len(extraKeywords))
	keywords = append(keywords, DefaultKeywords...)
	keywords = append(keywords, extraKeywords...)
	for i, kw := range keywords {
		keywords[i] = strings.ToLower(kw)
	}

	exclude := make([]string, len(excludeKeywords))
	for i, kw := range excludeKeywords {
		exclude[i] = strings.ToLower(kw)
	}

	return &Filter{keywords: keywords, exclude: exclude}
}

// Matches reports whether text contains a keyword and no excluded keyword.
// A nil filter matches everything.
func (f *Filter) Matches(text string) bool {
	if f == nil {
		return true
	}
	lower := strings.ToLower(text)

	for _, ex := range f.exclude {
		if strings.Contains(lower, ex) {
			return false
		}
	}

	for _, kw := range f.keywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}
