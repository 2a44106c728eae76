// Package prompt содержит чистые функции разбора реплик: эвристику
// "правка прошлой картинки", поиск последнего промпта и его доработку.
package prompt

import (
	"regexp"
)

var (
	modificationPattern = regexp.MustCompile(`(?i)\b(make it|change|modify|more|less|add|remove|different|style|color|bright|dark|realistic|cartoon|artistic)\b`)
	freshImagePattern   = regexp.MustCompile(`(?i)\b(create|generate|draw|make me|show me|image of|picture of)\b`)
)

// IsLikelyModification true, если реплика похожа на правку предыдущей картинки
// и при этом не просит новую. Ложные срабатывания допустимы.
func IsLikelyModification(text string) bool {
	return modificationPattern.MatchString(text) && !freshImagePattern.MatchString(text)
}
