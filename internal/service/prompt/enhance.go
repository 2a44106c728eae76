package prompt

import (
	"regexp"
	"strings"

	"LLM_ImageChat/internal/storage/models"
)

// ImageReplyPrefix начало ответа ассистента после успешной генерации
const ImageReplyPrefix = "I've generated an image for you: "

var imageReplyPattern = regexp.MustCompile(`^` + regexp.QuoteMeta(ImageReplyPrefix) + `(.+)`)

type modifier struct {
	keyword    string
	descriptor string
}

// modifiers порядок фиксирован: описания добавляются в порядке таблицы
var modifiers = []modifier{
	{"colorful", "vibrant colors, rainbow colors, bright and saturated"},
	{"more colorful", "vibrant colors, rainbow colors, bright and saturated"},
	{"darker", "dark atmosphere, moody lighting, shadows"},
	{"brighter", "bright lighting, sunny, illuminated"},
	{"realistic", "photorealistic, high detail, professional photography"},
	{"artistic", "artistic style, creative, digital art"},
	{"cartoon", "cartoon style, animated, colorful illustration"},
	{"detailed", "highly detailed, intricate details, fine details"},
}

// ImageReply текст ассистента, который кладётся в историю после генерации
func ImageReply(imagePrompt string) string {
	return ImageReplyPrefix + imagePrompt
}

// LastImagePrompt ищет с конца последний ответ ассистента о сгенерированной картинке
func LastImagePrompt(history []models.Message) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		msg := history[i]
		if msg.Role != models.RoleAssistant {
			continue
		}
		if match := imageReplyPattern.FindStringSubmatch(msg.Content); match != nil {
			return match[1], true
		}
	}
	return "", false
}

// Enhance дописывает к прошлому промпту описания по ключевым словам из modification.
// Без прошлого промпта возвращает fallback. Если ни одно слово не совпало,
// modification добавляется как есть.
func Enhance(original string, hasOriginal bool, modification, fallback string) string {
	if !hasOriginal {
		return fallback
	}

	lower := strings.ToLower(modification)
	var added []string
	for _, m := range modifiers {
		if !strings.Contains(lower, m.keyword) {
			continue
		}
		// "more colorful" и "colorful" дают одно и то же описание
		if contains(added, m.descriptor) {
			continue
		}
		added = append(added, m.descriptor)
	}

	if len(added) == 0 {
		return original + ", " + modification
	}
	return original + ", " + strings.Join(added, ", ")
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
