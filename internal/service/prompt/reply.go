package prompt

import (
	"strings"
)

// ImageSentinel маркер в ответе модели: дальше идёт промпт для картинки
const ImageSentinel = "GENERATE_IMAGE:"

// NoResponse подставляется, когда модель вернула пустой текст
const NoResponse = "No response"

// Reply разобранный ответ модели: PlainReply или ImageRequest
type Reply interface {
	isReply()
}

type PlainReply struct {
	Text string
}

type ImageRequest struct {
	Prompt string
}

func (PlainReply) isReply()   {}
func (ImageRequest) isReply() {}

// ParseReply разбирает текст модели один раз, на границе с LLM.
// Маркер должен стоять строго в начале ответа.
func ParseReply(completion string) Reply {
	if rest, ok := strings.CutPrefix(completion, ImageSentinel); ok {
		return ImageRequest{Prompt: strings.TrimSpace(rest)}
	}
	if strings.TrimSpace(completion) == "" {
		return PlainReply{Text: NoResponse}
	}
	return PlainReply{Text: completion}
}
