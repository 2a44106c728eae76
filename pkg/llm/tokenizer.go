package llm

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer считает токены кодировкой cl100k_base. Для моделей HF router это
// оценка, а не точное значение.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

func NewTokenizer(encoding string) (*Tokenizer, error) {
	if encoding == "" {
		encoding = "cl100k_base"
	}
	tkm, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encoding, err)
	}
	return &Tokenizer{encoding: tkm}, nil
}

// CountTokens считает токены одного текста
func (t *Tokenizer) CountTokens(text string) int {
	return len(t.encoding.Encode(text, nil, nil))
}

// CountMessagesTokens: ~4 токена служебных на сообщение и 3 на завершение диалога
func (t *Tokenizer) CountMessagesTokens(messages []Message) int {
	tokens := 0
	for _, m := range messages {
		tokens += 4
		tokens += t.CountTokens(m.Content)
		tokens += t.CountTokens(m.Role)
	}
	return tokens + 3
}
