package llm

import "errors"

var (
	ErrEmptyMessages = errors.New("messages cannot be empty")
	ErrNoChoices     = errors.New("no choices in LLM response")
)
