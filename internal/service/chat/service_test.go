package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"LLM_ImageChat/internal/config"
	"LLM_ImageChat/internal/service/prompt"
	"LLM_ImageChat/internal/storage/memory"
	"LLM_ImageChat/internal/storage/models"
	"LLM_ImageChat/pkg/imagegen"
	"LLM_ImageChat/pkg/llm"

	"go.uber.org/zap"
)

type fakeLLM struct {
	mu      sync.Mutex
	replies []string
	err     error
	windows [][]llm.Message
}

func (f *fakeLLM) ChatCompletion(ctx context.Context, messages []llm.Message) (*llm.ChatResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	window := make([]llm.Message, len(messages))
	copy(window, messages)
	f.windows = append(f.windows, window)

	if f.err != nil {
		return nil, f.err
	}

	reply := "OK"
	if len(f.replies) > 0 {
		reply = f.replies[0]
		f.replies = f.replies[1:]
	}
	return &llm.ChatResponse{Choices: []llm.Choice{{Message: llm.Message{Role: "assistant", Content: reply}}}}, nil
}

func (f *fakeLLM) lastWindow() []llm.Message {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.windows) == 0 {
		return nil
	}
	return f.windows[len(f.windows)-1]
}

type fakeImages struct {
	mu      sync.Mutex
	err     error
	prompts []string
}

func (f *fakeImages) Generate(ctx context.Context, imagePrompt string, params imagegen.Params) (*imagegen.Image, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.prompts = append(f.prompts, imagePrompt)
	if f.err != nil {
		return nil, f.err
	}
	return &imagegen.Image{Data: []byte("png-bytes"), MIMEType: "image/png"}, nil
}

func (f *fakeImages) calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.prompts...)
}

type fakeCounter struct{}

func (fakeCounter) CountMessagesTokens(messages []llm.Message) int { return 10 * len(messages) }

func newTestService(t *testing.T, llmClient *fakeLLM, images *fakeImages) *Service {
	t.Helper()
	cfg := &config.ChatConfig{
		HistoryWindow:     10,
		MaxStoredMessages: 50,
		SystemPrompt:      "You are a test assistant.",
	}
	return NewService(memory.New(cfg.MaxStoredMessages), llmClient, images, cfg, imagegen.DefaultParams(), zap.NewNop())
}

func send(t *testing.T, s *Service, sessionID, message string) *ProcessMessageResponse {
	t.Helper()
	resp, err := s.ProcessMessage(context.Background(), ProcessMessageRequest{SessionID: sessionID, Message: message})
	if err != nil {
		t.Fatalf("ProcessMessage(%q) failed: %v", message, err)
	}
	return resp
}

func TestProcessMessageDirectReply(t *testing.T) {
	llmClient := &fakeLLM{replies: []string{"Hello! How can I help?"}}
	images := &fakeImages{}
	s := newTestService(t, llmClient, images)

	resp := send(t, s, "", "hi there")

	if resp.Reply != "Hello! How can I help?" || resp.Kind != KindDirect {
		t.Fatalf("unexpected response %+v", resp)
	}
	if resp.SessionID == "" || !resp.NewSession {
		t.Fatalf("expected a generated session id, got %+v", resp)
	}
	if resp.Image != "" {
		t.Fatalf("expected no image")
	}
	if len(images.calls()) != 0 {
		t.Fatalf("image service must not be called")
	}

	history, err := s.GetHistory(context.Background(), resp.SessionID)
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != 3 {
		t.Fatalf("expected system+user+assistant, got %d messages", len(history))
	}
	if history[0].Role != models.RoleSystem || history[1].Content != "hi there" || history[2].Content != "Hello! How can I help?" {
		t.Fatalf("unexpected history %+v", history)
	}

	window := llmClient.lastWindow()
	if len(window) != 2 || window[0].Role != models.RoleSystem || window[1].Content != "hi there" {
		t.Fatalf("unexpected window sent to LLM %+v", window)
	}
}

func TestProcessMessageImageMarker(t *testing.T) {
	llmClient := &fakeLLM{replies: []string{"GENERATE_IMAGE: a sunset over mountains, digital art", "Glad you like it!"}}
	images := &fakeImages{}
	s := newTestService(t, llmClient, images)

	resp := send(t, s, "abc", "draw a sunset")

	if resp.Kind != KindImageMarker {
		t.Fatalf("expected image marker reply, got %s", resp.Kind)
	}
	if resp.Reply != "I've generated an image for you: a sunset over mountains, digital art" {
		t.Fatalf("unexpected reply %q", resp.Reply)
	}
	if resp.ImagePrompt != "a sunset over mountains, digital art" {
		t.Fatalf("unexpected image prompt %q", resp.ImagePrompt)
	}
	if !strings.HasPrefix(resp.Image, "data:image/png;base64,") {
		t.Fatalf("expected data URI, got %q", resp.Image)
	}
	if resp.SessionID != "abc" {
		t.Fatalf("expected session abc, got %q", resp.SessionID)
	}

	// sessionId из ответа продолжает тот же разговор
	next := send(t, s, resp.SessionID, "thanks")
	if next.NewSession {
		t.Fatalf("expected existing session")
	}
	window := llmClient.lastWindow()
	if len(window) != 4 || window[2].Content != resp.Reply {
		t.Fatalf("expected previous image reply in window, got %+v", window)
	}
}

func TestProcessMessageImageFailureApologizes(t *testing.T) {
	llmClient := &fakeLLM{replies: []string{"GENERATE_IMAGE: a cat"}}
	images := &fakeImages{err: imagegen.ErrRequestFailed}
	s := newTestService(t, llmClient, images)

	resp := send(t, s, "s1", "draw a cat")

	if resp.Kind != KindImageFailed || resp.Reply != ImageApology {
		t.Fatalf("expected apology, got %+v", resp)
	}
	if resp.Image != "" || resp.ImagePrompt != "" {
		t.Fatalf("expected no image fields, got %+v", resp)
	}

	history, _ := s.GetHistory(context.Background(), "s1")
	if last := history[len(history)-1]; last.Role != models.RoleAssistant || last.Content != ImageApology {
		t.Fatalf("expected apology recorded, got %+v", last)
	}

	stats := s.Stats(context.Background())
	if stats.ImageFailures != 1 || stats.ImagesGenerated != 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestProcessMessageModificationHeuristic(t *testing.T) {
	llmClient := &fakeLLM{replies: []string{"GENERATE_IMAGE: a cat", "Sure, I can do that!"}}
	images := &fakeImages{}
	s := newTestService(t, llmClient, images)

	send(t, s, "s1", "draw a cat")
	resp := send(t, s, "s1", "make it more colorful")

	if resp.Kind != KindImageHeuristic {
		t.Fatalf("expected heuristic image, got %s", resp.Kind)
	}
	want := "a cat, vibrant colors, rainbow colors, bright and saturated"
	if resp.ImagePrompt != want {
		t.Fatalf("expected %q, got %q", want, resp.ImagePrompt)
	}
	calls := images.calls()
	if len(calls) != 2 || calls[1] != want {
		t.Fatalf("unexpected image calls %v", calls)
	}
}

func TestProcessMessageModificationOverridesMarkerPrompt(t *testing.T) {
	llmClient := &fakeLLM{replies: []string{
		"GENERATE_IMAGE: a cat",
		"GENERATE_IMAGE: a completely different dog",
	}}
	images := &fakeImages{}
	s := newTestService(t, llmClient, images)

	send(t, s, "s1", "draw a cat")
	resp := send(t, s, "s1", "make it darker")

	if resp.Kind != KindImageMarker {
		t.Fatalf("expected marker path, got %s", resp.Kind)
	}
	want := "a cat, dark atmosphere, moody lighting, shadows"
	if resp.ImagePrompt != want {
		t.Fatalf("expected %q, got %q", want, resp.ImagePrompt)
	}
}

func TestProcessMessageModificationWithoutPriorImage(t *testing.T) {
	llmClient := &fakeLLM{replies: []string{"What would you like me to change?"}}
	images := &fakeImages{}
	s := newTestService(t, llmClient, images)

	resp := send(t, s, "s1", "make it more colorful")

	if resp.Kind != KindDirect || resp.Reply != "What would you like me to change?" {
		t.Fatalf("expected direct reply, got %+v", resp)
	}
	if len(images.calls()) != 0 {
		t.Fatalf("image service must not be called without a prior image")
	}
}

func TestProcessMessageHeuristicFailureApologizes(t *testing.T) {
	llmClient := &fakeLLM{replies: []string{"GENERATE_IMAGE: a cat", "Sure!"}}
	images := &fakeImages{}
	s := newTestService(t, llmClient, images)

	send(t, s, "s1", "draw a cat")
	images.mu.Lock()
	images.err = errors.New("model loading")
	images.mu.Unlock()

	resp := send(t, s, "s1", "add a hat")
	if resp.Kind != KindImageFailed || resp.Reply != ImageApology {
		t.Fatalf("expected apology, got %+v", resp)
	}
}

func TestProcessMessageCompletionFailureKeepsUserTurn(t *testing.T) {
	llmClient := &fakeLLM{err: errors.New("upstream unavailable")}
	s := newTestService(t, llmClient, &fakeImages{})

	_, err := s.ProcessMessage(context.Background(), ProcessMessageRequest{SessionID: "s1", Message: "hello"})
	if err == nil {
		t.Fatalf("expected error")
	}
	if IsValidationError(err) {
		t.Fatalf("completion failure must not be a validation error")
	}

	history, err := s.GetHistory(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetHistory failed: %v", err)
	}
	if len(history) != 2 || history[1].Content != "hello" {
		t.Fatalf("expected system+user only, got %+v", history)
	}
	if s.Stats(context.Background()).CompletionFailures != 1 {
		t.Fatalf("expected completion failure recorded")
	}
}

func TestProcessMessageEmptyCompletion(t *testing.T) {
	llmClient := &fakeLLM{replies: []string{""}}
	s := newTestService(t, llmClient, &fakeImages{})

	resp := send(t, s, "s1", "hello")
	if resp.Reply != prompt.NoResponse {
		t.Fatalf("expected %q, got %q", prompt.NoResponse, resp.Reply)
	}
}

func TestProcessMessageValidation(t *testing.T) {
	s := newTestService(t, &fakeLLM{}, &fakeImages{})

	for _, msg := range []string{"", "   ", "\n\t"} {
		_, err := s.ProcessMessage(context.Background(), ProcessMessageRequest{Message: msg})
		if !errors.Is(err, ErrEmptyMessage) || !IsValidationError(err) {
			t.Fatalf("message %q: expected ErrEmptyMessage, got %v", msg, err)
		}
	}
}

func TestProcessMessageAcceptsAnyLength(t *testing.T) {
	llmClient := &fakeLLM{}
	s := newTestService(t, llmClient, &fakeImages{})

	longMessage := strings.Repeat("a", 20000)
	longSessionID := strings.Repeat("s", 500)

	resp, err := s.ProcessMessage(context.Background(), ProcessMessageRequest{SessionID: longSessionID, Message: longMessage})
	if err != nil {
		t.Fatalf("ProcessMessage failed: %v", err)
	}
	if resp.SessionID != longSessionID {
		t.Fatalf("session id must be used verbatim")
	}
	window := llmClient.lastWindow()
	if window[len(window)-1].Content != longMessage {
		t.Fatalf("long message must reach the LLM unchanged")
	}
}

func TestProcessMessageTrimsWindow(t *testing.T) {
	llmClient := &fakeLLM{}
	s := newTestService(t, llmClient, &fakeImages{}).WithTokenCounter(fakeCounter{})

	for i := 0; i < 8; i++ {
		send(t, s, "s1", fmt.Sprintf("message %d", i))
	}

	window := llmClient.lastWindow()
	if len(window) != 10 {
		t.Fatalf("expected window of 10, got %d", len(window))
	}
	if window[0].Role != models.RoleSystem {
		t.Fatalf("expected system message first")
	}
	if window[9].Content != "message 7" {
		t.Fatalf("expected latest user message last, got %q", window[9].Content)
	}

	history, _ := s.GetHistory(context.Background(), "s1")
	if len(history) != 17 {
		t.Fatalf("full history must be kept, got %d", len(history))
	}

	stats := s.Stats(context.Background())
	if stats.TotalTurns != 8 || stats.PromptTokens == 0 {
		t.Fatalf("unexpected stats %+v", stats)
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	llmClient := &fakeLLM{replies: []string{"GENERATE_IMAGE: a cat", "Sure!"}}
	images := &fakeImages{}
	s := newTestService(t, llmClient, images)

	send(t, s, "a", "draw a cat")
	resp := send(t, s, "b", "make it more colorful")

	if resp.Kind != KindDirect {
		t.Fatalf("session b must not see session a's image, got %s", resp.Kind)
	}
	if len(images.calls()) != 1 {
		t.Fatalf("expected a single image call")
	}

	window := llmClient.lastWindow()
	for _, m := range window {
		if m.Content == "draw a cat" {
			t.Fatalf("session a leaked into session b's window")
		}
	}
}

func TestGenerateImage(t *testing.T) {
	images := &fakeImages{}
	s := newTestService(t, &fakeLLM{}, images)

	img, err := s.GenerateImage(context.Background(), "a red fox")
	if err != nil {
		t.Fatalf("GenerateImage failed: %v", err)
	}
	if string(img.Data) != "png-bytes" {
		t.Fatalf("unexpected image data")
	}

	if _, err := s.GenerateImage(context.Background(), " "); !errors.Is(err, ErrEmptyPrompt) {
		t.Fatalf("expected ErrEmptyPrompt, got %v", err)
	}

	images.err = imagegen.ErrRequestFailed
	if _, err := s.GenerateImage(context.Background(), "a fox"); !errors.Is(err, imagegen.ErrRequestFailed) {
		t.Fatalf("expected wrapped ErrRequestFailed, got %v", err)
	}
}

func TestDeleteSession(t *testing.T) {
	s := newTestService(t, &fakeLLM{}, &fakeImages{})
	send(t, s, "s1", "hello")

	if err := s.DeleteSession(context.Background(), "s1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}
	if _, err := s.GetHistory(context.Background(), "s1"); !IsNotFound(err) {
		t.Fatalf("expected not found after delete, got %v", err)
	}
	if err := s.DeleteSession(context.Background(), "s1"); !IsNotFound(err) {
		t.Fatalf("expected not found on second delete, got %v", err)
	}
}

func TestConcurrentTurnsSameSession(t *testing.T) {
	s := newTestService(t, &fakeLLM{}, &fakeImages{})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if _, err := s.ProcessMessage(context.Background(), ProcessMessageRequest{
				SessionID: "shared",
				Message:   fmt.Sprintf("message %d", i),
			}); err != nil {
				t.Errorf("ProcessMessage failed: %v", err)
			}
		}(i)
	}
	wg.Wait()

	history, _ := s.GetHistory(context.Background(), "shared")
	if len(history) != 21 {
		t.Fatalf("expected 21 messages, got %d", len(history))
	}
	// ходы не перемешиваются: за каждым user идёт assistant
	for i := 1; i < len(history); i += 2 {
		if history[i].Role != models.RoleUser || history[i+1].Role != models.RoleAssistant {
			t.Fatalf("turns interleaved at %d: %s, %s", i, history[i].Role, history[i+1].Role)
		}
	}
	if s.locks.size() != 0 {
		t.Fatalf("expected no lingering session locks")
	}
}

func TestSessionLocksSerialize(t *testing.T) {
	locks := newSessionLocks()

	unlock := locks.Lock("a")
	acquired := make(chan struct{})
	go func() {
		release := locks.Lock("a")
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatalf("second lock acquired while first is held")
	case <-time.After(50 * time.Millisecond):
	}

	// другая сессия не ждёт
	otherUnlock := locks.Lock("b")
	otherUnlock()

	unlock()
	select {
	case <-acquired:
	case <-time.After(time.Second):
		t.Fatalf("second lock was never acquired")
	}
}
