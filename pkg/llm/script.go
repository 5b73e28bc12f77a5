package llm

import (
	"context"
	"sync"

	"github.com/sashabaranov/go-openai"
)

// ScriptTransport replays canned responses in order, repeating the last one
// once the script runs out. Useful for tests and offline dry runs.
type ScriptTransport struct {
	Responses []string
	Usage     openai.Usage
	Err       error

	mu    sync.Mutex
	calls int
	reqs  []openai.ChatCompletionRequest
}

func (s *ScriptTransport) CreateChatCompletion(_ context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.calls++
	s.reqs = append(s.reqs, req)
	if s.Err != nil {
		return openai.ChatCompletionResponse{}, s.Err
	}

	if len(s.Responses) == 0 {
		// No choices at all, which the client reads as an empty payload.
		return openai.ChatCompletionResponse{Usage: s.Usage}, nil
	}
	idx := s.calls - 1
	if idx >= len(s.Responses) {
		idx = len(s.Responses) - 1
	}
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Role: "assistant", Content: s.Responses[idx]}},
		},
		Usage: s.Usage,
	}, nil
}

// Calls reports how many dispatches the transport has served.
func (s *ScriptTransport) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// Request returns the i-th dispatched request.
func (s *ScriptTransport) Request(i int) openai.ChatCompletionRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reqs[i]
}

var _ Transport = (*ScriptTransport)(nil)
