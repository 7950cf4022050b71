package llm

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const defaultCompatibleModel = "llama3.1"

// compatibleBackend talks to any server exposing the OpenAI chat
// completions API (Ollama, vLLM, LiteLLM and similar)
type compatibleBackend struct {
	client openai.Client
	model  string
}

func newCompatibleBackend(baseURL, apiKey, model string) *compatibleBackend {
	opts := []option.RequestOption{option.WithBaseURL(baseURL)}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	} else {
		// the SDK refuses to send requests without some key
		opts = append(opts, option.WithAPIKey("unused"))
	}
	return &compatibleBackend{
		client: openai.NewClient(opts...),
		model:  orDefault(model, defaultCompatibleModel),
	}
}

func (b *compatibleBackend) Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
	}

	completion, err := b.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion request: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("no response from %s", b.model)
	}
	return completion.Choices[0].Message.Content, nil
}
