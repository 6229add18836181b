package quizsmith

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	openai "github.com/sashabaranov/go-openai"
)

// ErrEmptyCompletion is returned when the model answers with no text
var ErrEmptyCompletion = errors.New("model returned an empty completion")

// thinkBlock matches the reasoning section some models prepend to their answer
var thinkBlock = regexp.MustCompile(`(?s)<think>.*?</think>`)

// QuestionMaker asks a hosted chat model to write questions from study material
type QuestionMaker struct {
	client          *openai.Client
	model           string
	maxContentChars int
	logger          *LLMLogger
}

// NewQuestionMaker creates a question maker for an OpenAI-compatible endpoint
func NewQuestionMaker(cfg EndpointConfig, maxContentChars int) *QuestionMaker {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	return &QuestionMaker{
		client:          openai.NewClientWithConfig(clientCfg),
		model:           cfg.Model,
		maxContentChars: maxContentChars,
	}
}

// SetLogger sets the transcript logger; nil disables transcripts
func (qm *QuestionMaker) SetLogger(logger *LLMLogger) {
	qm.logger = logger
}

// Model returns the model name requests are sent to
func (qm *QuestionMaker) Model() string {
	return qm.model
}

// Ping sends a trivial prompt to check credentials and model access
func (qm *QuestionMaker) Ping(ctx context.Context) error {
	logger.Infof("Testing chat completion endpoint with model %s", qm.model)
	text, err := qm.complete(ctx, "Ping", "What is 2+2?")
	if err != nil {
		return err
	}
	logger.Infof("Chat completion endpoint is working (%d characters)", len(text))
	return nil
}

// GenerateMCQs returns the raw completion for numQuestions questions about content
func (qm *QuestionMaker) GenerateMCQs(ctx context.Context, content string, numQuestions int) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", errors.New("no content provided for question generation")
	}

	if qm.maxContentChars > 0 {
		if runes := []rune(content); len(runes) > qm.maxContentChars {
			content = string(runes[:qm.maxContentChars]) + "..."
			logger.Warnf("Content truncated to %d characters for model processing", qm.maxContentChars)
		}
	}

	logger.Infof("Generating %d questions with %s", numQuestions, qm.model)
	return qm.complete(ctx, "QuestionMaker", qm.buildPrompt(content, numQuestions))
}

func (qm *QuestionMaker) complete(ctx context.Context, module, prompt string) (string, error) {
	if qm.logger != nil {
		qm.logger.LogLLMRequest(module, prompt)
	}

	resp, err := qm.client.CreateChatCompletion(
		ctx,
		openai.ChatCompletionRequest{
			Model: qm.model,
			Messages: []openai.ChatCompletionMessage{
				{
					Role:    openai.ChatMessageRoleUser,
					Content: prompt,
				},
			},
		},
	)
	if err != nil {
		return "", fmt.Errorf("failed to create chat completion: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", ErrEmptyCompletion
	}

	raw := resp.Choices[0].Message.Content
	if qm.logger != nil {
		qm.logger.LogLLMResponse(module, raw)
	}

	text := strings.TrimSpace(thinkBlock.ReplaceAllString(raw, ""))
	if text == "" {
		return "", ErrEmptyCompletion
	}
	return text, nil
}

func (qm *QuestionMaker) buildPrompt(content string, numQuestions int) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Generate %d multiple choice questions from this study material.\n\n", numQuestions))
	sb.WriteString("Study Material:\n")
	sb.WriteString(content)
	sb.WriteString("\n\n")

	sb.WriteString("For each question:\n")
	sb.WriteString("- Create exactly 4 answer choices (A, B, C, D)\n")
	sb.WriteString("- Make one choice correct and three plausible but incorrect\n")
	sb.WriteString("- Prefer conceptual/testing-of-understanding style questions\n\n")

	sb.WriteString("Format each question exactly like this:\n")
	sb.WriteString("Question 1: [question text]\n")
	sb.WriteString("A) [option A]\n")
	sb.WriteString("B) [option B]\n")
	sb.WriteString("C) [option C]\n")
	sb.WriteString("D) [option D]\n")
	sb.WriteString("Correct Answer: [A/B/C/D]\n\n")

	sb.WriteString(fmt.Sprintf("Generate all %d questions now:", numQuestions))

	return sb.String()
}
