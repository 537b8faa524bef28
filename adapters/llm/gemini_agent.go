package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/satriahrh/voxcal/domain/entities"
	"github.com/satriahrh/voxcal/domain/repositories"
)

var (
	// ErrEmptyResponse is returned when the model produced neither text nor tool calls
	ErrEmptyResponse = errors.New("model returned an empty response")
	// ErrTooManyToolRounds is returned when the model keeps calling tools past the configured limit
	ErrTooManyToolRounds = errors.New("model exceeded the tool call limit")
)

// contentGenerator is the part of genai.Models the agent uses
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// GeminiAgent implements ReasoningEngine with Gemini function calling over the calendar tools.
// Conversation memory is kept per thread in a ThreadRepository.
type GeminiAgent struct {
	models       contentGenerator
	tools        *CalendarTools
	threads      repositories.ThreadRepository
	config       GeminiConfig
	logger       *zap.Logger
}

// NewGeminiClient creates the process-wide Gemini client
func NewGeminiClient(ctx context.Context, apiKey string) (*genai.Client, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiAgent creates the agent from an existing client
func NewGeminiAgent(client *genai.Client, tools *CalendarTools, threads repositories.ThreadRepository, config GeminiConfig, logger *zap.Logger) (*GeminiAgent, error) {
	if err := ValidateGeminiConfig(config); err != nil {
		return nil, err
	}
	return newGeminiAgent(client.Models, tools, threads, config, logger), nil
}

func newGeminiAgent(models contentGenerator, tools *CalendarTools, threads repositories.ThreadRepository, config GeminiConfig, logger *zap.Logger) *GeminiAgent {
	config = config.withDefaults()
	logger.Info("Gemini agent configured",
		zap.String("model", config.Model),
		zap.Float32("temperature", config.Temperature),
		zap.Int("maxToolRounds", config.MaxToolRounds))

	return &GeminiAgent{
		models:       models,
		tools:        tools,
		threads:      threads,
		config:       config,
		logger:       logger,
	}
}

// Invoke appends messages to the thread, runs the model until it answers in text and
// returns the thread's messages with the reply last.
func (a *GeminiAgent) Invoke(ctx context.Context, messages []repositories.ChatMessage, threadID string) ([]repositories.ChatMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, a.config.timeout())
	defer cancel()

	thread, err := loadThread(ctx, a.threads, threadID)
	if err != nil {
		return nil, err
	}

	contents := convertThreadToGeminiFormat(thread)
	for _, msg := range messages {
		thread.AddMessage(entityRole(msg.Role), msg.Content)
		contents = append(contents, genai.NewContentFromText(msg.Content, geminiRole(msg.Role)))
	}

	reply, err := a.run(ctx, contents)
	if err != nil {
		return nil, err
	}

	thread.AddMessage(entities.MessageRoleAssistant, reply)
	if err := a.threads.Save(ctx, thread); err != nil {
		return nil, fmt.Errorf("failed to save thread: %w", err)
	}

	a.logger.Info("Agent turn completed",
		zap.String("chatThreadId", threadID),
		zap.String("response_preview", reply[:min(50, len(reply))]),
		zap.Int("history_length", len(thread.Messages)))

	return convertThreadToMessages(thread), nil
}

// run drives the function calling loop
func (a *GeminiAgent) run(ctx context.Context, contents []*genai.Content) (string, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(a.config.SystemPrompt, genai.RoleUser),
		Temperature:       genai.Ptr(a.config.Temperature),
		Tools: []*genai.Tool{
			{FunctionDeclarations: a.tools.Declarations()},
		},
	}

	for round := 0; round <= a.config.MaxToolRounds; round++ {
		response, err := a.generate(ctx, contents, config)
		if err != nil {
			return "", err
		}

		if len(response.Candidates) == 0 || response.Candidates[0].Content == nil {
			return "", ErrEmptyResponse
		}
		candidate := response.Candidates[0].Content
		if candidate.Role == "" {
			candidate.Role = string(genai.RoleModel)
		}

		calls := functionCalls(candidate)
		if len(calls) == 0 {
			text := extractText(candidate)
			if text == "" {
				return "", ErrEmptyResponse
			}
			return text, nil
		}

		contents = append(contents, candidate)

		parts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			result, err := a.tools.Call(ctx, call.Name, call.Args)
			if err != nil {
				a.logger.Error("Tool call failed", zap.String("tool", call.Name), zap.Error(err))
				return "", err
			}
			part := genai.NewPartFromFunctionResponse(call.Name, result)
			part.FunctionResponse.ID = call.ID
			parts = append(parts, part)
		}
		contents = append(contents, genai.NewContentFromParts(parts, genai.RoleUser))
	}

	return "", ErrTooManyToolRounds
}

// generate calls the model once; failures end the turn
func (a *GeminiAgent) generate(ctx context.Context, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	response, err := a.models.GenerateContent(ctx, a.config.Model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}
	return response, nil
}

func functionCalls(content *genai.Content) []*genai.FunctionCall {
	var calls []*genai.FunctionCall
	for _, part := range content.Parts {
		if part != nil && part.FunctionCall != nil {
			calls = append(calls, part.FunctionCall)
		}
	}
	return calls
}

func extractText(content *genai.Content) string {
	var sb strings.Builder
	for _, part := range content.Parts {
		if part != nil && part.Text != "" && !part.Thought {
			sb.WriteString(part.Text)
		}
	}
	return strings.TrimSpace(sb.String())
}

// loadThread returns the stored thread or a new empty one
func loadThread(ctx context.Context, threads repositories.ThreadRepository, threadID string) (*entities.ChatThread, error) {
	thread, err := threads.Get(ctx, threadID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	if thread == nil {
		thread = entities.NewChatThread(threadID)
	}
	return thread, nil
}

func geminiRole(role repositories.Role) genai.Role {
	if role == repositories.AssistantRole {
		return genai.RoleModel
	}
	return genai.RoleUser
}

func entityRole(role repositories.Role) entities.MessageRole {
	if role == repositories.AssistantRole {
		return entities.MessageRoleAssistant
	}
	return entities.MessageRoleUser
}

// convertThreadToGeminiFormat converts stored messages to Gemini contents
func convertThreadToGeminiFormat(thread *entities.ChatThread) []*genai.Content {
	contents := make([]*genai.Content, 0, len(thread.Messages))
	for _, msg := range thread.Messages {
		var role genai.Role = genai.RoleUser
		if msg.Role == entities.MessageRoleAssistant {
			role = genai.RoleModel
		}
		contents = append(contents, genai.NewContentFromText(msg.Content, role))
	}
	return contents
}

func convertThreadToMessages(thread *entities.ChatThread) []repositories.ChatMessage {
	messages := make([]repositories.ChatMessage, 0, len(thread.Messages))
	for _, msg := range thread.Messages {
		role := repositories.UserRole
		if msg.Role == entities.MessageRoleAssistant {
			role = repositories.AssistantRole
		}
		messages = append(messages, repositories.ChatMessage{Role: role, Content: msg.Content})
	}
	return messages
}
