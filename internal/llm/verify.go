package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/deepseek"
	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/kaptinlin/jsonrepair"
	"go.uber.org/zap"

	"github.com/yikesong/finsight/config"
)

const verifySystemPrompt = `You are a fact-checker and logical validator.
Analyze the given conclusion and provide:
1. Whether the conclusion is logically sound
2. Any factual errors or questionable claims
3. Alternative interpretations
4. Confidence level (high/medium/low)
Be concise but thorough.`

// ModelName 将简称映射到后端模型ID
func ModelName(alias string) string {
	switch alias {
	case "r1", "reasoner":
		return "deepseek-reasoner"
	case "coder":
		return "deepseek-coder"
	case "", "chat":
		return "deepseek-chat"
	default:
		return alias
	}
}

// NewChatModel 按配置的提供商构建聊天模型
func NewChatModel(ctx context.Context, cfg *config.Config, modelName string) (model.ChatModel, error) {
	switch cfg.LLMProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
		}
		maxTokens := 4096
		temperature := float32(0.7)
		return openai.NewChatModel(ctx, &openai.ChatModelConfig{
			BaseURL:     cfg.OpenAIBaseURL,
			APIKey:      cfg.OpenAIAPIKey,
			Model:       modelName,
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	default:
		if cfg.DeepSeekAPIKey == "" {
			return nil, fmt.Errorf("DEEPSEEK_API_KEY environment variable not set")
		}
		return deepseek.NewChatModel(ctx, &deepseek.ChatModelConfig{
			APIKey:      cfg.DeepSeekAPIKey,
			Model:       modelName,
			MaxTokens:   4096,
			Temperature: 0.7,
		})
	}
}

type Verifier struct {
	model  model.ChatModel
	logger *zap.SugaredLogger
}

func NewVerifier(chatModel model.ChatModel, logger *zap.SugaredLogger) *Verifier {
	return &Verifier{model: chatModel, logger: logger}
}

// Verify 交叉验证一条研究结论，返回模型的分析文本
func (v *Verifier) Verify(ctx context.Context, conclusion, extra string) (string, error) {
	prompt := buildVerifyPrompt(conclusion, extra)

	v.logger.Debugw("verifying conclusion", "length", len(conclusion))
	resp, err := v.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(verifySystemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}
	return resp.Content, nil
}

// VerifyJSON 要求模型输出结构化裁决，并修复常见的JSON格式瑕疵
func (v *Verifier) VerifyJSON(ctx context.Context, conclusion, extra string) (string, error) {
	prompt := buildVerifyPrompt(conclusion, extra) +
		"\n\nRespond ONLY with a JSON object: {\"sound\": bool, \"issues\": [string], \"alternatives\": [string], \"confidence\": \"high|medium|low\"}"

	resp, err := v.model.Generate(ctx, []*schema.Message{
		schema.SystemMessage(verifySystemPrompt),
		schema.UserMessage(prompt),
	})
	if err != nil {
		return "", fmt.Errorf("llm generate: %w", err)
	}

	content := stripCodeFence(resp.Content)
	repaired, err := jsonrepair.JSONRepair(content)
	if err != nil {
		return "", fmt.Errorf("repair llm json: %w", err)
	}
	return repaired, nil
}

func buildVerifyPrompt(conclusion, extra string) string {
	var b strings.Builder
	b.WriteString("Please verify this conclusion:\n\n")
	b.WriteString(conclusion)
	if extra != "" {
		b.WriteString("\n\nContext: ")
		b.WriteString(extra)
	}
	b.WriteString("\n\nProvide your analysis in a structured format.")
	return b.String()
}

func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		s = strings.TrimPrefix(s, "```json")
		s = strings.TrimPrefix(s, "```")
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}
