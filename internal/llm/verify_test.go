package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"go.uber.org/zap"
)

type scriptedModel struct {
	reply    string
	messages []*schema.Message
}

func (m *scriptedModel) Generate(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	m.messages = in
	return schema.AssistantMessage(m.reply, nil), nil
}

func (m *scriptedModel) Stream(ctx context.Context, in []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, nil
}

func (m *scriptedModel) BindTools(tools []*schema.ToolInfo) error { return nil }

func TestModelName(t *testing.T) {
	cases := map[string]string{
		"":                  "deepseek-chat",
		"chat":              "deepseek-chat",
		"r1":                "deepseek-reasoner",
		"coder":             "deepseek-coder",
		"deepseek-reasoner": "deepseek-reasoner",
	}
	for alias, want := range cases {
		if got := ModelName(alias); got != want {
			t.Errorf("ModelName(%q) = %q, want %q", alias, got, want)
		}
	}
}

func TestVerifyBuildsPrompt(t *testing.T) {
	mock := &scriptedModel{reply: "The conclusion is sound."}
	v := NewVerifier(mock, zap.NewNop().Sugar())

	got, err := v.Verify(context.Background(), "宁德时代Q3增速超预期", "三份券商研报")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if got != "The conclusion is sound." {
		t.Fatalf("unexpected reply: %q", got)
	}

	if len(mock.messages) != 2 {
		t.Fatalf("expected system + user messages, got %d", len(mock.messages))
	}
	if mock.messages[0].Role != schema.System || !strings.Contains(mock.messages[0].Content, "fact-checker") {
		t.Fatalf("bad system message: %+v", mock.messages[0])
	}
	user := mock.messages[1].Content
	if !strings.Contains(user, "宁德时代Q3增速超预期") || !strings.Contains(user, "Context: 三份券商研报") {
		t.Fatalf("user prompt missing conclusion or context: %q", user)
	}
}

func TestVerifyJSONRepairsFencedOutput(t *testing.T) {
	mock := &scriptedModel{reply: "```json\n{\"sound\": true, \"issues\": [], \"alternatives\": [], \"confidence\": \"high\",}\n```"}
	v := NewVerifier(mock, zap.NewNop().Sugar())

	got, err := v.VerifyJSON(context.Background(), "创业板指数处于多头排列", "")
	if err != nil {
		t.Fatalf("VerifyJSON: %v", err)
	}
	if !strings.Contains(got, `"confidence"`) || strings.Contains(got, "```") {
		t.Fatalf("expected repaired bare JSON, got %q", got)
	}
	if strings.Contains(got, `",}`) {
		t.Fatalf("trailing comma not repaired: %q", got)
	}
}

func TestStripCodeFence(t *testing.T) {
	if got := stripCodeFence("```json\n{\"a\":1}\n```"); got != `{"a":1}` {
		t.Fatalf("stripCodeFence = %q", got)
	}
	if got := stripCodeFence(`{"a":1}`); got != `{"a":1}` {
		t.Fatalf("plain JSON should pass through, got %q", got)
	}
}
