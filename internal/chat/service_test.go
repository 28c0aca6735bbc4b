package chat

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"supportbot/internal/history"
	"supportbot/internal/knowledge"
)

type fakeHistory struct {
	msgs    map[string][]history.Message
	appends int
}

func newFakeHistory() *fakeHistory {
	return &fakeHistory{msgs: map[string][]history.Message{}}
}

func (f *fakeHistory) Read(_ context.Context, conversationID string) []history.Message {
	return f.msgs[conversationID]
}

func (f *fakeHistory) Append(_ context.Context, conversationID, _, _ string, previous, fresh []history.Message) {
	f.appends++
	f.msgs[conversationID] = append(append([]history.Message{}, previous...), fresh...)
}

func (f *fakeHistory) Summary(_ context.Context, conversationID string) (*history.Summary, error) {
	msgs, ok := f.msgs[conversationID]
	if !ok {
		return nil, nil
	}
	return &history.Summary{ConversationID: conversationID, MessageCount: len(msgs)}, nil
}

func (f *fakeHistory) List(_ context.Context) ([]history.Summary, error) {
	var out []history.Summary
	for id, msgs := range f.msgs {
		out = append(out, history.Summary{ConversationID: id, MessageCount: len(msgs)})
	}
	return out, nil
}

type fakeGenerator struct {
	reply   string
	prompts []string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string, _ float32) string {
	f.prompts = append(f.prompts, prompt)
	return f.reply
}

type panickyGenerator struct{}

func (panickyGenerator) Generate(context.Context, string, float32) string {
	panic("generator exploded")
}

func testKnowledge() *knowledge.Index {
	return knowledge.NewIndex(map[string][]knowledge.Entry{
		"Customer Support": {
			{Question: "How do I get a refund?", Answer: "Refunds are processed within 5 business days."},
			{Question: "How can I track my order?", Answer: "Use the tracking link in your shipping confirmation email."},
		},
		"Travel": {
			{Question: "Do I need a visa?", Answer: "Depends on your citizenship."},
		},
	})
}

func newTestService(gen Generator, store History) (*service, time.Time) {
	now := time.Date(2025, 6, 1, 10, 30, 0, 0, time.UTC)
	svc := &service{
		knowledge: testKnowledge(),
		store:     store,
		generator: gen,
		log:       zap.NewNop(),
		now:       func() time.Time { return now },
	}
	return svc, now
}

func TestAnswerUnsupportedDomain(t *testing.T) {
	gen := &fakeGenerator{reply: "never used"}
	store := newFakeHistory()
	svc, now := newTestService(gen, store)

	got := svc.Answer(context.Background(), Query{
		UserID:   "u1",
		Domain:   "legal",
		Question: "Can I sue my landlord?",
	})

	assert.Contains(t, got.Answer, "don't have expertise in the legal domain")
	assert.Equal(t, "legal", got.Domain)
	assert.Equal(t, fmt.Sprintf("conv_u1_%d", now.Unix()), got.ConversationID)

	// Short-circuit: no model call, nothing persisted.
	assert.Empty(t, gen.prompts)
	assert.Zero(t, store.appends)
}

func TestAnswerHappyPath(t *testing.T) {
	gen := &fakeGenerator{reply: "**Refunds** take 5 business days."}
	store := newFakeHistory()
	svc, _ := newTestService(gen, store)

	got := svc.Answer(context.Background(), Query{
		UserID:         "u1",
		Domain:         "customer-support",
		Question:       "What is your refund policy?",
		ConversationID: "conv_u1_42",
	})

	assert.Equal(t, "Refunds take 5 business days.", got.Answer)
	assert.Equal(t, "conv_u1_42", got.ConversationID)
	assert.Equal(t, "Customer Support", got.Domain)

	// Both turns of the exchange are persisted in order.
	msgs := store.msgs["conv_u1_42"]
	require.Len(t, msgs, 2)
	assert.Equal(t, history.RoleUser, msgs[0].Role)
	assert.Equal(t, "What is your refund policy?", msgs[0].Content)
	assert.Equal(t, history.RoleAssistant, msgs[1].Role)
	assert.Equal(t, "Refunds take 5 business days.", msgs[1].Content)
}

func TestAnswerAcceptsDisplayNameDomain(t *testing.T) {
	gen := &fakeGenerator{reply: "ok"}
	svc, _ := newTestService(gen, newFakeHistory())

	got := svc.Answer(context.Background(), Query{
		UserID:   "u1",
		Domain:   "Travel",
		Question: "Do I need a visa?",
	})
	assert.Equal(t, "Travel", got.Domain)
	assert.Equal(t, "ok", got.Answer)
}

func TestAnswerPromptCarriesGroundingAndHistory(t *testing.T) {
	gen := &fakeGenerator{reply: "grounded"}
	store := newFakeHistory()
	store.msgs["conv_u1_42"] = []history.Message{
		{Role: history.RoleUser, Content: "earlier question"},
		{Role: history.RoleAssistant, Content: "earlier answer"},
	}
	svc, _ := newTestService(gen, store)

	svc.Answer(context.Background(), Query{
		UserID:         "u1",
		Domain:         "customer-support",
		Question:       "What is your refund policy?",
		ConversationID: "conv_u1_42",
	})

	require.Len(t, gen.prompts, 1)
	prompt := gen.prompts[0]
	assert.Contains(t, prompt, "Authoritative answer from the knowledge base:")
	assert.Contains(t, prompt, "Refunds are processed within 5 business days.")
	assert.Contains(t, prompt, "User: earlier question")
	assert.Contains(t, prompt, "Assistant: earlier answer")
	assert.Contains(t, prompt, "Current question: What is your refund policy?")
}

func TestAnswerRecoversFromPanic(t *testing.T) {
	store := newFakeHistory()
	svc, _ := newTestService(panickyGenerator{}, store)

	got := svc.Answer(context.Background(), Query{
		UserID:         "u1",
		Domain:         "customer-support",
		Question:       "What is your refund policy?",
		ConversationID: "conv_u1_42",
	})

	assert.Equal(t, genericErrorAnswer, got.Answer)
	assert.Equal(t, "conv_u1_42", got.ConversationID)
	assert.Zero(t, store.appends)
}

func TestAnswerRecoversFromPanicWithoutConversationID(t *testing.T) {
	svc, now := newTestService(panickyGenerator{}, newFakeHistory())

	got := svc.Answer(context.Background(), Query{
		UserID:   "u9",
		Domain:   "customer-support",
		Question: "boom",
	})

	assert.Equal(t, genericErrorAnswer, got.Answer)
	assert.Equal(t, fmt.Sprintf("conv_u9_%d", now.Unix()), got.ConversationID)
}

func TestAnswerSkipsPersistenceWhenCancelled(t *testing.T) {
	gen := &fakeGenerator{reply: "late answer"}
	store := newFakeHistory()
	svc, _ := newTestService(gen, store)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	got := svc.Answer(ctx, Query{
		UserID:         "u1",
		Domain:         "customer-support",
		Question:       "anything",
		ConversationID: "conv_u1_42",
	})

	// The answer contract still holds, but no partial turn is committed.
	assert.NotEmpty(t, got.Answer)
	assert.Zero(t, store.appends)
}

func TestSynthesizedConversationIDFormat(t *testing.T) {
	svc, now := newTestService(&fakeGenerator{reply: "x"}, newFakeHistory())
	id := svc.synthesizeID("alice")
	assert.Equal(t, fmt.Sprintf("conv_alice_%d", now.Unix()), id)
}

func TestBuildPromptShapes(t *testing.T) {
	kn := testKnowledge()

	strong := buildPrompt(kn, "Customer Support", "What is your refund policy?", nil)
	assert.Contains(t, strong, "Authoritative answer from the knowledge base:")

	// Word overlap below the confidence bar but above zero: related-only shape.
	related := buildPrompt(kn, "Customer Support", "weird shipping glitch annoying frustrating", nil)
	assert.Contains(t, related, "Potentially related knowledge base entries:")
	assert.NotContains(t, related, "Authoritative answer")

	// Nothing scored at all: example entries anchor the style.
	examples := buildPrompt(kn, "Customer Support", "zzz qqq xxx", nil)
	assert.Contains(t, examples, "Example questions handled in this domain:")
}

func TestTranscriptWindowsLastSix(t *testing.T) {
	var msgs []history.Message
	for i := 0; i < 10; i++ {
		msgs = append(msgs, history.Message{Role: history.RoleUser, Content: fmt.Sprintf("m%d", i)})
	}

	got := transcript(msgs)
	assert.NotContains(t, got, "m3")
	assert.Contains(t, got, "m4")
	assert.Contains(t, got, "m9")
	assert.Len(t, strings.Split(got, "\n"), contextWindow)
}

func TestCleanModelText(t *testing.T) {
	in := "**Bold** and __also bold__.\n\n\n\n- item one\n- item two"
	want := "Bold and also bold.\n\n- item one\n- item two"
	assert.Equal(t, want, cleanModelText(in))
}
