package chat

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"supportbot/internal/history"
)

const (
	temperature = 0.7

	unsupportedDomainAnswer = "I'm sorry, but I don't have expertise in the %s domain. Please select a supported domain."
	genericErrorAnswer      = "I apologize, but I encountered an error processing your request. Please try again later."
)

type service struct {
	knowledge Matcher
	store     History
	generator Generator
	observer  *Observer
	log       *zap.Logger
	now       func() time.Time
}

// NewService builds the query orchestrator. observer may be nil.
func NewService(kn Matcher, store History, gen Generator, observer *Observer, log *zap.Logger) Service {
	return &service{
		knowledge: kn,
		store:     store,
		generator: gen,
		observer:  observer,
		log:       log,
		now:       time.Now,
	}
}

// Answer runs the full pipeline for one question. Every failure mode inside
// resolves to a valid Answer with the conversation id preserved; nothing
// escapes to the caller.
func (s *service) Answer(ctx context.Context, q Query) (out Answer) {
	started := s.now()
	conversationID := q.ConversationID

	defer func() {
		if r := recover(); r != nil {
			s.log.Error("panic while answering",
				zap.Any("panic", r), zap.String("user_id", q.UserID))
			if conversationID == "" {
				conversationID = s.synthesizeID(q.UserID)
			}
			out = Answer{
				Answer:         genericErrorAnswer,
				ConversationID: conversationID,
				Domain:         q.Domain,
				Timestamp:      s.timestamp(),
			}
		}
	}()

	domainName, supported := resolveDomain(q.Domain)
	if !supported {
		if conversationID == "" {
			conversationID = s.synthesizeID(q.UserID)
		}
		return Answer{
			Answer:         fmt.Sprintf(unsupportedDomainAnswer, q.Domain),
			ConversationID: conversationID,
			Domain:         q.Domain,
			Timestamp:      s.timestamp(),
		}
	}

	if conversationID == "" {
		conversationID = s.synthesizeID(q.UserID)
	}

	past := s.store.Read(ctx, conversationID)
	prompt := buildPrompt(s.knowledge, domainName, q.Question, past)
	answerText := cleanModelText(s.generator.Generate(ctx, prompt, temperature))

	// A cancelled request persists nothing: a turn is either fully
	// committed or absent.
	if ctx.Err() == nil {
		now := s.now().UTC()
		turn := []history.Message{
			{Role: history.RoleUser, Content: q.Question, Timestamp: now},
			{Role: history.RoleAssistant, Content: answerText, Timestamp: now},
		}
		s.store.Append(ctx, conversationID, q.UserID, domainName, past, turn)
	}

	answer := Answer{
		Answer:         answerText,
		ConversationID: conversationID,
		Domain:         domainName,
		Timestamp:      s.timestamp(),
	}

	if s.observer != nil {
		s.observer.Record(Event{
			ConversationID: conversationID,
			UserID:         q.UserID,
			Domain:         domainName,
			Question:       q.Question,
			Answer:         answerText,
			LatencyMs:      s.now().Sub(started).Milliseconds(),
			Timestamp:      answer.Timestamp,
		})
	}
	return answer
}

// synthesizeID builds conv_<userID>_<epochSeconds>. Two id-less requests
// from one user inside the same second collide; callers depend on this
// format, so the weak uniqueness stays as is.
func (s *service) synthesizeID(userID string) string {
	return fmt.Sprintf("conv_%s_%d", userID, s.now().UTC().Unix())
}

func (s *service) timestamp() string {
	return s.now().UTC().Format(time.RFC3339)
}
