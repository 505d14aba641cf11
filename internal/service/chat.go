package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"creditdash/internal/agent"
	"creditdash/internal/session"
)

var ErrEmptyQuestion = errors.New("question is empty")

const (
	errorPrefix       = "❌ "
	EmptyReplyMessage = "⚠️ No response received. Please try rephrasing your question."
)

var sampleQuestions = []string{
	"Create a table of financial metrics for HealthTech Solutions",
	"Show me all of John Williams's deals in the watchlist",
	"List deals where commitment changed more than 2% between now and March 31st",
	"For each month-end starting from the beginning of the current year, what is the total exposure?",
	"Total count of deals for ACME",
	"What is the total fair value for top 10 deals",
}

// Agent is the part of agent.Client the chat flow needs.
type Agent interface {
	Run(ctx context.Context, text string, threadID string, onFragment func(string)) (agent.Reply, error)
}

type ChatService struct {
	Agent  Agent
	Logger *zap.Logger
	Now    func() time.Time
}

func (s *ChatService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

func (s *ChatService) SampleQuestions() []string {
	return append([]string(nil), sampleQuestions...)
}

// Ask runs one chat interaction against a copy of state and returns the
// updated copy together with the assistant message that was appended. Agent
// failures are reported in the message, not as an error.
func (s *ChatService) Ask(ctx context.Context, state *session.State, question string, onFragment func(string)) (*session.State, session.ChatMessage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, session.ChatMessage{}, ErrEmptyQuestion
	}
	if state == nil {
		return nil, session.ChatMessage{}, session.ErrNotFound
	}
	next := state.Clone()
	next.Messages = append(next.Messages, session.ChatMessage{
		Role:      session.RoleUser,
		Content:   question,
		CreatedAt: s.now(),
	})

	reply, err := s.run(ctx, question, next.ThreadID, onFragment)
	msg := session.ChatMessage{Role: session.RoleAssistant, CreatedAt: s.now()}
	switch {
	case err != nil:
		msg.Kind = session.KindError
		msg.Content = errorPrefix + userMessage(err)
		if s.Logger != nil {
			s.Logger.Warn("chat agent call failed", zap.String("session", state.ID), zap.Error(err))
		}
	case reply.Text != "":
		msg.Kind = session.KindAnswer
		msg.Content = reply.Text
		if reply.ThreadID != "" {
			next.ThreadID = reply.ThreadID
		}
	default:
		msg.Kind = session.KindEmpty
		msg.Content = EmptyReplyMessage
	}
	next.Messages = append(next.Messages, msg)
	return next, msg, nil
}

func (s *ChatService) run(ctx context.Context, question, threadID string, onFragment func(string)) (agent.Reply, error) {
	if s.Agent == nil {
		return agent.Reply{}, &agent.Error{Kind: agent.KindUnexpected, Message: "Unexpected error: chat agent is not configured"}
	}
	return s.Agent.Run(ctx, question, threadID, onFragment)
}

func userMessage(err error) string {
	var ae *agent.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return "Unexpected error: " + err.Error()
}

// Reset returns a copy of state with the conversation cleared.
func (s *ChatService) Reset(state *session.State) *session.State {
	if state == nil {
		return nil
	}
	next := state.Clone()
	next.ClearConversation()
	return next
}
