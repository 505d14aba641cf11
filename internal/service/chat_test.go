package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"creditdash/internal/agent"
	"creditdash/internal/session"
)

type stubAgent struct {
	reply     agent.Reply
	err       error
	fragments []string
	gotThread string
	calls     int
}

func (s *stubAgent) Run(ctx context.Context, text string, threadID string, onFragment func(string)) (agent.Reply, error) {
	s.calls++
	s.gotThread = threadID
	if onFragment != nil {
		for _, f := range s.fragments {
			onFragment(f)
		}
	}
	return s.reply, s.err
}

func newState() *session.State {
	return &session.State{ID: "s1", Messages: []session.ChatMessage{}}
}

func TestAsk_AnswerUpdatesThread(t *testing.T) {
	ag := &stubAgent{reply: agent.Reply{Text: "Hello world", ThreadID: "t1"}, fragments: []string{"Hello ", "world"}}
	svc := &ChatService{Agent: ag}
	state := newState()

	var streamed strings.Builder
	next, msg, err := svc.Ask(context.Background(), state, "Total count of deals for ACME", func(s string) { streamed.WriteString(s) })
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if msg.Kind != session.KindAnswer || msg.Content != "Hello world" {
		t.Fatalf("msg=%+v", msg)
	}
	if next.ThreadID != "t1" {
		t.Fatalf("thread=%q want t1", next.ThreadID)
	}
	if len(next.Messages) != 2 || next.Messages[0].Role != session.RoleUser || next.Messages[1].Role != session.RoleAssistant {
		t.Fatalf("transcript=%+v", next.Messages)
	}
	if streamed.String() != "Hello world" {
		t.Fatalf("streamed=%q", streamed.String())
	}
	if len(state.Messages) != 0 {
		t.Fatalf("input state mutated: %+v", state.Messages)
	}
}

func TestAsk_ErrorKeepsThread(t *testing.T) {
	ag := &stubAgent{err: &agent.Error{Kind: agent.KindForbidden, Status: 403, Message: "Access denied."}}
	svc := &ChatService{Agent: ag}
	state := newState()
	state.ThreadID = "t1"

	next, msg, err := svc.Ask(context.Background(), state, "hi", nil)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if msg.Kind != session.KindError || msg.Content != "❌ Access denied." {
		t.Fatalf("msg=%+v", msg)
	}
	if next.ThreadID != "t1" {
		t.Fatalf("thread=%q want t1", next.ThreadID)
	}
	if ag.gotThread != "t1" {
		t.Fatalf("agent got thread %q want t1", ag.gotThread)
	}
}

func TestAsk_PlainErrorIsUnexpected(t *testing.T) {
	svc := &ChatService{Agent: &stubAgent{err: errors.New("boom")}}
	_, msg, err := svc.Ask(context.Background(), newState(), "hi", nil)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if msg.Content != "❌ Unexpected error: boom" {
		t.Fatalf("content=%q", msg.Content)
	}
}

func TestAsk_EmptyReply(t *testing.T) {
	svc := &ChatService{Agent: &stubAgent{reply: agent.Reply{ThreadID: "t2"}}}
	next, msg, err := svc.Ask(context.Background(), newState(), "hi", nil)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if msg.Kind != session.KindEmpty || msg.Content != EmptyReplyMessage {
		t.Fatalf("msg=%+v", msg)
	}
	if next.ThreadID != "" {
		t.Fatalf("empty reply must not adopt a thread, got %q", next.ThreadID)
	}
}

func TestAsk_RejectsEmptyQuestion(t *testing.T) {
	ag := &stubAgent{}
	svc := &ChatService{Agent: ag}
	if _, _, err := svc.Ask(context.Background(), newState(), "   ", nil); !errors.Is(err, ErrEmptyQuestion) {
		t.Fatalf("err=%v want ErrEmptyQuestion", err)
	}
	if ag.calls != 0 {
		t.Fatalf("agent called for empty question")
	}
}

func TestReset_ClearsConversation(t *testing.T) {
	svc := &ChatService{}
	state := newState()
	state.ThreadID = "t1"
	state.CacheGeneration = 2
	state.Messages = append(state.Messages, session.ChatMessage{Role: session.RoleUser, Content: "q"})

	next := svc.Reset(state)
	if next.ThreadID != "" || len(next.Messages) != 0 {
		t.Fatalf("reset=%+v", next)
	}
	if next.CacheGeneration != 2 {
		t.Fatalf("reset must keep the cache generation")
	}
}

func TestSampleQuestions(t *testing.T) {
	qs := (&ChatService{}).SampleQuestions()
	if len(qs) != 6 {
		t.Fatalf("len=%d want 6", len(qs))
	}
	for _, q := range qs {
		if strings.TrimSpace(q) == "" {
			t.Fatalf("blank sample question")
		}
	}
}
