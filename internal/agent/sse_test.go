package agent

import (
	"strings"
	"testing"
)

func TestReadStream_IgnoresNonDataLines(t *testing.T) {
	in := strings.Join([]string{
		": keep-alive",
		"event: message",
		`data:{"message":{"content":"x"}}`,
		"",
		"id: 3",
		`data: {"message":{"content":"y"}}`,
		"data: [DONE]",
	}, "\n")
	reply, err := readStream(strings.NewReader(in), "", nil)
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if reply.Text != "xy" {
		t.Fatalf("text=%q want xy", reply.Text)
	}
}

func TestReadStream_FirstThreadWins(t *testing.T) {
	in := "data: {\"thread_id\":\"a\"}\ndata: {\"thread_id\":\"b\"}\n"
	reply, err := readStream(strings.NewReader(in), "", nil)
	if err != nil || reply.ThreadID != "a" {
		t.Fatalf("reply=%+v err=%v want thread a", reply, err)
	}
}

func TestReadStream_UnsupportedContentIsEmpty(t *testing.T) {
	in := "data: {\"message\":{\"content\":42}}\ndata: {\"message\":{\"content\":\"ok\"}}\n"
	reply, err := readStream(strings.NewReader(in), "", nil)
	if err != nil || reply.Text != "ok" {
		t.Fatalf("reply=%+v err=%v want ok", reply, err)
	}
}

func TestReadStream_ThreadIDKeptWhenContentUnreadable(t *testing.T) {
	in := strings.Join([]string{
		`data: {"thread_id":"t1","message":{"content":{"type":"tool_use"}}}`,
		`data: {"message":{"content":"hi"}}`,
		"data: [DONE]",
	}, "\n")
	var fragments []string
	reply, err := readStream(strings.NewReader(in), "", func(f string) { fragments = append(fragments, f) })
	if err != nil {
		t.Fatalf("err=%v", err)
	}
	if reply.ThreadID != "t1" || reply.Text != "hi" {
		t.Fatalf("reply=%+v want text hi thread t1", reply)
	}
	if len(fragments) != 1 || fragments[0] != "hi" {
		t.Fatalf("fragments=%q want [hi]", fragments)
	}
}

func TestContent_String(t *testing.T) {
	c := Content{Parts: []Part{{Text: "a"}, {Text: ""}, {Text: "b"}}}
	if got := c.String(); got != "ab" {
		t.Fatalf("got=%q want ab", got)
	}
	if got := (Content{Text: "plain"}).String(); got != "plain" {
		t.Fatalf("got=%q want plain", got)
	}
}
