package agent

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
)

const maxFrameBytes = 1024 * 1024

// Content is the content field of a stream frame: either a plain string or a
// list of parts. Any other shape decodes as empty content.
type Content struct {
	Text  string
	Parts []Part
}

// Part is a list element of Content. The agent sends either bare strings or
// objects with a text field; other objects carry no text.
type Part struct {
	Text string
}

func (p *Part) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		return nil
	}
	if b[0] == '"' {
		return json.Unmarshal(b, &p.Text)
	}
	if b[0] == '{' {
		var obj struct {
			Text *string `json:"text"`
		}
		if err := json.Unmarshal(b, &obj); err != nil {
			return err
		}
		if obj.Text != nil {
			p.Text = *obj.Text
		}
		return nil
	}
	return nil
}

func (c *Content) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		return nil
	case b[0] == '"':
		return json.Unmarshal(b, &c.Text)
	case b[0] == '[':
		if err := json.Unmarshal(b, &c.Parts); err != nil {
			c.Parts = nil
		}
		return nil
	default:
		// Objects and scalars carry no display text; the rest of the frame,
		// including its thread id, still applies.
		return nil
	}
}

// String flattens the content into display text.
func (c Content) String() string {
	if len(c.Parts) == 0 {
		return c.Text
	}
	var sb strings.Builder
	for _, p := range c.Parts {
		sb.WriteString(p.Text)
	}
	return sb.String()
}

type frameBody struct {
	Content *Content `json:"content"`
}

type frame struct {
	ThreadID string     `json:"thread_id"`
	Message  *frameBody `json:"message"`
	Delta    *frameBody `json:"delta"`
}

// text returns the frame's fragment. A message body wins over a delta.
func (f frame) text() string {
	if f.Message != nil {
		if f.Message.Content == nil {
			return ""
		}
		return f.Message.Content.String()
	}
	if f.Delta != nil && f.Delta.Content != nil {
		return f.Delta.Content.String()
	}
	return ""
}

// readStream drains an agent event stream. threadID is the caller's thread;
// a thread id from the stream is adopted only when the caller had none, and
// only the first one seen. Malformed frames are skipped.
func readStream(r io.Reader, threadID string, onFragment func(string)) (Reply, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxFrameBytes)

	var sb strings.Builder
	reply := Reply{ThreadID: threadID}
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			break
		}
		var f frame
		if err := json.Unmarshal([]byte(data), &f); err != nil {
			continue
		}
		if f.ThreadID != "" && reply.ThreadID == "" {
			reply.ThreadID = f.ThreadID
		}
		if frag := f.text(); frag != "" {
			sb.WriteString(frag)
			if onFragment != nil {
				onFragment(frag)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return Reply{}, err
	}
	reply.Text = sb.String()
	return reply, nil
}
