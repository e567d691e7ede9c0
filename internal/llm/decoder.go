package llm

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

const doneSentinel = "[DONE]"

// recordDecoder turns arbitrarily chunked bytes into text deltas. It only
// inspects complete lines; an incomplete trailing line stays pending until
// more bytes arrive or the stream is flushed.
type recordDecoder struct {
	pending []byte
	done    bool
	records int
	skipped int
}

// Feed appends chunk and processes every complete line. It reports whether the
// [DONE] sentinel has been seen; after that the decoder ignores further input.
func (d *recordDecoder) Feed(chunk []byte, onDelta func(string)) bool {
	if d.done {
		return true
	}
	d.pending = append(d.pending, chunk...)

	for {
		idx := bytes.IndexByte(d.pending, '\n')
		if idx < 0 {
			return false
		}
		line := d.pending[:idx]

		payload, ok := dataPayload(line)
		if !ok {
			d.pending = d.pending[idx+1:]
			continue
		}
		if payload == doneSentinel {
			d.done = true
			d.records++
			d.pending = nil
			return true
		}

		content, err := decodeDelta(payload)
		if err != nil {
			// The record stays at the head of the buffer; wait for more bytes.
			return false
		}
		d.pending = d.pending[idx+1:]
		d.records++
		if content != "" {
			onDelta(content)
		}
	}
}

// Flush processes whatever is left once the stream has ended. Records that
// still do not decode are skipped.
func (d *recordDecoder) Flush(onDelta func(string)) {
	if d.done || len(d.pending) == 0 {
		d.pending = nil
		return
	}
	rest := d.pending
	d.pending = nil

	for _, line := range bytes.Split(rest, []byte{'\n'}) {
		payload, ok := dataPayload(line)
		if !ok {
			continue
		}
		d.records++
		if payload == doneSentinel {
			d.done = true
			return
		}
		content, err := decodeDelta(payload)
		if err != nil {
			d.skipped++
			continue
		}
		if content != "" {
			onDelta(content)
		}
	}
}

// Done reports whether the sentinel was seen.
func (d *recordDecoder) Done() bool { return d.done }

// Records returns the number of data records seen, the sentinel included.
func (d *recordDecoder) Records() int { return d.records }

// Skipped returns the number of malformed records dropped during Flush.
func (d *recordDecoder) Skipped() int { return d.skipped }

// dataPayload returns the trimmed payload of a "data:" line. Comments, blank
// lines and other fields report false.
func dataPayload(line []byte) (string, bool) {
	line = bytes.TrimSuffix(line, []byte{'\r'})
	if len(bytes.TrimSpace(line)) == 0 || line[0] == ':' {
		return "", false
	}
	rest, found := bytes.CutPrefix(line, []byte("data:"))
	if !found {
		return "", false
	}
	return string(bytes.TrimSpace(rest)), true
}

func decodeDelta(payload string) (string, error) {
	var chunk openai.ChatCompletionStreamResponse
	if err := json.Unmarshal([]byte(payload), &chunk); err != nil {
		return "", fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if len(chunk.Choices) == 0 {
		return "", nil
	}
	return chunk.Choices[0].Delta.Content, nil
}
