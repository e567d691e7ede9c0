package llm

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func deltaRecord(content string) string {
	return `data: {"choices":[{"delta":{"content":"` + content + `"}}]}` + "\n\n"
}

type collector struct {
	deltas []string
}

func (c *collector) onDelta(s string) { c.deltas = append(c.deltas, s) }

func TestRecordDecoder_SplitMidJSON(t *testing.T) {
	input := "data: {\"choices\":[{\"delta\":{\"content\":\"Hi\"}}]}\n\ndata: [DONE]\n"

	for split := 1; split < len(input); split++ {
		var dec recordDecoder
		var c collector

		done := dec.Feed([]byte(input[:split]), c.onDelta)
		if !done {
			done = dec.Feed([]byte(input[split:]), c.onDelta)
		}
		dec.Flush(c.onDelta)

		assert.True(t, done, "split at %d", split)
		assert.Equal(t, []string{"Hi"}, c.deltas, "split at %d", split)
	}
}

func TestRecordDecoder_ByteByByte(t *testing.T) {
	input := deltaRecord("Sta") + deltaRecord("y calm") + deltaRecord(". Seek help.") + "data: [DONE]\n"

	var dec recordDecoder
	var c collector
	for i := 0; i < len(input); i++ {
		dec.Feed([]byte{input[i]}, c.onDelta)
	}

	assert.True(t, dec.Done())
	assert.Equal(t, []string{"Sta", "y calm", ". Seek help."}, c.deltas)
	assert.Equal(t, "Stay calm. Seek help.", strings.Join(c.deltas, ""))
}

func TestRecordDecoder_IgnoresCommentsBlankLinesAndOtherFields(t *testing.T) {
	input := ": keep-alive\n\r\n" +
		"event: message\n" +
		"id: 7\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"A\"}}]}\r\n" +
		"data: {\"choices\":[{\"delta\":{}}]}\n" +
		"data: {\"choices\":[]}\n" +
		"data: {\"choices\":[{\"delta\":{\"content\":\"\"}}]}\n" +
		"data:{\"choices\":[{\"delta\":{\"content\":\"B\"}}]}\n"

	var dec recordDecoder
	var c collector
	done := dec.Feed([]byte(input), c.onDelta)

	assert.False(t, done)
	assert.Equal(t, []string{"A", "B"}, c.deltas)
}

func TestRecordDecoder_IgnoresRecordsAfterDone(t *testing.T) {
	input := deltaRecord("one") + "data: [DONE]\n" + deltaRecord("two")

	var dec recordDecoder
	var c collector
	assert.True(t, dec.Feed([]byte(input), c.onDelta))
	assert.True(t, dec.Feed([]byte(deltaRecord("three")), c.onDelta))
	dec.Flush(c.onDelta)

	assert.Equal(t, []string{"one"}, c.deltas)
}

func TestRecordDecoder_IncompleteTrailingLineStaysBuffered(t *testing.T) {
	var dec recordDecoder
	var c collector

	dec.Feed([]byte(deltaRecord("first")+`data: {"choices":[{"delta":{"content":"sec`), c.onDelta)
	assert.Equal(t, []string{"first"}, c.deltas)

	dec.Feed([]byte(`ond"}}]}`+"\n"), c.onDelta)
	assert.Equal(t, []string{"first", "second"}, c.deltas)
}

func TestRecordDecoder_MalformedRecordWaitsThenIsSkippedOnFlush(t *testing.T) {
	var dec recordDecoder
	var c collector

	dec.Feed([]byte("data: {\"choices\":[{\"delta\"\n"), c.onDelta)
	dec.Feed([]byte(deltaRecord("after")), c.onDelta)
	assert.Empty(t, c.deltas, "records behind an unparsable line wait for it")

	dec.Flush(c.onDelta)

	assert.Equal(t, []string{"after"}, c.deltas)
	assert.Equal(t, 1, dec.Skipped())
}

func TestRecordDecoder_FlushHandlesUnterminatedFinalRecord(t *testing.T) {
	var dec recordDecoder
	var c collector

	dec.Feed([]byte(`data: {"choices":[{"delta":{"content":"tail"}}]}`), c.onDelta)
	assert.Empty(t, c.deltas)

	dec.Flush(c.onDelta)
	assert.Equal(t, []string{"tail"}, c.deltas)
}

func TestRecordDecoder_FlushStopsAtDone(t *testing.T) {
	var dec recordDecoder
	var c collector

	dec.Feed([]byte("data: {broken\n"+"data: [DONE]\n"+deltaRecord("late")), c.onDelta)
	dec.Flush(c.onDelta)

	assert.True(t, dec.Done())
	assert.Empty(t, c.deltas)
}

func TestRecordDecoder_CountsRecords(t *testing.T) {
	var dec recordDecoder
	var c collector

	dec.Feed([]byte(": ping\n\nevent: message\n"), c.onDelta)
	assert.Zero(t, dec.Records())

	dec.Feed([]byte("data: {\"choices\":[]}\n"+"data: {broken\n"), c.onDelta)
	assert.Equal(t, 1, dec.Records())

	dec.Flush(c.onDelta)
	assert.Equal(t, 2, dec.Records())
	assert.Equal(t, 1, dec.Skipped())
	assert.Empty(t, c.deltas)
}
