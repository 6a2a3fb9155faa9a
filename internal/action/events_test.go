package action

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParser_Parse(t *testing.T) {
	stream := strings.Join([]string{
		`{"type":"log","message":"connecting"}`,
		``,
		`not json at all`,
		`{"message":"no type"}`,
		`{"type":"output","data":{"files":3}}`,
		`{"type":"error","message":"quota exceeded"}`,
	}, "\n")

	var events []Event
	for e := range NewParser().Parse(strings.NewReader(stream)) {
		events = append(events, e)
	}

	require.Len(t, events, 3)
	assert.Equal(t, Event{Type: EventTypeLog, Message: "connecting"}, events[0])
	assert.Equal(t, EventTypeOutput, events[1].Type)
	assert.Equal(t, map[string]any{"files": float64(3)}, events[1].Data)
	assert.Equal(t, Event{Type: EventTypeError, Message: "quota exceeded"}, events[2])
}

func TestParser_LineTooLong(t *testing.T) {
	p := &Parser{BufferSize: 64}
	long := `{"type":"output","data":"` + strings.Repeat("x", 200) + `"}`
	stream := `{"type":"log","message":"first"}` + "\n" + long + "\n"

	var events []Event
	for e := range p.Parse(strings.NewReader(stream)) {
		events = append(events, e)
	}

	require.Len(t, events, 1)
	assert.Equal(t, "first", events[0].Message)
}

func TestParseLine(t *testing.T) {
	e, err := ParseLine(`{"type":"output","data":[1,2]}`)
	require.NoError(t, err)
	assert.Equal(t, EventTypeOutput, e.Type)
	assert.Equal(t, []any{float64(1), float64(2)}, e.Data)

	_, err = ParseLine(`{broken`)
	assert.Error(t, err)
}
