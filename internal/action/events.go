package action

import (
	"bufio"
	"encoding/json"
	"io"
)

// EventType is the kind of a line emitted by a command action.
type EventType string

const (
	// EventTypeLog carries a diagnostic message in Message.
	EventTypeLog EventType = "log"

	// EventTypeOutput carries the action result in Data. When a command
	// emits several output events the last one wins.
	EventTypeOutput EventType = "output"

	// EventTypeError reports a failure in Message. Any error event fails the
	// step even if the process exits 0.
	EventTypeError EventType = "error"
)

// Event is one JSON line written to stdout by a command action:
//
//	{"type":"log","message":"connecting"}
//	{"type":"output","data":{"files":3}}
//	{"type":"error","message":"permission denied"}
type Event struct {
	Type    EventType `json:"type"`
	Message string    `json:"message,omitempty"`
	Data    any       `json:"data,omitempty"`
}

// Parser reads the JSON-lines event stream of a command action.
//
// Empty lines, lines that are not JSON, and objects without a type are
// skipped so that stray prints from the process do not break the stream.
type Parser struct {
	// BufferSize is the maximum size in bytes for a single line.
	// Defaults to 10MB if not set or <= 0.
	BufferSize int
}

// NewParser creates a [Parser] with a 10MB line limit.
func NewParser() *Parser {
	return &Parser{
		BufferSize: 10 * 1024 * 1024,
	}
}

// Parse reads events from reader until EOF. The returned channel is closed
// when the reader is exhausted or a read error occurs.
func (p *Parser) Parse(reader io.Reader) <-chan Event {
	events := make(chan Event)

	go func() {
		defer close(events)

		scanner := bufio.NewScanner(reader)

		bufSize := p.BufferSize
		if bufSize <= 0 {
			bufSize = 10 * 1024 * 1024
		}
		buf := make([]byte, 0, min(64*1024, bufSize))
		scanner.Buffer(buf, bufSize)

		for scanner.Scan() {
			event, err := ParseLine(scanner.Text())
			if err != nil || event.Type == "" {
				continue
			}
			events <- event
		}

		// keep the writer from blocking if scanning stopped early
		_, _ = io.Copy(io.Discard, reader)
	}()

	return events
}

// ParseLine parses a single line. Unlike [Parser.Parse] it reports malformed
// input as an error.
func ParseLine(line string) (Event, error) {
	var event Event
	if err := json.Unmarshal([]byte(line), &event); err != nil {
		return Event{}, err
	}
	return event, nil
}
