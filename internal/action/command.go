package action

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"text/template"

	"mcpchain/internal/logging"
)

// ErrCommandFailed wraps every failure reported by a [Command].
var ErrCommandFailed = errors.New("command action failed")

// ArgData is the data available to argument templates, e.g. "--server={{.EntryID}}".
type ArgData struct {
	EntryID string
}

// Command runs an external process for each invocation.
//
// The input is written to the process's stdin as JSON (null for no input).
// The process reports progress and its result as JSON lines on stdout (see
// [Event]). A non-zero exit status or an error event fails the invocation;
// the trimmed stderr is included in the error.
type Command struct {
	// Binary is the executable to run, looked up in PATH if not absolute.
	Binary string

	// Args are Go templates expanded with [ArgData].
	Args []string

	// Env is appended to the current environment.
	Env []string

	// Dir is the working directory. Empty uses the current directory.
	Dir string

	parser *Parser
}

// NewCommand creates a [Command] for binary with templated args.
func NewCommand(binary string, args ...string) *Command {
	return &Command{
		Binary: binary,
		Args:   args,
		parser: NewParser(),
	}
}

// Invoke runs the process and returns the data of its last output event.
func (c *Command) Invoke(ctx context.Context, entryID string, input any) (any, error) {
	args, err := expandArgs(c.Args, ArgData{EntryID: entryID})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCommandFailed, err)
	}

	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("%w: encode input: %v", ErrCommandFailed, err)
	}

	cmd := exec.CommandContext(ctx, c.Binary, args...)
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Dir = c.Dir
	if len(c.Env) > 0 {
		cmd.Env = append(os.Environ(), c.Env...)
	}

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %v", ErrCommandFailed, err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start %s: %v", ErrCommandFailed, c.Binary, err)
	}

	logger := logging.FromContext(ctx).With("entry_id", entryID, "binary", c.Binary)

	var (
		result   any
		failures []string
	)
	parser := c.parser
	if parser == nil {
		parser = NewParser()
	}
	for event := range parser.Parse(stdout) {
		switch event.Type {
		case EventTypeOutput:
			result = event.Data
		case EventTypeError:
			failures = append(failures, event.Message)
		case EventTypeLog:
			logger.Debug("action log", "message", event.Message)
		}
	}

	waitErr := cmd.Wait()
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	if waitErr != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" && len(failures) > 0 {
			msg = strings.Join(failures, "; ")
		}
		if msg != "" {
			return nil, fmt.Errorf("%w: %s: %v: %s", ErrCommandFailed, c.Binary, waitErr, msg)
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrCommandFailed, c.Binary, waitErr)
	}
	if len(failures) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrCommandFailed, strings.Join(failures, "; "))
	}

	return result, nil
}

func expandArgs(args []string, data ArgData) ([]string, error) {
	out := make([]string, len(args))
	for i, arg := range args {
		if !strings.Contains(arg, "{{") {
			out[i] = arg
			continue
		}
		tmpl, err := template.New("arg").Option("missingkey=error").Parse(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid argument template %q: %w", arg, err)
		}
		var buf bytes.Buffer
		if err := tmpl.Execute(&buf, data); err != nil {
			return nil, fmt.Errorf("failed to expand argument %q: %w", arg, err)
		}
		out[i] = buf.String()
	}
	return out, nil
}
