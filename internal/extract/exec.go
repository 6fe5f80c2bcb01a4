package extract

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"
)

// DefaultTimeout bounds a single extractor invocation.
const DefaultTimeout = 60 * time.Second

// Extractor invokes an external extraction command. The command is an
// argv prefix; the stage, prim path and attribute are appended, plus
// --time when the query carries one. The command must print a JSON
// payload on stdout.
type Extractor struct {
	Command []string
	Timeout time.Duration
}

// Run executes the extractor for one query and decodes its output.
func (e *Extractor) Run(ctx context.Context, stage, primPath, attribute string, timeCode *float64) (*Payload, error) {
	if len(e.Command) == 0 {
		return nil, fmt.Errorf("no extractor command configured")
	}
	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	args := append([]string{}, e.Command[1:]...)
	args = append(args, stage, primPath, attribute)
	if timeCode != nil {
		args = append(args, "--time", strconv.FormatFloat(*timeCode, 'f', -1, 64))
	}

	cmd := exec.CommandContext(ctx, e.Command[0], args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return nil, fmt.Errorf("extractor %s: %w", e.Command[0], err)
		}
		return nil, fmt.Errorf("extractor %s: %w: %s", e.Command[0], err, msg)
	}
	p, err := DecodeJSON(&stdout)
	if err != nil {
		return nil, fmt.Errorf("extractor %s: %w", e.Command[0], err)
	}
	return p, nil
}
