package out

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	voiceout "miso/internal/modules/voice/port/out"
	"miso/internal/platform/config"
)

// PolicyMicrophone answers the permission request from configuration. In
// prompt mode it asks on the terminal and only an explicit yes grants access.
type PolicyMicrophone struct {
	mode string
	in   *bufio.Reader
	out  io.Writer
}

func NewPolicyMicrophone(mode string, in io.Reader, out io.Writer) voiceout.Microphone {
	return &PolicyMicrophone{mode: mode, in: bufio.NewReader(in), out: out}
}

func (m *PolicyMicrophone) RequestPermission(ctx context.Context) (bool, error) {
	switch m.mode {
	case config.MicrophoneAllow:
		return true, nil
	case config.MicrophoneDeny:
		return false, nil
	case config.MicrophonePrompt, "":
	default:
		return false, fmt.Errorf("unknown microphone mode %q", m.mode)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if _, err := fmt.Fprint(m.out, "Allow microphone access for this session? [y/N] "); err != nil {
		return false, err
	}
	line, err := m.in.ReadString('\n')
	if err != nil && err != io.EOF {
		return false, fmt.Errorf("read microphone answer: %w", err)
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
