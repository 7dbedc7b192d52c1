package out

import (
	"github.com/rs/zerolog"

	"miso/internal/modules/voice/domain"
	voiceout "miso/internal/modules/voice/port/out"
)

// LogNotifier reports notices through the logger. Used by the CLI.
type LogNotifier struct {
	log zerolog.Logger
}

func NewLogNotifier(log zerolog.Logger) voiceout.Notifier {
	return LogNotifier{log: log}
}

func (n LogNotifier) Notify(notice domain.Notice) {
	ev := n.log.Warn()
	if notice.Kind == domain.NoticeCredentialFailed || notice.Kind == domain.NoticeConnectionFailed {
		ev = n.log.Error()
	}
	ev.Str("notice", string(notice.Kind)).Err(notice.Err).Msg(notice.Message)
}

// ChannelNotifier hands notices to a consumer such as the TUI. Notices are
// dropped when the buffer is full.
type ChannelNotifier struct {
	ch chan domain.Notice
}

func NewChannelNotifier(buffer int) *ChannelNotifier {
	if buffer <= 0 {
		buffer = 16
	}
	return &ChannelNotifier{ch: make(chan domain.Notice, buffer)}
}

func (n *ChannelNotifier) Notify(notice domain.Notice) {
	select {
	case n.ch <- notice:
	default:
	}
}

func (n *ChannelNotifier) Notices() <-chan domain.Notice {
	return n.ch
}

// MultiNotifier hands every notice to each notifier in order.
type MultiNotifier []voiceout.Notifier

func (m MultiNotifier) Notify(notice domain.Notice) {
	for _, n := range m {
		if n != nil {
			n.Notify(notice)
		}
	}
}
