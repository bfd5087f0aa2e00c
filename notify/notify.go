package notify

import (
	"fmt"
	"io"
	"sync"

	"github.com/jrsteele09/enertrack-console/session"
	"github.com/rs/zerolog"
)

// SessionExpiredMessage is the notice shown after a forced logout.
const SessionExpiredMessage = "Session expired, please log in again."

// Writer prints the session-expired notice to a terminal.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

var _ session.Notifier = (*Writer)(nil)

func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (n *Writer) SessionExpired() {
	n.mu.Lock()
	defer n.mu.Unlock()
	fmt.Fprintf(n.w, "\n! %s\n", SessionExpiredMessage)
}

// Log records the notice as a warning.
type Log struct {
	log zerolog.Logger
}

var _ session.Notifier = Log{}

func NewLog(l zerolog.Logger) Log {
	return Log{log: l}
}

func (n Log) SessionExpired() {
	n.log.Warn().Str("event", "session_expired").Msg(SessionExpiredMessage)
}

// Multi fans a notice out to several notifiers.
type Multi []session.Notifier

func (m Multi) SessionExpired() {
	for _, n := range m {
		n.SessionExpired()
	}
}
