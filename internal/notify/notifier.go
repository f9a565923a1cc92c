package notify

import (
	"fmt"
	"os"
	"sync"
	"time"
)

// Notifier records (recipient, subject, body) triples. It stands in for a
// real mail system; delivery failures never fail the calling operation.
type Notifier interface {
	Send(recipient, subject, body string) error
}

// LogNotifier appends notifications to a mail log file.
type LogNotifier struct {
	mu   sync.Mutex
	path string
}

var _ Notifier = (*LogNotifier)(nil)

func NewLogNotifier(path string) *LogNotifier {
	return &LogNotifier{path: path}
}

func (n *LogNotifier) Send(recipient, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	f, err := os.OpenFile(n.path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "[%s]\nTO: %s\nSUBJECT: %s\nBODY: %s\n\n",
		time.Now().Format("2006-01-02 15:04:05"), recipient, subject, body)
	return err
}
