package obs

import (
	"context"

	"github.com/sirupsen/logrus"
)

// Level is the severity of a user-facing notice.
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// Notice is a non-blocking message for the user, the toast of the UI layer.
type Notice struct {
	Level   Level
	Title   string
	Message string
}

// Notifier delivers notices to whoever is presenting the ledger.
type Notifier interface {
	Notify(ctx context.Context, n Notice)
}

// LogNotifier writes notices to a logger.
type LogNotifier struct {
	Log logrus.FieldLogger
}

// Notify implements Notifier.
func (n LogNotifier) Notify(_ context.Context, notice Notice) {
	entry := n.Log.WithField("notice", notice.Title)
	switch notice.Level {
	case LevelError:
		entry.Error(notice.Message)
	case LevelWarn:
		entry.Warn(notice.Message)
	default:
		entry.Info(notice.Message)
	}
}

// Recorder keeps notices in memory.
type Recorder struct {
	Notices []Notice
}

// Notify implements Notifier.
func (r *Recorder) Notify(_ context.Context, n Notice) {
	r.Notices = append(r.Notices, n)
}
