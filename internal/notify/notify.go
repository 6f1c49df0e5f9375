// Package notify sends import status emails.
package notify

import (
	"context"
	"fmt"
	"html"
	"path"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/kosarica/catalog-service/internal/importlog"
)

// Kind is the notification type.
type Kind string

const (
	KindError   Kind = "error"
	KindSuccess Kind = "success"
)

// Plan says which notifications a transform run sends.
type Plan struct {
	Error   bool
	Success bool
}

// PlanFor computes the notifications for a transform run. hasError is the
// persisted error flag after the run and queued whether records are still
// waiting in the staging queue. Both kinds can be sent for the same run.
func PlanFor(hasError, queued bool) Plan {
	return Plan{
		Error:   hasError && queued,
		Success: queued,
	}
}

// Kinds lists the planned kinds, error first.
func (p Plan) Kinds() []Kind {
	var kinds []Kind
	if p.Error {
		kinds = append(kinds, KindError)
	}
	if p.Success {
		kinds = append(kinds, KindSuccess)
	}
	return kinds
}

// Attachment is a file sent with a message.
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// Message is an HTML email.
type Message struct {
	Kind        Kind
	To          []string
	Subject     string
	HTML        string
	Attachments []Attachment
}

// Compose builds the message for kind. logBase is the directory or URL
// the dated log file is published under.
func Compose(kind Kind, to []string, siteURL, logBase string, now time.Time) Message {
	logLink := path.Join(logBase, importlog.FileName(now))
	if strings.HasPrefix(logBase, "http://") || strings.HasPrefix(logBase, "https://") {
		logLink = strings.TrimRight(logBase, "/") + "/" + importlog.FileName(now)
	}
	logLink = html.EscapeString(logLink)

	msg := Message{Kind: kind, To: to}
	switch kind {
	case KindError:
		msg.Subject = "Catalog import has errors: " + siteURL
		msg.HTML = fmt.Sprintf(`Please check the log file <a href="%s">here</a> for more detail.`, logLink)
	default:
		msg.Subject = "Catalog import finished on " + siteURL
		msg.HTML = fmt.Sprintf(`A catalog import batch was processed. Please check the log file <a href="%s">here</a> for more detail.`, logLink)
	}
	return msg
}

// Notifier delivers messages.
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// LogNotifier writes messages to the log instead of sending them.
type LogNotifier struct {
	logger *zerolog.Logger
}

// NewLogNotifier creates a LogNotifier.
func NewLogNotifier(logger *zerolog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.logger.Info().
		Str("kind", string(msg.Kind)).
		Strs("to", msg.To).
		Str("subject", msg.Subject).
		Int("attachments", len(msg.Attachments)).
		Msg("Notification")
	return nil
}
