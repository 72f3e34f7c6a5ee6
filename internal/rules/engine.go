package rules

import (
	"context"
	"fmt"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/mail-agent/internal/mailbox"
	"github.com/nhle/mail-agent/internal/model"
)

// Notifier receives notifications raised by notify actions.
type Notifier interface {
	CreateNotification(ctx context.Context, n model.Notification) error
}

// Outcome is the result of running one action.
type Outcome struct {
	Rule    string
	Kind    model.ActionKind
	Skipped bool
	Err     error
}

// Engine runs rule actions against a mailbox.
type Engine struct {
	mail     mailbox.Mailbox
	notifier Notifier
	log      *zap.Logger
	now      func() time.Time
}

// NewEngine creates an Engine. notifier may be nil, in which case notify
// actions are only logged.
func NewEngine(mail mailbox.Mailbox, notifier Notifier, log *zap.Logger) *Engine {
	if log == nil {
		log = zap.NewNop()
	}
	return &Engine{
		mail:     mail,
		notifier: notifier,
		log:      log.Named("rules"),
		now:      time.Now,
	}
}

// ExecuteActions runs the actions of rule in order. A failing or panicking
// action is logged and does not stop the ones after it.
func (e *Engine) ExecuteActions(
	ctx context.Context,
	email model.EmailMessage,
	analysis model.EmailAnalysis,
	rule model.ProcessingRule,
) []Outcome {
	outcomes := make([]Outcome, 0, len(rule.Actions))

	for _, action := range rule.Actions {
		log := e.log.With(
			zap.String("rule", rule.Name),
			zap.String("action", string(action.Kind())),
			zap.String("uid", email.UID),
		)

		skipped, err := e.runAction(ctx, log, email, analysis, rule, action)
		if err != nil {
			log.Error("action failed", zap.Error(err))
		}

		outcomes = append(outcomes, Outcome{
			Rule:    rule.Name,
			Kind:    action.Kind(),
			Skipped: skipped,
			Err:     err,
		})
	}

	return outcomes
}

func (e *Engine) runAction(
	ctx context.Context,
	log *zap.Logger,
	email model.EmailMessage,
	analysis model.EmailAnalysis,
	rule model.ProcessingRule,
	action model.Action,
) (skipped bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
			log.Error("action panicked", zap.ByteString("stack", debug.Stack()))
		}
	}()

	switch a := action.(type) {
	case model.ArchiveAction:
		if err := e.mail.Archive(ctx, email.UID); err != nil {
			return false, fmt.Errorf("archiving: %w", err)
		}
		log.Info("archived email")

	case model.MarkReadAction:
		if err := e.mail.MarkRead(ctx, email.UID); err != nil {
			return false, fmt.Errorf("marking read: %w", err)
		}
		log.Info("marked email read")

	case model.ForwardAction:
		if a.To == "" {
			log.Warn("forward action has no destination, skipping")
			return true, nil
		}
		if err := e.mail.Send(ctx, a.To, ForwardSubject(email), ForwardBody(email), ""); err != nil {
			return false, fmt.Errorf("forwarding to %s: %w", a.To, err)
		}
		log.Info("forwarded email", zap.String("to", a.To))

	case model.NotifyAction:
		log.Info("notification",
			zap.String("priority", a.Priority),
			zap.String("subject", email.Subject),
			zap.String("sender", email.Sender),
			zap.String("category", string(analysis.Category)),
		)
		if e.notifier == nil {
			return false, nil
		}
		n := model.Notification{
			ID:        uuid.NewString(),
			EmailUID:  email.UID,
			Rule:      rule.Name,
			Priority:  a.Priority,
			Message:   fmt.Sprintf("%s from %s", email.Subject, email.Sender),
			CreatedAt: e.now(),
		}
		if err := e.notifier.CreateNotification(ctx, n); err != nil {
			return false, fmt.Errorf("saving notification: %w", err)
		}

	case model.AutoReplyAction:
		subject := "Re: " + email.Subject
		if err := e.mail.Send(ctx, email.Sender, subject, ReplyBody(a.Template), email.UID); err != nil {
			return false, fmt.Errorf("sending auto-reply: %w", err)
		}
		log.Info("sent auto-reply", zap.String("template", string(a.Template)))

	case model.UnknownAction:
		log.Warn("unknown action type, skipping")
		return true, nil

	default:
		log.Warn("unhandled action", zap.String("type", fmt.Sprintf("%T", action)))
		return true, nil
	}

	return false, nil
}
