package agent

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nhle/mail-agent/internal/mailbox"
	"github.com/nhle/mail-agent/internal/metrics"
	"github.com/nhle/mail-agent/internal/model"
	"github.com/nhle/mail-agent/internal/rules"
)

// ErrAlreadyRunning is returned by Run when the agent is already running.
var ErrAlreadyRunning = errors.New("agent is already running")

// Classifier analyzes emails and drafts replies.
type Classifier interface {
	// ClassifyBatch returns one analysis per email, in input order.
	ClassifyBatch(ctx context.Context, emails []model.EmailMessage) ([]model.EmailAnalysis, error)

	// GenerateResponse returns reply text, or "" when none was produced.
	GenerateResponse(
		ctx context.Context,
		email model.EmailMessage,
		analysis model.EmailAnalysis,
		extra string,
	) (string, error)
}

// HistoryRecorder stores an audit entry for each processed email.
type HistoryRecorder interface {
	RecordProcessed(ctx context.Context, rec model.ProcessedRecord) error
}

// Config holds the orchestrator settings.
type Config struct {
	Interval            time.Duration
	MaxEmailsPerBatch   int
	AutoReply           bool
	RequireConfirmation bool
	ResponseContext     string
}

// ConfigFrom converts the file configuration.
func ConfigFrom(c model.AgentConfig) Config {
	return Config{
		Interval:            c.Interval(),
		MaxEmailsPerBatch:   c.MaxEmailsPerBatch,
		AutoReply:           c.AutoReply,
		RequireConfirmation: c.RequireConfirmation,
		ResponseContext:     c.ResponseContext,
	}
}

// Options carries the optional collaborators of an Agent.
type Options struct {
	// Ledger defaults to an unbounded ledger.
	Ledger   *Ledger
	History  HistoryRecorder
	Notifier rules.Notifier
	Metrics  *metrics.Metrics
	Logger   *zap.Logger
}

// Agent polls a mailbox, classifies unread email and applies rules. One
// cycle runs at a time and emails within a cycle are handled in order.
type Agent struct {
	cfg        Config
	mail       mailbox.Mailbox
	classifier Classifier
	rules      []model.ProcessingRule
	engine     *rules.Engine
	ledger     *Ledger
	history    HistoryRecorder
	metrics    *metrics.Metrics
	log        *zap.Logger
	now        func() time.Time

	triggerCh chan struct{}
	cycleMu   sync.Mutex

	mu     sync.Mutex
	state  State
	cancel context.CancelFunc
	status Status
}

// New creates an Agent. The rule list is used as given for the lifetime of
// the agent.
func New(
	cfg Config,
	mail mailbox.Mailbox,
	classifier Classifier,
	ruleSet []model.ProcessingRule,
	opts Options,
) *Agent {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	ledger := opts.Ledger
	if ledger == nil {
		ledger = NewLedger(0)
	}

	return &Agent{
		cfg:        cfg,
		mail:       mail,
		classifier: classifier,
		rules:      ruleSet,
		engine:     rules.NewEngine(mail, opts.Notifier, log),
		ledger:     ledger,
		history:    opts.History,
		metrics:    opts.Metrics,
		log:        log.Named("agent"),
		now:        time.Now,
		triggerCh:  make(chan struct{}, 1),
	}
}

// Run connects to the mailbox and polls until ctx is cancelled or Stop is
// called. A failed connect, or a panic escaping the loop, is returned; a
// requested stop returns nil. The mailbox is disconnected on return.
func (a *Agent) Run(ctx context.Context) (err error) {
	a.mu.Lock()
	if a.state == StateRunning {
		a.mu.Unlock()
		return ErrAlreadyRunning
	}
	runCtx, cancel := context.WithCancel(ctx)
	a.state = StateRunning
	a.cancel = cancel
	a.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("agent loop panicked: %v", r)
			a.log.Error("agent stopped by panic",
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
		}

		cancel()
		if dErr := a.mail.Disconnect(); dErr != nil {
			a.log.Warn("disconnecting mailbox", zap.Error(dErr))
		}

		a.mu.Lock()
		a.state = StateStopped
		a.cancel = nil
		if err != nil {
			a.status.LastError = err
		}
		a.mu.Unlock()

		a.log.Info("agent stopped")
	}()

	if err := a.mail.Connect(runCtx); err != nil {
		if mailbox.IsAuthError(err) {
			return fmt.Errorf("mailbox rejected the credentials, check email.username and email.password: %w", err)
		}
		return fmt.Errorf("connecting to mailbox: %w", err)
	}

	a.log.Info("agent started",
		zap.Duration("interval", a.cfg.Interval),
		zap.Int("batch", a.cfg.MaxEmailsPerBatch),
		zap.Int("rules", len(a.rules)),
		zap.Bool("auto_reply", a.cfg.AutoReply),
		zap.Bool("require_confirmation", a.cfg.RequireConfirmation),
	)

	for {
		// Batch errors are logged and recorded in the status by RunOnce.
		_, _ = a.RunOnce(runCtx)

		if !a.sleep(runCtx) {
			return nil
		}
	}
}

// sleep waits for the interval, a trigger, or cancellation. It returns
// false when the agent should stop.
func (a *Agent) sleep(ctx context.Context) bool {
	timer := time.NewTimer(a.cfg.Interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	case <-a.triggerCh:
		a.log.Info("cycle triggered manually")
		return true
	}
}

// Stop asks a running agent to stop. It returns immediately.
func (a *Agent) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.cancel != nil {
		a.cancel()
	}
}

// Trigger cuts the current sleep short so the next cycle starts now.
func (a *Agent) Trigger() {
	select {
	case a.triggerCh <- struct{}{}:
	default:
	}
}

// CycleReport summarizes one polling cycle.
type CycleReport struct {
	ID        string
	Fetched   int
	Processed int
	Skipped   int
	Evicted   int
}

// RunOnce runs one fetch, classify and process cycle. The mailbox must
// already be connected. A fetch or classification failure ends the cycle
// early and is returned.
func (a *Agent) RunOnce(ctx context.Context) (CycleReport, error) {
	a.cycleMu.Lock()
	defer a.cycleMu.Unlock()

	report := CycleReport{ID: uuid.NewString()}
	log := a.log.With(zap.String("cycle", report.ID))
	start := a.now()

	result, complete, err := a.runCycle(ctx, log, &report)

	// Entries only age when the fetch returned every unread email. A failed
	// fetch, or one cut off by the batch limit, says nothing about which
	// processed emails are still unread.
	if complete {
		report.Evicted = a.ledger.EndCycle()
	}
	a.metrics.Ledger(a.ledger.Len(), report.Evicted)
	a.metrics.ObserveCycle(result, a.now().Sub(start))

	a.mu.Lock()
	a.status.Cycles++
	a.status.LastCycle = start
	a.status.LastError = err
	a.mu.Unlock()

	if err != nil {
		log.Error("cycle failed", zap.Error(err))
		return report, err
	}

	if report.Evicted > 0 {
		log.Debug("compacted processed set", zap.Int("evicted", report.Evicted))
	}
	return report, nil
}

// runCycle reports complete when the fetch succeeded and was not truncated
// by the batch limit.
func (a *Agent) runCycle(
	ctx context.Context, log *zap.Logger, report *CycleReport,
) (result string, complete bool, err error) {
	limit := a.cfg.MaxEmailsPerBatch
	emails, err := a.mail.FetchUnread(ctx, limit)
	if err != nil {
		return metrics.CycleError, false, fmt.Errorf("fetching unread emails: %w", err)
	}
	report.Fetched = len(emails)
	complete = limit <= 0 || len(emails) < limit

	for _, email := range emails {
		a.ledger.Observe(email.UID)
	}

	if len(emails) == 0 {
		log.Debug("no unread emails")
		return metrics.CycleEmpty, complete, nil
	}

	log.Info("processing batch", zap.Int("emails", len(emails)))

	analyses, err := a.classifier.ClassifyBatch(ctx, emails)
	if err != nil {
		return metrics.CycleError, complete, fmt.Errorf("classifying batch: %w", err)
	}
	if len(analyses) != len(emails) {
		return metrics.CycleError, complete, fmt.Errorf(
			"classifier returned %d analyses for %d emails", len(analyses), len(emails))
	}

	for i, email := range emails {
		if ctx.Err() != nil {
			break
		}
		if a.processSafely(ctx, email, analyses[i]) {
			report.Processed++
		} else {
			report.Skipped++
		}
	}

	return metrics.CycleOK, complete, nil
}

// processSafely runs ProcessOne and contains any panic to this email.
func (a *Agent) processSafely(
	ctx context.Context,
	email model.EmailMessage,
	analysis model.EmailAnalysis,
) (processed bool) {
	defer func() {
		if r := recover(); r != nil {
			a.log.Error("processing email panicked",
				zap.String("uid", email.UID),
				zap.Any("panic", r),
				zap.ByteString("stack", debug.Stack()),
			)
			processed = false
		}
	}()
	return a.ProcessOne(ctx, email, analysis)
}

// ProcessOne applies rules, the reply policy and read marking to one email.
// It returns false without doing anything if the email was already
// processed during this run.
func (a *Agent) ProcessOne(
	ctx context.Context,
	email model.EmailMessage,
	analysis model.EmailAnalysis,
) bool {
	log := a.log.With(
		zap.String("uid", email.UID),
		zap.String("subject", email.Subject),
		zap.String("sender", email.Sender),
	)

	if a.ledger.Contains(email.UID) {
		log.Debug("already processed, skipping")
		a.metrics.EmailSkipped()
		return false
	}

	log.Info("processing email",
		zap.String("category", string(analysis.Category)),
		zap.Int("priority", analysis.Priority),
		zap.Bool("requires_response", analysis.RequiresResponse),
	)

	matched := rules.SelectMatching(email, analysis, a.rules)
	matchedNames := make([]string, 0, len(matched))
	for _, rule := range matched {
		matchedNames = append(matchedNames, rule.Name)
		log.Info("rule matched", zap.String("rule", rule.Name))

		for _, o := range a.engine.ExecuteActions(ctx, email, analysis, rule) {
			a.metrics.Action(string(o.Kind), actionResult(o))
		}
	}

	replied := a.respond(ctx, log, email, analysis)

	processedAt := a.now()
	a.ledger.Record(email.UID, processedAt)

	markedRead := false
	if analysis.Priority < model.PriorityKeepUnread {
		if err := a.mail.MarkRead(ctx, email.UID); err != nil {
			log.Error("marking email read", zap.Error(err))
		} else {
			markedRead = true
		}
	} else {
		log.Info("leaving high priority email unread")
	}

	a.metrics.EmailProcessed(string(analysis.Category))
	a.recordHistory(ctx, log, model.ProcessedRecord{
		UID:          email.UID,
		Subject:      email.Subject,
		Sender:       email.Sender,
		Category:     analysis.Category,
		Priority:     analysis.Priority,
		Confidence:   analysis.Confidence,
		MatchedRules: matchedNames,
		Replied:      replied,
		MarkedRead:   markedRead,
		ProcessedAt:  processedAt,
	})

	return true
}

// respond generates and sends a reply when the analysis asks for one and the
// configuration allows it. It reports whether a reply was sent.
func (a *Agent) respond(
	ctx context.Context,
	log *zap.Logger,
	email model.EmailMessage,
	analysis model.EmailAnalysis,
) (sent bool) {
	if !analysis.RequiresResponse {
		return false
	}
	if a.cfg.RequireConfirmation || !a.cfg.AutoReply {
		log.Info("response needed but automatic replies are disabled")
		a.metrics.Reply(metrics.ReplySuppressed)
		return false
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error("generating response panicked", zap.Any("panic", r))
			a.metrics.Reply(metrics.ReplyFailed)
			sent = false
		}
	}()

	text, err := a.classifier.GenerateResponse(ctx, email, analysis, a.cfg.ResponseContext)
	if err != nil {
		log.Error("generating response", zap.Error(err))
		text = ""
	}
	if strings.TrimSpace(text) == "" {
		log.Warn("no response generated")
		a.metrics.Reply(metrics.ReplyEmpty)
		return false
	}

	if err := a.mail.Send(ctx, email.Sender, replySubject(email.Subject), text, email.UID); err != nil {
		log.Error("sending response",
			zap.Error(err),
			zap.Bool("permanent", mailbox.IsPermanent(err)),
		)
		if mailbox.IsPermanent(err) {
			a.metrics.Reply(metrics.ReplyRejected)
		} else {
			a.metrics.Reply(metrics.ReplyFailed)
		}
		return false
	}

	log.Info("sent generated response")
	a.metrics.Reply(metrics.ReplySent)
	return true
}

func (a *Agent) recordHistory(ctx context.Context, log *zap.Logger, rec model.ProcessedRecord) {
	if a.history == nil {
		return
	}
	if err := a.history.RecordProcessed(ctx, rec); err != nil {
		log.Warn("recording history", zap.Error(err))
	}
}

// replySubject prefixes "Re: " unless the subject already starts with "Re:".
func replySubject(subject string) string {
	if strings.HasPrefix(subject, "Re:") {
		return subject
	}
	return "Re: " + subject
}

func actionResult(o rules.Outcome) string {
	switch {
	case mailbox.IsPermanent(o.Err):
		return metrics.ActionRejected
	case o.Err != nil:
		return metrics.ActionFailed
	case o.Skipped:
		return metrics.ActionSkipped
	default:
		return metrics.ActionOK
	}
}
