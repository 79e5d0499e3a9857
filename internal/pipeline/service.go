// Package pipeline orchestrates a reply-drafting run: list recent inbox
// messages, build a style corpus from past sent replies, generate a
// suggested reply per message, and create a threaded draft at the provider.
// Each message is drafted at most once across runs.
package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/mvidal/replydraft/internal/htmlx"
	"github.com/mvidal/replydraft/internal/model"
	"github.com/mvidal/replydraft/internal/zoho"
)

const (
	// Hardcoded Zoho folder ids used as the last resort when neither an
	// override nor a name lookup resolves a folder.
	defaultInboxFolderID = "2"
	defaultSentFolderID  = "5"

	// corpusLimit bounds how many sent messages feed the style corpus.
	corpusLimit = 50

	// minSuggestionLength is the shortest AI suggestion accepted before
	// falling back to similarity retrieval.
	minSuggestionLength = 10
)

// ErrNoAccount is returned when no account id can be resolved; the run
// cannot proceed without one.
var ErrNoAccount = errors.New("pipeline: no resolvable account id")

// MailService is the slice of the mail client the pipeline depends on.
type MailService interface {
	ResolveAccountID(ctx context.Context) (string, error)
	InboxFolderID(ctx context.Context, accountID string) string
	SentFolderID(ctx context.Context, accountID string) string
	FolderIDByName(ctx context.Context, accountID, name string) string
	ListMessages(ctx context.Context, accountID, folderID string, limit int) []zoho.Message
	MessageHeaders(ctx context.Context, accountID, folderID, messageID string) map[string]string
	MessageBody(ctx context.Context, accountID, messageID string, listMsg *zoho.Message) string
	CreateDraftReply(ctx context.Context, accountID string, draft model.DraftRequest) bool
}

// SuggestionEngine is the deterministic retrieval fallback.
type SuggestionEngine interface {
	Suggest(incoming string, pastReplies []string) string
}

// ReplyAI is the completion-based suggestion engine.
type ReplyAI interface {
	Enabled() bool
	SuggestReply(ctx context.Context, incoming string, pastReplies []string, subject, from string) string
}

// ProcessedStore tracks which messages already have a draft.
type ProcessedStore interface {
	IsProcessed(ctx context.Context, messageID string) (bool, error)
	MarkProcessed(ctx context.Context, messageID string) error
}

// Outcome classifies what happened to a single inbox message during a run.
type Outcome string

const (
	OutcomeDrafted          Outcome = "drafted"
	OutcomeAlreadyProcessed Outcome = "already-processed"
	OutcomeSkipped          Outcome = "skipped"
	OutcomeDraftFailed      Outcome = "draft-failed"
)

// MessageResult is the per-message outcome reported to the operator.
type MessageResult struct {
	MessageID string
	Subject   string
	Outcome   Outcome
	Detail    string
}

// RunReport summarizes one pipeline run.
type RunReport struct {
	RunID      uuid.UUID
	AccountID  string
	InboxID    string
	SentID     string
	Fetched    int
	CorpusSize int
	Results    []MessageResult
}

// Drafted counts the messages for which a draft was created.
func (r *RunReport) Drafted() int {
	n := 0
	for _, res := range r.Results {
		if res.Outcome == OutcomeDrafted {
			n++
		}
	}
	return n
}

// Options controls a single run.
type Options struct {
	// Limit bounds how many recent inbox messages are examined.
	Limit int

	// Reprocess drafts replies even for messages already recorded as
	// processed.
	Reprocess bool
}

// Service is the reply-drafting orchestrator.
type Service struct {
	mail      MailService
	engine    SuggestionEngine
	ai        ReplyAI
	processed ProcessedStore
	log       *logrus.Entry
}

// New creates a pipeline service.
func New(mail MailService, engine SuggestionEngine, replyAI ReplyAI, processed ProcessedStore, log *logrus.Entry) *Service {
	return &Service{
		mail:      mail,
		engine:    engine,
		ai:        replyAI,
		processed: processed,
		log:       log,
	}
}

// Run executes one sequential drafting pass. Messages are handled one at a
// time in the provider's listing order. Per-message failures are reported
// in the run report and leave the message eligible for the next run; only a
// missing account or credentials abort the run.
func (s *Service) Run(ctx context.Context, opts Options) (*RunReport, error) {
	if opts.Limit <= 0 {
		opts.Limit = 10
	}

	report := &RunReport{RunID: uuid.New()}
	log := s.log.WithField("run_id", report.RunID)

	accountID, err := s.mail.ResolveAccountID(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolving account: %w", err)
	}
	if accountID == "" {
		return nil, ErrNoAccount
	}
	report.AccountID = accountID

	report.InboxID = s.resolveFolder(ctx, accountID, s.mail.InboxFolderID, "Inbox", defaultInboxFolderID)
	report.SentID = s.resolveFolder(ctx, accountID, s.mail.SentFolderID, "Sent", defaultSentFolderID)
	log.WithFields(logrus.Fields{
		"inbox_folder": report.InboxID,
		"sent_folder":  report.SentID,
	}).Info("folders resolved")

	recent := s.mail.ListMessages(ctx, accountID, report.InboxID, opts.Limit)
	report.Fetched = len(recent)
	log.WithField("count", len(recent)).Info("fetched recent inbox messages")

	corpus := s.buildCorpus(ctx, accountID, report.SentID)
	report.CorpusSize = len(corpus)
	log.WithField("count", len(corpus)).Info("built past-reply corpus")

	for i := range recent {
		msg := &recent[i]
		if msg.MessageID == "" {
			continue
		}
		result := s.processMessage(ctx, log, accountID, report.InboxID, msg, corpus, opts.Reprocess)
		report.Results = append(report.Results, result)
	}

	return report, nil
}

// resolveFolder applies the ordered fallback chain: override-aware
// resolver, exact name lookup, hardcoded default.
func (s *Service) resolveFolder(ctx context.Context, accountID string, resolve func(context.Context, string) string, name, hardcoded string) string {
	if id := resolve(ctx, accountID); id != "" {
		return id
	}
	if id := s.mail.FolderIDByName(ctx, accountID, name); id != "" {
		return id
	}
	return hardcoded
}

// buildCorpus collects tag-stripped bodies of recent sent messages. Bodies
// already present on the list view are used directly; others trigger a full
// fetch.
func (s *Service) buildCorpus(ctx context.Context, accountID, sentID string) []string {
	past := s.mail.ListMessages(ctx, accountID, sentID, corpusLimit)
	var corpus []string
	for i := range past {
		msg := &past[i]
		if msg.MessageID == "" {
			continue
		}
		body := s.mail.MessageBody(ctx, accountID, msg.MessageID, msg)
		if body == "" {
			continue
		}
		if text := htmlx.StripTags(body); text != "" {
			corpus = append(corpus, text)
		}
	}
	return corpus
}

// processMessage runs the per-message state machine: dedup check, body and
// threading extraction, suggestion generation with fallback, draft
// creation, and processed-set recording.
func (s *Service) processMessage(ctx context.Context, log *logrus.Entry, accountID, inboxID string, msg *zoho.Message, corpus []string, reprocess bool) MessageResult {
	result := MessageResult{MessageID: msg.MessageID, Subject: msg.Subject}
	mlog := log.WithField("message_id", msg.MessageID)

	done, err := s.processed.IsProcessed(ctx, msg.MessageID)
	if err != nil {
		mlog.WithError(err).Warn("processed-set lookup failed, treating as unprocessed")
	}
	if done && !reprocess {
		mlog.Debug("skipping already processed message")
		result.Outcome = OutcomeAlreadyProcessed
		return result
	}

	incoming := htmlx.StripTags(s.mail.MessageBody(ctx, accountID, msg.MessageID, msg))

	headers := s.mail.MessageHeaders(ctx, accountID, inboxID, msg.MessageID)
	inReplyTo := headers["Message-Id"]
	if inReplyTo == "" {
		inReplyTo = headers["Message-ID"]
	}
	references := headers["References"]
	if references == "" {
		references = inReplyTo
	}

	subject := msg.Subject
	if subject == "" {
		subject = "Re:"
	}

	suggested := ""
	if s.ai.Enabled() {
		suggested = s.ai.SuggestReply(ctx, incoming, corpus, subject, msg.FromAddress)
	}
	if len(suggested) < minSuggestionLength {
		suggested = s.engine.Suggest(incoming, corpus)
	}

	if suggested == "" || msg.FromAddress == "" {
		// Nothing usable to draft; the message stays unrecorded and is
		// revisited on the next run.
		mlog.Debug("no suggestion or destination, skipping")
		result.Outcome = OutcomeSkipped
		result.Detail = "no suggestion or destination address"
		return result
	}

	ok := s.mail.CreateDraftReply(ctx, accountID, model.DraftRequest{
		ReferenceMessageID: msg.MessageID,
		Subject:            subject,
		Body:               suggested,
		To:                 msg.FromAddress,
		InReplyTo:          inReplyTo,
		References:         references,
	})
	if !ok {
		mlog.Warn("draft creation failed, message stays eligible for retry")
		result.Outcome = OutcomeDraftFailed
		result.Detail = "draft creation failed"
		return result
	}

	if err := s.processed.MarkProcessed(ctx, msg.MessageID); err != nil {
		mlog.WithError(err).Error("recording processed message failed")
	}
	mlog.Info("draft created")
	result.Outcome = OutcomeDrafted
	return result
}
