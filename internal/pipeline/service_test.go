package pipeline

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/mvidal/replydraft/internal/model"
	"github.com/mvidal/replydraft/internal/zoho"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

// fakeMail is an in-memory MailService with scripted folders and messages.
type fakeMail struct {
	accountID  string
	accountErr error
	inboxID    string
	sentID     string
	folderIDs  map[string]string
	inbox      []zoho.Message
	sent       []zoho.Message
	bodies     map[string]string
	headers    map[string]map[string]string
	draftOK    bool

	drafts []model.DraftRequest
}

func (f *fakeMail) ResolveAccountID(ctx context.Context) (string, error) {
	return f.accountID, f.accountErr
}

func (f *fakeMail) InboxFolderID(ctx context.Context, accountID string) string { return f.inboxID }

func (f *fakeMail) SentFolderID(ctx context.Context, accountID string) string { return f.sentID }

func (f *fakeMail) FolderIDByName(ctx context.Context, accountID, name string) string {
	return f.folderIDs[name]
}

func (f *fakeMail) ListMessages(ctx context.Context, accountID, folderID string, limit int) []zoho.Message {
	var src []zoho.Message
	switch folderID {
	case f.inboxID, defaultInboxFolderID:
		src = f.inbox
	case f.sentID, defaultSentFolderID:
		src = f.sent
	}
	if len(src) > limit {
		src = src[:limit]
	}
	return src
}

func (f *fakeMail) MessageHeaders(ctx context.Context, accountID, folderID, messageID string) map[string]string {
	if h, ok := f.headers[messageID]; ok {
		return h
	}
	return map[string]string{}
}

func (f *fakeMail) MessageBody(ctx context.Context, accountID, messageID string, listMsg *zoho.Message) string {
	return f.bodies[messageID]
}

func (f *fakeMail) CreateDraftReply(ctx context.Context, accountID string, draft model.DraftRequest) bool {
	f.drafts = append(f.drafts, draft)
	return f.draftOK
}

// fakeEngine returns a fixed suggestion and records the corpora it saw.
type fakeEngine struct {
	reply   string
	corpora [][]string
}

func (f *fakeEngine) Suggest(incoming string, pastReplies []string) string {
	f.corpora = append(f.corpora, pastReplies)
	return f.reply
}

// fakeAI is a scripted ReplyAI.
type fakeAI struct {
	enabled bool
	reply   string
	calls   int
}

func (f *fakeAI) Enabled() bool { return f.enabled }

func (f *fakeAI) SuggestReply(ctx context.Context, incoming string, pastReplies []string, subject, from string) string {
	f.calls++
	return f.reply
}

// fakeProcessed is an in-memory processed set.
type fakeProcessed struct {
	seen   map[string]bool
	marked []string
}

func newFakeProcessed(ids ...string) *fakeProcessed {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return &fakeProcessed{seen: seen}
}

func (f *fakeProcessed) IsProcessed(ctx context.Context, messageID string) (bool, error) {
	return f.seen[messageID], nil
}

func (f *fakeProcessed) MarkProcessed(ctx context.Context, messageID string) error {
	f.seen[messageID] = true
	f.marked = append(f.marked, messageID)
	return nil
}

func listMsg(id, subject, from string) zoho.Message {
	return zoho.Message{MessageID: id, Subject: subject, FromAddress: from}
}

func defaultFakeMail() *fakeMail {
	return &fakeMail{
		accountID: "acc",
		inboxID:   "in-1",
		sentID:    "out-1",
		inbox: []zoho.Message{
			listMsg("m1", "Quote request", "client@x.com"),
		},
		sent: []zoho.Message{
			listMsg("s1", "Re: Earlier", "me@x.com"),
		},
		bodies: map[string]string{
			"m1": "<p>Could you send the latest quote?</p>",
			"s1": "<p>Please find the quote attached.</p>",
		},
		headers: map[string]map[string]string{
			"m1": {"Message-Id": "<m1@x>", "References": "<root@x> <m1@x>"},
		},
		draftOK: true,
	}
}

func newTestService(mail *fakeMail, engine *fakeEngine, ai *fakeAI, processed *fakeProcessed) *Service {
	return New(mail, engine, ai, processed, testLogger())
}

func TestRunDraftsAndRecords(t *testing.T) {
	mail := defaultFakeMail()
	engine := &fakeEngine{reply: "Please find the quote attached."}
	processed := newFakeProcessed()
	svc := newTestService(mail, engine, &fakeAI{}, processed)

	report, err := svc.Run(context.Background(), Options{Limit: 10})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	if report.Drafted() != 1 {
		t.Fatalf("Drafted() = %d, want 1", report.Drafted())
	}
	if len(mail.drafts) != 1 {
		t.Fatalf("got %d drafts", len(mail.drafts))
	}
	d := mail.drafts[0]
	if d.To != "client@x.com" || d.Subject != "Quote request" {
		t.Errorf("draft = %+v", d)
	}
	if d.InReplyTo != "<m1@x>" || d.References != "<root@x> <m1@x>" {
		t.Errorf("threading = (%q, %q)", d.InReplyTo, d.References)
	}
	if len(processed.marked) != 1 || processed.marked[0] != "m1" {
		t.Errorf("marked = %v", processed.marked)
	}
	if report.CorpusSize != 1 {
		t.Errorf("CorpusSize = %d", report.CorpusSize)
	}
	// The corpus fed to the engine is tag-stripped.
	if len(engine.corpora) != 1 || engine.corpora[0][0] != "Please find the quote attached." {
		t.Errorf("corpus = %v", engine.corpora)
	}
}

func TestRunSkipsProcessedUnlessReprocess(t *testing.T) {
	mail := defaultFakeMail()
	engine := &fakeEngine{reply: "A long enough reply."}
	processed := newFakeProcessed("m1")
	svc := newTestService(mail, engine, &fakeAI{}, processed)

	report, err := svc.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(mail.drafts) != 0 {
		t.Fatalf("processed message must not be drafted")
	}
	if report.Results[0].Outcome != OutcomeAlreadyProcessed {
		t.Errorf("outcome = %s", report.Results[0].Outcome)
	}

	report, err = svc.Run(context.Background(), Options{Reprocess: true})
	if err != nil {
		t.Fatalf("Run with reprocess: %v", err)
	}
	if len(mail.drafts) != 1 {
		t.Errorf("reprocess must draft again, got %d drafts", len(mail.drafts))
	}
	if report.Results[0].Outcome != OutcomeDrafted {
		t.Errorf("outcome = %s", report.Results[0].Outcome)
	}
}

func TestRunDraftFailureStaysEligible(t *testing.T) {
	mail := defaultFakeMail()
	mail.draftOK = false
	processed := newFakeProcessed()
	svc := newTestService(mail, &fakeEngine{reply: "A long enough reply."}, &fakeAI{}, processed)

	report, err := svc.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.Results[0].Outcome != OutcomeDraftFailed {
		t.Errorf("outcome = %s", report.Results[0].Outcome)
	}
	if len(processed.marked) != 0 {
		t.Errorf("failed draft must not be recorded: %v", processed.marked)
	}
}

func TestRunSkipsWithoutSuggestionOrDestination(t *testing.T) {
	mail := defaultFakeMail()
	mail.inbox = append(mail.inbox, listMsg("m2", "No sender", ""))
	processed := newFakeProcessed()
	svc := newTestService(mail, &fakeEngine{reply: ""}, &fakeAI{}, processed)

	report, err := svc.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	for _, res := range report.Results {
		if res.Outcome != OutcomeSkipped {
			t.Errorf("message %s outcome = %s, want skipped", res.MessageID, res.Outcome)
		}
	}
	if len(mail.drafts) != 0 || len(processed.marked) != 0 {
		t.Errorf("skipped messages must create nothing: drafts=%d marked=%v", len(mail.drafts), processed.marked)
	}
}

func TestRunAIFallsBackToSimilarity(t *testing.T) {
	mail := defaultFakeMail()
	ai := &fakeAI{enabled: true, reply: "short"}
	engine := &fakeEngine{reply: "Retrieval reply with enough length."}
	svc := newTestService(mail, engine, ai, newFakeProcessed())

	_, err := svc.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if ai.calls != 1 {
		t.Errorf("ai.calls = %d", ai.calls)
	}
	if len(mail.drafts) != 1 || mail.drafts[0].Body != "Retrieval reply with enough length." {
		t.Errorf("drafts = %+v", mail.drafts)
	}
	if len(engine.corpora) != 1 {
		t.Errorf("fallback engine called %d times, want 1", len(engine.corpora))
	}
}

func TestRunAIReplyUsedWhenLongEnough(t *testing.T) {
	mail := defaultFakeMail()
	ai := &fakeAI{enabled: true, reply: "Thanks, the quote is on the way."}
	engine := &fakeEngine{reply: "should not be used"}
	svc := newTestService(mail, engine, ai, newFakeProcessed())

	_, err := svc.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(mail.drafts) != 1 || mail.drafts[0].Body != "Thanks, the quote is on the way." {
		t.Errorf("drafts = %+v", mail.drafts)
	}
	if len(engine.corpora) != 0 {
		t.Errorf("similarity engine called %d times despite an accepted AI reply", len(engine.corpora))
	}
}

func TestRunNoAccount(t *testing.T) {
	mail := defaultFakeMail()
	mail.accountID = ""
	svc := newTestService(mail, &fakeEngine{}, &fakeAI{}, newFakeProcessed())

	_, err := svc.Run(context.Background(), Options{})
	if !errors.Is(err, ErrNoAccount) {
		t.Errorf("err = %v, want ErrNoAccount", err)
	}
}

func TestRunAccountErrorPropagates(t *testing.T) {
	mail := defaultFakeMail()
	boom := errors.New("credentials gone")
	mail.accountErr = boom
	svc := newTestService(mail, &fakeEngine{}, &fakeAI{}, newFakeProcessed())

	_, err := svc.Run(context.Background(), Options{})
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}

func TestRunFolderFallbackChain(t *testing.T) {
	mail := defaultFakeMail()
	mail.inboxID = ""
	mail.sentID = ""
	mail.folderIDs = map[string]string{"Inbox": "by-name-in"}
	mail.inbox = nil
	svc := newTestService(mail, &fakeEngine{}, &fakeAI{}, newFakeProcessed())

	report, err := svc.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if report.InboxID != "by-name-in" {
		t.Errorf("InboxID = %q, want name lookup result", report.InboxID)
	}
	if report.SentID != defaultSentFolderID {
		t.Errorf("SentID = %q, want hardcoded default", report.SentID)
	}
}

func TestRunEmptySubjectGetsPlaceholder(t *testing.T) {
	mail := defaultFakeMail()
	mail.inbox = []zoho.Message{listMsg("m1", "", "client@x.com")}
	svc := newTestService(mail, &fakeEngine{reply: "A long enough reply."}, &fakeAI{}, newFakeProcessed())

	_, err := svc.Run(context.Background(), Options{})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(mail.drafts) != 1 || mail.drafts[0].Subject != "Re:" {
		t.Errorf("drafts = %+v", mail.drafts)
	}
}
