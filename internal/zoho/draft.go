package zoho

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mvidal/replydraft/internal/model"
)

// emailPattern matches bare email addresses inside arbitrary recipient
// strings ("John Doe <john@x.com>", comma lists, malformed entries).
var emailPattern = regexp.MustCompile(`(?i)[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}`)

// ExtractEmails pulls the bare addresses out of a mixed recipient string
// and returns them comma-joined, deduplicated, in first-occurrence order.
// Display names and malformed entries are dropped.
func ExtractEmails(mixed string) string {
	matches := emailPattern.FindAllString(mixed, -1)
	seen := make(map[string]struct{}, len(matches))
	var out []string
	for _, m := range matches {
		if _, dup := seen[m]; dup {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	return strings.Join(out, ",")
}

// appendSignature joins the draft body and signature. When either side
// contains markup the join is an HTML line break, otherwise a blank line.
func appendSignature(body, signature string) string {
	if strings.Contains(body, "<") || strings.Contains(signature, "<") {
		return strings.TrimRight(body, " \t\r\n") + "<br><br>" + signature
	}
	return strings.TrimRight(body, " \t\r\n") + "\n\n" + signature
}

// CreateDraftReply creates an unsent draft reply in the account, addressed
// and threaded to the reference message. The recipient string is sanitized
// to bare addresses and the account signature is appended. Returns false on
// any non-success response; a failed draft is a recoverable per-message
// condition, not an error.
func (c *Client) CreateDraftReply(ctx context.Context, accountID string, draft model.DraftRequest) bool {
	body := draft.Body
	if signature := c.DefaultSignatureHTML(ctx, accountID); signature != "" {
		body = appendSignature(body, signature)
	}

	req := draftRequest{
		Subject:   draft.Subject,
		Content:   body,
		Mode:      "draft",
		ToAddress: ExtractEmails(draft.To),
	}
	// Tell the provider to render markup instead of escaping it.
	if strings.Contains(body, "<") {
		req.ContentType = "html"
	}
	req.FromAddress = draft.From
	if req.FromAddress == "" {
		req.FromAddress = c.cfg.FromAddress
	}
	req.InReplyTo = draft.InReplyTo
	req.References = draft.References

	path := fmt.Sprintf("/accounts/%s/messages", accountID)
	if err := c.post(ctx, path, req, nil); err != nil {
		c.logCallFailure("create draft", err)
		return false
	}

	c.log.WithField("reference_message_id", draft.ReferenceMessageID).Info("draft reply created")
	return true
}
