package zoho

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ResolveAccountID returns the account to operate on: the configured
// override when set, else the default-flagged account from the API (first
// account when none is flagged). The resolved id is persisted onto the
// token record. An empty result with nil error means the lookup failed and
// the run cannot proceed.
func (c *Client) ResolveAccountID(ctx context.Context) (string, error) {
	if c.cfg.AccountID != "" {
		return c.cfg.AccountID, nil
	}

	var resp accountListResponse
	if err := c.get(ctx, "/accounts", nil, &resp); err != nil {
		if isCredentialErr(err) {
			return "", err
		}
		c.logCallFailure("list accounts", err)
		return "", nil
	}
	if len(resp.Data) == 0 {
		return "", nil
	}

	chosen := resp.Data[0]
	for _, a := range resp.Data {
		if a.IsDefault {
			chosen = a
			break
		}
	}
	if chosen.AccountID == "" {
		return "", nil
	}

	if err := c.tokens.store.UpdateAccountID(ctx, chosen.AccountID); err != nil {
		c.log.WithError(err).Warn("persisting resolved account id failed")
	}
	return chosen.AccountID, nil
}

// isCredentialErr reports whether the error is a fatal credential problem
// rather than an ordinary failed call.
func isCredentialErr(err error) bool {
	var re *RefreshError
	return errors.Is(err, ErrNoCredentials) || errors.As(err, &re)
}

// ListFolders returns the account's folders, or nil when the call fails.
func (c *Client) ListFolders(ctx context.Context, accountID string) []Folder {
	var resp folderListResponse
	path := fmt.Sprintf("/accounts/%s/folders", accountID)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		c.logCallFailure("list folders", err)
		return nil
	}
	return resp.Data
}

// FolderIDByName returns the id of the folder whose display name equals
// name (case-insensitive), or "".
func (c *Client) FolderIDByName(ctx context.Context, accountID, name string) string {
	for _, f := range c.ListFolders(ctx, accountID) {
		if strings.EqualFold(f.DisplayName(), name) {
			return f.FolderID
		}
	}
	return ""
}

// InboxFolderID resolves the inbox folder: configured override first, else
// the first folder whose name contains "inbox".
func (c *Client) InboxFolderID(ctx context.Context, accountID string) string {
	if c.cfg.InboxFolderID != "" {
		return c.cfg.InboxFolderID
	}
	return c.folderIDContaining(ctx, accountID, "inbox")
}

// SentFolderID resolves the sent folder: configured override first, else
// the first folder whose name contains "sent" (matches "Sent", "Sent
// Items", "Sent Mail").
func (c *Client) SentFolderID(ctx context.Context, accountID string) string {
	if c.cfg.SentFolderID != "" {
		return c.cfg.SentFolderID
	}
	return c.folderIDContaining(ctx, accountID, "sent")
}

func (c *Client) folderIDContaining(ctx context.Context, accountID, fragment string) string {
	for _, f := range c.ListFolders(ctx, accountID) {
		if strings.Contains(strings.ToLower(f.DisplayName()), fragment) {
			return f.FolderID
		}
	}
	return ""
}

// ListMessages returns one bounded page of messages from the folder, newest
// first in the provider's natural order. Nil on failure.
func (c *Client) ListMessages(ctx context.Context, accountID, folderID string, limit int) []Message {
	query := url.Values{
		"folderId": {folderID},
		"limit":    {strconv.Itoa(limit)},
	}
	var resp messageListResponse
	path := fmt.Sprintf("/accounts/%s/messages/view", accountID)
	if err := c.get(ctx, path, query, &resp); err != nil {
		c.logCallFailure("list messages", err)
		return nil
	}
	return resp.Data
}

// GetMessage fetches the full message detail with HTML formatting, or nil
// on any non-success response.
func (c *Client) GetMessage(ctx context.Context, accountID, messageID string) *MessageDetail {
	query := url.Values{"format": {"html"}}
	var resp messageDetailResponse
	path := fmt.Sprintf("/accounts/%s/messages/%s", accountID, messageID)
	if err := c.get(ctx, path, query, &resp); err != nil {
		c.logCallFailure("get message", err)
		return nil
	}

	var detail MessageDetail
	if err := json.Unmarshal(resp.Data, &detail.Message); err != nil {
		c.log.WithError(err).Error("decoding message detail failed")
		return nil
	}
	return &detail
}

// MessageHeaders fetches the threading headers of a message. The endpoint
// returns either {"headers": [{name, value}...]} or a flat string map; both
// shapes normalize to one mapping. Empty map on failure.
func (c *Client) MessageHeaders(ctx context.Context, accountID, folderID, messageID string) map[string]string {
	var resp headersResponse
	path := fmt.Sprintf("/accounts/%s/folders/%s/messages/%s/header", accountID, folderID, messageID)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		c.logCallFailure("get message headers", err)
		return map[string]string{}
	}
	return parseHeaders(resp.Data)
}

// parseHeaders normalizes the header payload shapes into a flat mapping.
func parseHeaders(data json.RawMessage) map[string]string {
	headers := map[string]string{}
	if len(data) == 0 {
		return headers
	}

	// Shape 1: {"headers": [{"name": ..., "value": ...}, ...]}
	var wrapped struct {
		Headers []struct {
			Name  string `json:"name"`
			Value string `json:"value"`
		} `json:"headers"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && len(wrapped.Headers) > 0 {
		for _, h := range wrapped.Headers {
			if h.Name != "" {
				headers[h.Name] = h.Value
			}
		}
		return headers
	}

	// Shape 2: flat map; keep only string values.
	var flat map[string]interface{}
	if err := json.Unmarshal(data, &flat); err == nil {
		for k, v := range flat {
			if s, ok := v.(string); ok {
				headers[k] = s
			}
		}
	}
	return headers
}

// bodyCandidates are the keys checked, in priority order, for body-like
// content on a message object.
var bodyCandidates = []string{
	"content", "plainContent", "plainText", "text",
	"body", "summary", "snippet", "message", "description",
}

// extractBody returns the first non-empty body-like string found on the
// object, recursing into nested containers when no top-level candidate
// matches.
func extractBody(data map[string]interface{}) string {
	if data == nil {
		return ""
	}
	for _, key := range bodyCandidates {
		if s, ok := data[key].(string); ok && s != "" {
			return s
		}
	}
	for _, value := range data {
		switch v := value.(type) {
		case map[string]interface{}:
			if inner := extractBody(v); inner != "" {
				return inner
			}
		case []interface{}:
			for _, item := range v {
				if m, ok := item.(map[string]interface{}); ok {
					if inner := extractBody(m); inner != "" {
						return inner
					}
				}
			}
		}
	}
	return ""
}

// MessageBody returns the best-effort body for a message: fields already
// present on the list-view object win, then the full detail is fetched and
// mined the same way. "" when nothing is found.
func (c *Client) MessageBody(ctx context.Context, accountID, messageID string, listMsg *Message) string {
	if listMsg != nil {
		if body := extractBody(listMsg.Raw); body != "" {
			return body
		}
	}

	detail := c.GetMessage(ctx, accountID, messageID)
	if detail == nil {
		return ""
	}
	return extractBody(detail.Raw)
}
