package zoho

import (
	"context"
	"fmt"
	"strings"

	"github.com/mvidal/replydraft/internal/model"
)

// Signatures fetches the account's signatures, preferring the dedicated
// signatures endpoint and falling back to identities (which often carry the
// signature text). Results are cached per account for the process lifetime;
// failed fetches are not cached so the next call retries.
func (c *Client) Signatures(ctx context.Context, accountID string) []model.Signature {
	c.sigMu.Lock()
	cached, ok := c.sigCache[accountID]
	c.sigMu.Unlock()
	if ok {
		return cached
	}

	var normalized []model.Signature

	var resp signatureListResponse
	path := fmt.Sprintf("/accounts/%s/signatures", accountID)
	if err := c.get(ctx, path, nil, &resp); err != nil {
		c.logCallFailure("list signatures", err)
	} else {
		for _, sig := range resp.Data {
			normalized = append(normalized, model.Signature{
				Content:   firstNonEmpty(sig.Content, sig.Signature),
				IsDefault: sig.IsDefault || sig.Default,
				Name:      sig.Name,
			})
		}
	}

	if len(normalized) == 0 {
		var idResp signatureListResponse
		idPath := fmt.Sprintf("/accounts/%s/identities", accountID)
		if err := c.get(ctx, idPath, nil, &idResp); err != nil {
			c.logCallFailure("list identities", err)
			return nil
		}
		for _, idn := range idResp.Data {
			normalized = append(normalized, model.Signature{
				Content:   firstNonEmpty(idn.Signature, idn.SignatureText),
				IsDefault: idn.IsDefault || idn.Default,
				Name:      firstNonEmpty(idn.DisplayName, idn.Name),
			})
		}
	}

	c.sigMu.Lock()
	c.sigCache[accountID] = normalized
	c.sigMu.Unlock()
	return normalized
}

// DefaultSignatureHTML resolves the signature to append to drafts.
// Precedence: raw HTML from configuration, named preference match,
// default-flagged signature, first signature, built-in fallback.
func (c *Client) DefaultSignatureHTML(ctx context.Context, accountID string) string {
	if c.cfg.SignatureHTML != "" {
		return c.cfg.SignatureHTML
	}

	sigs := c.Signatures(ctx, accountID)
	if len(sigs) == 0 {
		return ""
	}

	if preferred := strings.TrimSpace(c.cfg.SignatureName); preferred != "" {
		for _, s := range sigs {
			if strings.EqualFold(strings.TrimSpace(s.Name), preferred) {
				return s.Content
			}
		}
	}

	chosen := sigs[0]
	for _, s := range sigs {
		if s.IsDefault {
			chosen = s
			break
		}
	}
	if chosen.Content != "" {
		return chosen.Content
	}

	return fallbackSignatureHTML
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// fallbackSignatureHTML is appended when the account has signatures but
// none carry content. Edit here to change the built-in default without
// touching configuration.
const fallbackSignatureHTML = `<p><i><span style="color:rgb(0, 0, 153)">Best Regards,</span></i></p>
<p><br></p>
<div style="color:rgb(0, 32, 96); font-family:Verdana, Arial, Helvetica, sans-serif"><b>XYZ Interiors LLC.</b><br></div>
<div style="color:rgb(0, 32, 96)">Tel: +971 2 621 1130<br></div>
<div style="color:rgb(0, 32, 96)">W: <a target="_blank" href="http://www.xyz-interiors.com/">www.xyz-interiors.com</a><br></div>`
