package zoho

import "encoding/json"

// apiStatus is the status envelope wrapped around every Mail API response.
type apiStatus struct {
	Code        int    `json:"code"`
	Description string `json:"description"`
}

// Account represents a Zoho Mail account.
type Account struct {
	AccountID          string `json:"accountId"`
	EmailAddress       string `json:"emailAddress"`
	AccountDisplayName string `json:"accountDisplayName"`
	IsDefault          bool   `json:"isDefault"`
}

// accountListResponse is the response for GET /accounts.
type accountListResponse struct {
	Status apiStatus `json:"status"`
	Data   []Account `json:"data"`
}

// Folder represents a mail folder. Depending on the endpoint the display
// name arrives as "name" or "folderName".
type Folder struct {
	FolderID   string `json:"folderId"`
	Name       string `json:"name"`
	FolderName string `json:"folderName"`
	FolderType string `json:"folderType"`
	Path       string `json:"path"`
}

// DisplayName returns whichever name field the API populated.
func (f Folder) DisplayName() string {
	if f.Name != "" {
		return f.Name
	}
	return f.FolderName
}

// folderListResponse is the response for GET /accounts/{id}/folders.
type folderListResponse struct {
	Status apiStatus `json:"status"`
	Data   []Folder  `json:"data"`
}

// Message is a message as returned by the list view. Raw keeps the full
// decoded object because body content can hide under provider-specific keys
// (see extractBody).
type Message struct {
	MessageID   string
	Subject     string
	FromAddress string
	ToAddress   string
	Summary     string

	Raw map[string]interface{}
}

// UnmarshalJSON decodes both the known fields and the raw object.
func (m *Message) UnmarshalJSON(data []byte) error {
	var known struct {
		MessageID   string `json:"messageId"`
		Subject     string `json:"subject"`
		FromAddress string `json:"fromAddress"`
		ToAddress   string `json:"toAddress"`
		Summary     string `json:"summary"`
	}
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	m.MessageID = known.MessageID
	m.Subject = known.Subject
	m.FromAddress = known.FromAddress
	m.ToAddress = known.ToAddress
	m.Summary = known.Summary
	m.Raw = raw
	return nil
}

// messageListResponse is the response for GET /accounts/{id}/messages/view.
type messageListResponse struct {
	Status apiStatus `json:"status"`
	Data   []Message `json:"data"`
}

// MessageDetail is the full message fetch, a superset of the list view.
type MessageDetail struct {
	Message
}

// messageDetailResponse is the response for GET /accounts/{id}/messages/{mid}.
type messageDetailResponse struct {
	Status apiStatus       `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// headersResponse is the response for the message header endpoint. The data
// payload is shape-shifting (array-of-pairs vs flat map) and normalized by
// parseHeaders.
type headersResponse struct {
	Status apiStatus       `json:"status"`
	Data   json.RawMessage `json:"data"`
}

// signatureEntry is one entry from the signatures or identities endpoint,
// with the alternate key spellings both endpoints use.
type signatureEntry struct {
	Content       string `json:"content"`
	Signature     string `json:"signature"`
	SignatureText string `json:"signatureText"`
	IsDefault     bool   `json:"isDefault"`
	Default       bool   `json:"default"`
	Name          string `json:"name"`
	DisplayName   string `json:"displayName"`
}

// signatureListResponse is the response for the signatures/identities
// endpoints.
type signatureListResponse struct {
	Status apiStatus        `json:"status"`
	Data   []signatureEntry `json:"data"`
}

// draftRequest is the JSON body for draft creation via
// POST /accounts/{id}/messages.
type draftRequest struct {
	Subject     string `json:"subject"`
	Content     string `json:"content"`
	Mode        string `json:"mode"`
	ToAddress   string `json:"toAddress"`
	ContentType string `json:"contentType,omitempty"`
	FromAddress string `json:"fromAddress,omitempty"`
	InReplyTo   string `json:"inReplyTo,omitempty"`
	References  string `json:"references,omitempty"`
}
