package proto

// Envelope is one inbound message request from a client over the socket.
type Envelope struct {
	Receiver int64        `json:"receiver"`
	Text     string       `json:"text,omitempty"`
	File     *FilePayload `json:"file,omitempty"`
}

// FilePayload carries an attachment as sent by the client.
// Data is either a data URI or a bare base64 string.
type FilePayload struct {
	Name string `json:"name"`
	Data string `json:"data"`
}

// HasContent reports whether the envelope carries anything deliverable.
func (e Envelope) HasContent() bool {
	return e.Text != "" || (e.File != nil && e.File.Data != "")
}

// RosterEntry is one online connection as seen by peers.
// Unbound connections show up with a zero UserID and empty Username.
type RosterEntry struct {
	UserID   int64  `json:"userId"`
	Username string `json:"username"`
}

// RosterUpdate is pushed to every connection when membership changes.
type RosterUpdate struct {
	Online []RosterEntry `json:"online"`
}

// Delivery is pushed to each of the receiver's live connections after the
// message has been durably persisted. File is the attachment storage key,
// or null when the message has no attachment.
type Delivery struct {
	Text      string  `json:"text"`
	Sender    int64   `json:"sender"`
	Receiver  int64   `json:"receiver"`
	MessageID int64   `json:"_id"`
	File      *string `json:"file"`
}
