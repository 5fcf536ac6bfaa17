package domain

// Batch is a deletion unit: a media anchor message, the optional role
// announcement and any trailing non-media replies. Members are kept in
// arrival order with the anchor first.
type Batch struct {
	// ID is the anchor message identifier. It never changes.
	ID string

	// Anchor is the message whose channel is used for deletion.
	Anchor *Message

	// Members contains every message belonging to the batch.
	Members []*Message
}

// NewBatch creates a batch anchored at the given message.
func NewBatch(anchor *Message) *Batch {
	return &Batch{
		ID:      anchor.ID,
		Anchor:  anchor,
		Members: []*Message{anchor},
	}
}

// Add appends a member to the batch.
func (b *Batch) Add(msg *Message) {
	b.Members = append(b.Members, msg)
}

// Size returns the number of members in the batch.
func (b *Batch) Size() int {
	return len(b.Members)
}

// ChannelID returns the channel the batch lives in.
func (b *Batch) ChannelID() string {
	return b.Anchor.ChannelID
}

// MemberIDs returns the identifiers of all members in order.
func (b *Batch) MemberIDs() []string {
	ids := make([]string, len(b.Members))
	for i, m := range b.Members {
		ids[i] = m.ID
	}
	return ids
}

// BatchSummary is a read-only view of an open batch.
type BatchSummary struct {
	ID      string
	Members int
}
