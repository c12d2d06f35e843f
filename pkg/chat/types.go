package chat

import "time"

// Room is a named chat channel with an owner. Rooms are immutable once
// created; there is no edit or delete.
type Room struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
}

// Event is one chat message. Timestamp is present on history entries and
// absent on live frames, so it never participates in equality.
type Event struct {
	Sender    string     `json:"sender"`
	Text      string     `json:"text"`
	Timestamp *time.Time `json:"timestamp,omitempty"`
}

// SameMessage reports whether two events carry the same sender and text.
// This is the duplicate rule for consecutive stream arrivals; timestamps
// are deliberately ignored.
func (e Event) SameMessage(other Event) bool {
	return e.Sender == other.Sender && e.Text == other.Text
}
