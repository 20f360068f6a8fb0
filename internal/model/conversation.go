package model

// PartnerAdmins is the synthetic partner key for broadcast messages addressed
// to the admin group. A sender's feed shows one running thread with "all
// admins" instead of one thread per admin.
const PartnerAdmins = "admins"

// Partner identifies the other side of a conversation as shown in a
// conversation list entry. For broadcast threads the fields are synthetic.
type Partner struct {
	UserID       string `json:"userId"`
	Name         string `json:"name"`
	Role         string `json:"role"`
	Avatar       string `json:"avatar,omitempty"`
	BusinessName string `json:"businessName,omitempty"`
}

// ConversationSummary is one entry of a user's conversation list: a distinct
// partner annotated with the newest message and the number of messages the
// requesting user has not acknowledged. Conversations are derived from the
// message store on demand; they have no persistence of their own.
type ConversationSummary struct {
	PartnerID   string   `json:"partnerId"`
	Partner     *Partner `json:"partner,omitempty"`
	LastMessage *Message `json:"lastMessage"`
	UnreadCount int      `json:"unreadCount"`
}
