package service

import (
	"context"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"

	"go.uber.org/zap"
)

// Conversations derives the user's conversation list from the message store:
// one entry per distinct partner, newest activity first, annotated with last
// message and unread count. Recomputed per request; the store is the single
// source of truth and a missed live push is healed here.
func (s *MessageService) Conversations(ctx context.Context, userID string) ([]*model.ConversationSummary, error) {
	feed, err := s.store.FindAllForIdentity(ctx, userID)
	if err != nil {
		return nil, err
	}

	summaries := foldConversations(feed, userID)

	// One batch lookup for every real partner; never per-message.
	partnerIDs := make([]string, 0, len(summaries))
	for _, c := range summaries {
		if c.PartnerID != model.PartnerAdmins {
			partnerIDs = append(partnerIDs, c.PartnerID)
		}
	}

	identities, err := s.users.FindIdentities(ctx, partnerIDs)
	if err != nil {
		return nil, err
	}

	for _, c := range summaries {
		if c.PartnerID == model.PartnerAdmins {
			c.Partner = &model.Partner{
				UserID: model.PartnerAdmins,
				Name:   "All Admins",
				Role:   model.RoleAdmin,
			}
			continue
		}
		if u, ok := identities[c.PartnerID]; ok {
			c.Partner = &model.Partner{
				UserID:       u.UserID,
				Name:         u.Name,
				Role:         u.Role,
				Avatar:       u.Avatar,
				BusinessName: u.BusinessName,
			}
		}
	}

	s.logger.Debug("conversations aggregated",
		zap.String("user_id", userID),
		zap.Int("messages", len(feed)),
		zap.Int("conversations", len(summaries)),
	)
	return summaries, nil
}

// foldConversations groups a newest-first message feed into per-partner
// summaries, preserving first-seen order so the list is ordered by newest
// activity. The fold is pure so the grouping and unread semantics can be
// tested without a store.
func foldConversations(feed []model.Message, userID string) []*model.ConversationSummary {
	byPartner := make(map[string]*model.ConversationSummary)
	var ordered []*model.ConversationSummary

	for i := range feed {
		msg := &feed[i]
		key := partnerKey(msg, userID)
		if key == "" {
			continue
		}

		conv, ok := byPartner[key]
		if !ok {
			conv = &model.ConversationSummary{
				PartnerID: key,
				// Feed is newest-first, so the first message seen per
				// partner is that conversation's latest.
				LastMessage: msg,
			}
			byPartner[key] = conv
			ordered = append(ordered, conv)
		}

		if msg.UnreadFor(userID) {
			conv.UnreadCount++
		}
	}

	return ordered
}

// partnerKey computes which conversation a message belongs to from the
// perspective of userID. Direct messages pair with whichever side is not the
// user. Broadcasts sent by the user collapse into the synthetic admin-group
// thread; broadcasts received by the user pair with the human sender.
// Scoping never enters the key: order-scoped and general traffic with the
// same partner is one running thread.
func partnerKey(msg *model.Message, userID string) string {
	if msg.IsBroadcast() {
		if msg.SenderID == userID {
			return model.PartnerAdmins
		}
		if msg.AddressedTo(userID) {
			return msg.SenderID
		}
		return ""
	}

	switch userID {
	case msg.SenderID:
		return msg.ReceiverID
	case msg.ReceiverID:
		return msg.SenderID
	}
	return ""
}
