package service

import (
	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"
)

// sendPolicy describes one permitted directed role pair: the kind tag stamped
// on the message, whether an order context may accompany it, broadcast
// expansion, and the push-notification copy for the pair.
type sendPolicy struct {
	Kind          string
	OrderAllowed  bool
	Broadcast     bool // receiver is the admin group, expanded at send time
	ExcludeSender bool // broadcast only: sender is not their own recipient
	NotifyTitle   string
	NotifyBody    string // sender display name is appended by the caller
}

// directPolicies is keyed by senderRole then receiverRole. A missing entry
// means that pair may not exchange direct messages.
var directPolicies = map[string]map[string]sendPolicy{
	model.RoleCustomer: {
		model.RoleVendor: {
			Kind:         model.KindCustomerToVendor,
			OrderAllowed: true,
			NotifyTitle:  "New Customer Message",
			NotifyBody:   "You have a new message from",
		},
		model.RoleDelivery: {
			Kind:        model.KindGeneral,
			NotifyTitle: "New Customer Message",
			NotifyBody:  "You have a new message from",
		},
	},
	model.RoleVendor: {
		model.RoleCustomer: {
			Kind:         model.KindVendorToCustomer,
			OrderAllowed: true,
			NotifyTitle:  "New Vendor Message",
			NotifyBody:   "You have a new message from",
		},
		model.RoleDelivery: {
			Kind:        model.KindVendorToDelivery,
			NotifyTitle: "New Vendor Message",
			NotifyBody:  "You have a new message from",
		},
	},
	model.RoleDelivery: {
		model.RoleCustomer: {
			Kind:        model.KindGeneral,
			NotifyTitle: "New Delivery Message",
			NotifyBody:  "You have a new message from",
		},
		model.RoleVendor: {
			Kind:        model.KindDeliveryToVendor,
			NotifyTitle: "New Delivery Message",
			NotifyBody:  "You have a new message from",
		},
	},
	model.RoleAdmin: {
		model.RoleCustomer: {
			Kind:         model.KindAdminToCustomer,
			OrderAllowed: true,
			NotifyTitle:  "New Admin Message",
			NotifyBody:   "You have a new message from support",
		},
		model.RoleVendor: {
			Kind:        model.KindGeneral,
			NotifyTitle: "New Admin Message",
			NotifyBody:  "You have a new message from admin",
		},
		model.RoleDelivery: {
			Kind:        model.KindGeneral,
			NotifyTitle: "New Admin Message",
			NotifyBody:  "You have a new message from admin",
		},
	},
}

// broadcastPolicies is keyed by senderRole; every broadcast targets the admin
// group. The recipient set is captured at send time — deactivating an admin
// later does not retroactively change a stored message.
var broadcastPolicies = map[string]sendPolicy{
	model.RoleCustomer: {
		Kind:         model.KindCustomerToAdmin,
		OrderAllowed: true,
		Broadcast:    true,
		NotifyTitle:  "New Customer Support Message",
		NotifyBody:   "A customer has sent a new support message",
	},
	model.RoleVendor: {
		Kind:        model.KindVendorToAdmin,
		Broadcast:   true,
		NotifyTitle: "New Vendor Support Message",
		NotifyBody:  "A vendor has sent a new support message",
	},
	model.RoleDelivery: {
		Kind:        model.KindDeliveryToAdmin,
		Broadcast:   true,
		NotifyTitle: "New Delivery Support Message",
		NotifyBody:  "A delivery agent has sent a new support message",
	},
	model.RoleAdmin: {
		Kind:          model.KindAdminToAdmin,
		Broadcast:     true,
		ExcludeSender: true,
		NotifyTitle:   "New Admin Message",
		NotifyBody:    "An admin has sent a new message to all admins",
	},
}

// policyFor resolves the send policy for a sender role and target. toAdmins
// selects the broadcast table; otherwise receiverRole selects the direct
// pair. Returns an authorization error for pairs the marketplace does not
// permit (including direct messages addressed at a single admin, which must
// go through the admin group instead).
func policyFor(senderRole, receiverRole string, toAdmins bool) (sendPolicy, error) {
	if toAdmins {
		p, ok := broadcastPolicies[senderRole]
		if !ok {
			return sendPolicy{}, model.Unauthorizedf("role %s may not message the admin group", senderRole)
		}
		return p, nil
	}

	if receiverRole == model.RoleAdmin {
		return sendPolicy{}, model.Unauthorizedf("direct messages to a single admin are not permitted; address the admin group")
	}

	p, ok := directPolicies[senderRole][receiverRole]
	if !ok {
		return sendPolicy{}, model.Unauthorizedf("role %s may not message role %s", senderRole, receiverRole)
	}
	return p, nil
}
