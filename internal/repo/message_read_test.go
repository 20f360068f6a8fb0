package repo

import (
	"testing"
	"time"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

func directMessage(sender, receiver string) *model.Message {
	return &model.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    "hello",
		Kind:       model.KindCustomerToVendor,
		CreatedAt:  time.Now().UTC(),
	}
}

func broadcastMessage(sender string, recipients ...string) *model.Message {
	return &model.Message{
		ID:         primitive.NewObjectID(),
		SenderID:   sender,
		Recipients: recipients,
		Content:    "help",
		Kind:       model.KindCustomerToAdmin,
		CreatedAt:  time.Now().UTC(),
	}
}

func TestDirectReadOutcome(t *testing.T) {
	msg := directMessage("cust-1", "vend-1")

	if got := directReadOutcome(msg, "vend-1"); got != readAck {
		t.Fatalf("receiver first ack: got %v, want readAck", got)
	}
	if got := directReadOutcome(msg, "cust-1"); got != readDenied {
		t.Fatalf("sender must not acknowledge their own message: got %v", got)
	}
	if got := directReadOutcome(msg, "deliv-1"); got != readDenied {
		t.Fatalf("outsider must be denied: got %v", got)
	}

	msg.IsRead = true
	if got := directReadOutcome(msg, "vend-1"); got != readNoop {
		t.Fatalf("second ack must be a no-op: got %v", got)
	}
}

func TestBroadcastReadOutcome(t *testing.T) {
	msg := broadcastMessage("cust-1", "admin-1", "admin-2")

	if got := broadcastReadOutcome(msg, "admin-1"); got != readAck {
		t.Fatalf("recipient first ack: got %v, want readAck", got)
	}
	if got := broadcastReadOutcome(msg, "cust-1"); got != readDenied {
		t.Fatalf("broadcast sender is not a recipient: got %v", got)
	}
	if got := broadcastReadOutcome(msg, "vend-1"); got != readDenied {
		t.Fatalf("outsider must be denied: got %v", got)
	}

	msg.ReadReceipts = []model.ReadReceipt{{RecipientID: "admin-1", ReadAt: time.Now().UTC()}}
	if got := broadcastReadOutcome(msg, "admin-1"); got != readNoop {
		t.Fatalf("duplicate ack must be a no-op: got %v", got)
	}
	if got := broadcastReadOutcome(msg, "admin-2"); got != readAck {
		t.Fatalf("one recipient's receipt must not shadow another's: got %v", got)
	}
}

func TestBroadcastCompleteFlipsOnLastReceipt(t *testing.T) {
	msg := broadcastMessage("cust-1", "admin-1", "admin-2")
	now := time.Now().UTC()

	if broadcastComplete(msg) {
		t.Fatal("no receipts yet, must not be complete")
	}

	msg.ReadReceipts = append(msg.ReadReceipts, model.ReadReceipt{RecipientID: "admin-1", ReadAt: now})
	if broadcastComplete(msg) {
		t.Fatal("one of two receipts, must not be complete")
	}

	msg.ReadReceipts = append(msg.ReadReceipts, model.ReadReceipt{RecipientID: "admin-2", ReadAt: now})
	if !broadcastComplete(msg) {
		t.Fatal("every recipient acknowledged, must be complete")
	}
}
