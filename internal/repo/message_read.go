package repo

import (
	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"
)

// readOutcome classifies what acknowledging a message means for a reader.
type readOutcome int

const (
	// readDenied: the reader is not addressed by the message.
	readDenied readOutcome = iota
	// readNoop: the reader already acknowledged; nothing to write.
	readNoop
	// readAck: a write is due.
	readAck
)

// directReadOutcome decides the effect of readerID acknowledging a direct
// message. Only the single receiver may acknowledge, and only once.
func directReadOutcome(msg *model.Message, readerID string) readOutcome {
	if msg.ReceiverID != readerID {
		return readDenied
	}
	if msg.IsRead {
		return readNoop
	}
	return readAck
}

// broadcastReadOutcome decides the effect of readerID acknowledging a
// broadcast. Any captured recipient may acknowledge, each at most once;
// the sender is not a recipient and is denied like any outsider.
func broadcastReadOutcome(msg *model.Message, readerID string) readOutcome {
	if !msg.AddressedTo(readerID) {
		return readDenied
	}
	if msg.ReadBy(readerID) {
		return readNoop
	}
	return readAck
}

// broadcastComplete reports whether every recipient captured at send time
// has a read receipt, at which point the aggregate read flag flips.
func broadcastComplete(msg *model.Message) bool {
	return len(msg.ReadReceipts) >= len(msg.Recipients)
}
