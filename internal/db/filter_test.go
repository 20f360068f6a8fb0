package db

import (
	"reflect"
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

func TestFilterBuilderComposition(t *testing.T) {
	filter := NewFilter().
		Eq("receiver_id", "u1").
		Eq("is_read", false).
		Build()

	want := bson.M{"receiver_id": "u1", "is_read": false}
	if !reflect.DeepEqual(filter, want) {
		t.Fatalf("got %v, want %v", filter, want)
	}
}

func TestFilterBuilderElemNe(t *testing.T) {
	filter := NewFilter().
		Eq("recipients", "u1").
		ElemNe("read_receipts", "recipient_id", "u1").
		Build()

	if !reflect.DeepEqual(filter["read_receipts.recipient_id"], bson.M{"$ne": "u1"}) {
		t.Fatalf("ElemNe produced %v", filter["read_receipts.recipient_id"])
	}
}

func TestFilterBuilderOr(t *testing.T) {
	direct := NewFilter().Eq("receiver_id", "u1").Eq("is_read", false).Build()
	broadcast := NewFilter().Eq("recipients", "u1").ElemNe("read_receipts", "recipient_id", "u1").Build()

	filter := NewFilter().Or(direct, broadcast).Build()

	clauses, ok := filter["$or"].([]bson.M)
	if !ok || len(clauses) != 2 {
		t.Fatalf("Or produced %v", filter["$or"])
	}
}
