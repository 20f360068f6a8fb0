package service

import (
	"errors"
	"testing"

	"github.com/mamoonayoob/Quick-Mart-Server/internal/model"
)

func TestPolicyForDirectPairs(t *testing.T) {
	cases := []struct {
		sender, receiver string
		kind             string
		orderAllowed     bool
	}{
		{model.RoleCustomer, model.RoleVendor, model.KindCustomerToVendor, true},
		{model.RoleVendor, model.RoleCustomer, model.KindVendorToCustomer, true},
		{model.RoleCustomer, model.RoleDelivery, model.KindGeneral, false},
		{model.RoleDelivery, model.RoleCustomer, model.KindGeneral, false},
		{model.RoleVendor, model.RoleDelivery, model.KindVendorToDelivery, false},
		{model.RoleDelivery, model.RoleVendor, model.KindDeliveryToVendor, false},
		{model.RoleAdmin, model.RoleCustomer, model.KindAdminToCustomer, true},
		{model.RoleAdmin, model.RoleVendor, model.KindGeneral, false},
		{model.RoleAdmin, model.RoleDelivery, model.KindGeneral, false},
	}

	for _, c := range cases {
		p, err := policyFor(c.sender, c.receiver, false)
		if err != nil {
			t.Fatalf("%s->%s: unexpected error %v", c.sender, c.receiver, err)
		}
		if p.Kind != c.kind {
			t.Fatalf("%s->%s: expected kind %s, got %s", c.sender, c.receiver, c.kind, p.Kind)
		}
		if p.OrderAllowed != c.orderAllowed {
			t.Fatalf("%s->%s: expected orderAllowed=%v", c.sender, c.receiver, c.orderAllowed)
		}
		if p.Broadcast {
			t.Fatalf("%s->%s: direct policy must not broadcast", c.sender, c.receiver)
		}
	}
}

func TestPolicyForRejectsUnknownPairs(t *testing.T) {
	rejected := [][2]string{
		{model.RoleCustomer, model.RoleCustomer},
		{model.RoleVendor, model.RoleVendor},
		{model.RoleDelivery, model.RoleDelivery},
		{model.RoleCustomer, model.RoleAdmin}, // single admin: use the group
		{model.RoleAdmin, model.RoleAdmin},
	}

	for _, pair := range rejected {
		if _, err := policyFor(pair[0], pair[1], false); !errors.Is(err, model.ErrUnauthorized) {
			t.Fatalf("%s->%s: expected unauthorized, got %v", pair[0], pair[1], err)
		}
	}
}

func TestPolicyForBroadcast(t *testing.T) {
	for _, role := range []string{model.RoleCustomer, model.RoleVendor, model.RoleDelivery, model.RoleAdmin} {
		p, err := policyFor(role, "", true)
		if err != nil {
			t.Fatalf("%s broadcast: unexpected error %v", role, err)
		}
		if !p.Broadcast {
			t.Fatalf("%s broadcast policy not marked broadcast", role)
		}
		if p.ExcludeSender != (role == model.RoleAdmin) {
			t.Fatalf("%s: only admin broadcasts exclude the sender", role)
		}
	}

	// Customer support threads may reference an order; the other roles' may
	// not.
	p, _ := policyFor(model.RoleCustomer, "", true)
	if !p.OrderAllowed {
		t.Fatal("customer broadcast must allow an order reference")
	}
	p, _ = policyFor(model.RoleVendor, "", true)
	if p.OrderAllowed {
		t.Fatal("vendor broadcast must not allow an order reference")
	}
}
