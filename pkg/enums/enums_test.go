package enums

import "testing"

func TestParseDiscountType(t *testing.T) {
	got, err := ParseDiscountType(" Percentage ")
	if err != nil || got != DiscountTypePercentage {
		t.Fatalf("expected percentage, got %q err=%v", got, err)
	}
	if _, err := ParseDiscountType("bogo"); err == nil {
		t.Fatal("expected unknown discount type to fail")
	}
}

func TestParseDiscountKindDefaultsToCoupon(t *testing.T) {
	got, err := ParseDiscountKind("")
	if err != nil || got != DiscountKindCoupon {
		t.Fatalf("expected coupon default, got %q err=%v", got, err)
	}
	if got, _ := ParseDiscountKind("OFFER"); got != DiscountKindOffer {
		t.Fatalf("expected offer, got %q", got)
	}
	if _, err := ParseDiscountKind("voucher"); err == nil {
		t.Fatal("expected unknown kind to fail")
	}
}

func TestOrderEnums(t *testing.T) {
	if _, err := ParseOrderStatus("OUT_FOR_DELIVERY"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseOrderStatus("shipped"); err == nil {
		t.Fatal("expected unknown status to fail")
	}
	if !PaymentStatusPartiallyRefunded.IsValid() {
		t.Fatal("expected PARTIALLY_REFUNDED to be valid")
	}
	if PaymentMethod("CARD").IsValid() {
		t.Fatal("expected CARD to be invalid")
	}
	if got, err := ParseOrderStatus("USER_NOT_REACHABLE"); err != nil || got != OrderStatusUserNotReachable {
		t.Fatalf("expected USER_NOT_REACHABLE, got %q err=%v", got, err)
	}
}

func TestPartnerSettableStatuses(t *testing.T) {
	for _, status := range []OrderStatus{OrderStatusOutForDelivery, OrderStatusDelivered, OrderStatusUserNotReachable} {
		if !status.PartnerSettable() {
			t.Fatalf("expected %s to be settable by a partner", status)
		}
	}
	for _, status := range []OrderStatus{OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing, OrderStatusCancelled} {
		if status.PartnerSettable() {
			t.Fatalf("expected %s to be admin only", status)
		}
	}
}

func TestRoles(t *testing.T) {
	for _, role := range []Role{RoleCustomer, RoleAdmin, RoleDelivery} {
		if !role.IsValid() {
			t.Fatalf("expected %s to be valid", role)
		}
	}
	if Role("rider").IsValid() {
		t.Fatal("expected unknown role to be invalid")
	}
}

func TestOutboxEventAggregates(t *testing.T) {
	cases := map[OutboxEventType]OutboxAggregateType{
		EventOrderCreated:       AggregateOrder,
		EventOrderStatusChanged: AggregateOrder,
		EventOrderAssigned:      AggregateOrder,
		EventDiscountRedeemed:   AggregateDiscount,
	}
	for event, aggregate := range cases {
		if !event.IsValid() || event.Aggregate() != aggregate {
			t.Fatalf("%s: expected aggregate %s, got %s", event, aggregate, event.Aggregate())
		}
	}
	if OutboxEventType("cart_abandoned").IsValid() {
		t.Fatal("expected unknown event type to be invalid")
	}
	if OutboxAggregateType("user").IsValid() {
		t.Fatal("expected unknown aggregate to be invalid")
	}
}
