package enums

// OutboxAggregateType names the entity an outbox event is keyed on. Events of
// one aggregate are published in order.
type OutboxAggregateType string

const (
	AggregateOrder    OutboxAggregateType = "order"
	AggregateDiscount OutboxAggregateType = "discount"
)

func (a OutboxAggregateType) IsValid() bool {
	switch a {
	case AggregateOrder, AggregateDiscount:
		return true
	}
	return false
}

type OutboxEventType string

const (
	EventOrderCreated       OutboxEventType = "order_created"
	EventOrderStatusChanged OutboxEventType = "order_status_changed"
	EventOrderAssigned      OutboxEventType = "order_assigned"
	EventDiscountRedeemed   OutboxEventType = "discount_redeemed"
)

// eventAggregates pins each event type to the aggregate it may be written for.
var eventAggregates = map[OutboxEventType]OutboxAggregateType{
	EventOrderCreated:       AggregateOrder,
	EventOrderStatusChanged: AggregateOrder,
	EventOrderAssigned:      AggregateOrder,
	EventDiscountRedeemed:   AggregateDiscount,
}

func (e OutboxEventType) IsValid() bool {
	_, ok := eventAggregates[e]
	return ok
}

// Aggregate returns the aggregate type e belongs to, or "" when e is unknown.
func (e OutboxEventType) Aggregate() OutboxAggregateType {
	return eventAggregates[e]
}
