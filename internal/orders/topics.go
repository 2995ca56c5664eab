package orders

const (
	TopicOrderPlaced    = "shop.order.placed"
	TopicOrderCancelled = "shop.order.cancelled"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
