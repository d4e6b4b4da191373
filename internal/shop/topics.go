package shop

const (
	TopicOrderPlaced        = "order.placed"
	TopicOrderStatusChanged = "order.status.changed"
)

// Partition key = order_id, supaya semua event 1 order maintain urutan.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
