package events

// Topics emitted by the core services.
const (
	TopicStockAdjusted       = "stock.adjusted"
	TopicBufferChanged       = "stock.buffer_changed"
	TopicStockDelivered      = "stock.delivered"
	TopicOrderStatusChanged  = "order.status_changed"
	TopicOrderPaymentUpdated = "order.payment_updated"
	TopicCommissionCreated   = "commission.created"
	TopicCommissionApproved  = "commission.part_approved"
	TopicPayrollCreditFailed = "payroll.credit_failed"
)
