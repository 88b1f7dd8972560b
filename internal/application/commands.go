package application

// CreateItemCommand represents the command to create a new stock item
type CreateItemCommand struct {
	SKU            string
	ProductName    string
	UnitPriceCents int64
	Currency       string
	OpeningQty     int
	OpeningBuffer  int
	Actor          string
}

// AddBufferCommand represents the command to record incoming supply into the buffer pool
type AddBufferCommand struct {
	SKU      string
	Quantity int
	Actor    string
}

// TransferBufferCommand represents the command to move buffer units into on-hand stock
type TransferBufferCommand struct {
	SKU      string
	Quantity int
	Actor    string
}

// ReserveLine is one requested item within a reservation
type ReserveLine struct {
	SKU      string
	Quantity int
}

// ReserveCommand represents the command to reserve stock for a follow-up record
type ReserveCommand struct {
	FollowUpID string
	Lines      []ReserveLine
	Actor      string
}

// PreviewCommand represents the command to compute an allocation without committing it
type PreviewCommand struct {
	Lines []ReserveLine
}

// FulfillCommand represents the command to deliver a reserved order
type FulfillCommand struct {
	OrderID string
	Actor   string
}

// CancelCommand represents the command to cancel a reserved order and release its allocations
type CancelCommand struct {
	OrderID string
	Actor   string
}

// GetItemQuery represents the query to get a stock item by SKU
type GetItemQuery struct {
	SKU string
}

// ListItemsQuery represents the query to list stock items with pagination
type ListItemsQuery struct {
	Limit  int
	Offset int
}

// ListMovementsQuery represents the query to list movements for a SKU
type ListMovementsQuery struct {
	SKU    string
	Limit  int
	Offset int
}

// GetOrderQuery represents the query to get an order by ID
type GetOrderQuery struct {
	OrderID string
}

// ListFollowUpOrdersQuery represents the query to list orders for a follow-up record
type ListFollowUpOrdersQuery struct {
	FollowUpID string
}

// ListDemandsQuery represents the query to list open demand records
type ListDemandsQuery struct {
	Limit  int
	Offset int
}
