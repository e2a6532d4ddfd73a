package models

// Item is one purchase order line as it sits in a container.
type Item struct {
	ItemCode            string     `json:"itemCode"`
	PurchaseOrderNumber FlexString `json:"purchaseOrderNumber"`
	TrackingNumber      string     `json:"trackingNumber,omitempty"`
	UPCCode             string     `json:"upcCode,omitempty"`
	ColorName           string     `json:"colorName,omitempty"`
	Description         string     `json:"description,omitempty"`
	FactoryCode         string     `json:"factoryCode,omitempty"`
}

// PONumber returns the purchase order number in its canonical string form.
func (i Item) PONumber() string { return i.PurchaseOrderNumber.String() }

// Container is a shipping container identified by its tracking number.
type Container struct {
	TrackingNumber       string       `json:"trackingNumber"`
	PurchaseOrderNumbers []FlexString `json:"purchaseOrderNumbers,omitempty"`
}

// ContainerStatus is the store's finalization flag for a container.
type ContainerStatus struct {
	Completed bool `json:"completed"`
}

// User is a warehouse worker performing checks.
type User struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
}

// MissingItem identifies a relevant item whose checksheet is short.
type MissingItem struct {
	ItemCode string `bson:"item_code" json:"itemCode"`
	PONumber string `bson:"po_number" json:"poNumber"`
}
