package entities

// Payment methods
const (
	PaymentCard = "card"
	PaymentCash = "cash"
)

// Order statuses
const (
	OrderPending    = "pending"
	OrderProcessing = "processing"
	OrderDelivered  = "delivered"
	OrderCancelled  = "cancelled"
)

// DeliveryCharge is included in amountToCharge and excluded from revenue
const DeliveryCharge = 5

// ValidOrderStatus reports whether s is a known order status
func ValidOrderStatus(s string) bool {
	switch s {
	case OrderPending, OrderProcessing, OrderDelivered, OrderCancelled:
		return true
	}
	return false
}

// ProductSnapshot is the product as it was when the order was placed
type ProductSnapshot struct {
	ID           string         `dynamodbav:"_id" json:"_id" validate:"required"`
	Name         string         `dynamodbav:"name" json:"name" validate:"required"`
	Images       []ProductImage `dynamodbav:"images" json:"images"`
	RegularPrice float64        `dynamodbav:"regularPrice" json:"regularPrice" validate:"gte=0"`
	SalePrice    float64        `dynamodbav:"salePrice" json:"salePrice" validate:"gte=0"`
	IsOnSale     bool           `dynamodbav:"isOnSale" json:"isOnSale"`
}

// UnitPrice is the price charged per unit
func (p ProductSnapshot) UnitPrice() float64 {
	if p.IsOnSale {
		return p.SalePrice
	}
	return p.RegularPrice
}

// OrderItem is one line of an order
type OrderItem struct {
	Product  ProductSnapshot `dynamodbav:"product" json:"product" validate:"required"`
	Quantity int             `dynamodbav:"quantity" json:"quantity" validate:"gte=1"`
}

// Order is a placed checkout
type Order struct {
	ID                 string      `dynamodbav:"id"`
	UserID             string      `dynamodbav:"userId"`
	PaymentMethod      string      `dynamodbav:"paymentMethod"`
	PaymentReceived    bool        `dynamodbav:"paymentReceived"`
	Status             string      `dynamodbav:"status"`
	Items              []OrderItem `dynamodbav:"items"`
	DiscountAmount     float64     `dynamodbav:"discountAmount"`
	AmountToCharge     float64     `dynamodbav:"amountToCharge"`
	Note               string      `dynamodbav:"note"`
	NotificationViewed bool        `dynamodbav:"notificationViewed"`
	Timestamps
}

func (o Order) GetID() string { return o.ID }

// Revenue is the charged amount without delivery
func (o Order) Revenue() float64 {
	return o.AmountToCharge - DeliveryCharge
}

// Contains reports whether the order has a line for productID
func (o Order) Contains(productID string) bool {
	for _, item := range o.Items {
		if item.Product.ID == productID {
			return true
		}
	}
	return false
}

// OrderNotification tells administrators about a new order. Its ID is the
// order id.
type OrderNotification struct {
	ID           string `dynamodbav:"id" json:"_id"`
	CustomerName string `dynamodbav:"customerName" json:"customerName"`
	Timestamps
}

func (n OrderNotification) GetID() string { return n.ID }

// Review is a customer's rating of a purchased product
type Review struct {
	ID        string `dynamodbav:"id"`
	Text      string `dynamodbav:"text"`
	Rating    int    `dynamodbav:"rating"`
	AuthorID  string `dynamodbav:"reviewAuthor"`
	ProductID string `dynamodbav:"product"`
	Timestamps
}

func (r Review) GetID() string { return r.ID }
