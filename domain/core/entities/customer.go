package entities

import "time"

// User roles
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Sign-up methods
const (
	MethodCustom   = "custom"
	MethodGoogle   = "google"
	MethodFacebook = "facebook"
)

// Address is the shipping address stored on a user
type Address struct {
	Street     string `dynamodbav:"street" json:"street"`
	City       string `dynamodbav:"city" json:"city"`
	State      string `dynamodbav:"state" json:"state"`
	PostalCode string `dynamodbav:"postalCode" json:"postalCode"`
	Country    string `dynamodbav:"country" json:"country"`
}

// IsZero reports whether no address field is set
func (a *Address) IsZero() bool {
	return a == nil || *a == Address{}
}

// User is a customer or administrator account
type User struct {
	ID           string   `dynamodbav:"id"`
	Method       string   `dynamodbav:"method"`
	Name         string   `dynamodbav:"name"`
	Email        string   `dynamodbav:"email"`
	Phone        string   `dynamodbav:"phone,omitempty"`
	PasswordHash string   `dynamodbav:"password,omitempty"`
	Role         string   `dynamodbav:"role"`
	Avatar       string   `dynamodbav:"avatar,omitempty"`
	Address      *Address `dynamodbav:"address,omitempty"`
	Timestamps
}

func (u User) GetID() string { return u.ID }

// IsAdmin reports whether the user holds the admin role
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }

// RefreshToken is a persisted refresh token. Its ID is the token's jti.
type RefreshToken struct {
	ID        string    `dynamodbav:"id"`
	UserID    string    `dynamodbav:"userId"`
	ExpiresAt time.Time `dynamodbav:"expiresAt"`
	Timestamps
}

func (t RefreshToken) GetID() string { return t.ID }

// CartItem is a product reference with a quantity
type CartItem struct {
	ProductID string `dynamodbav:"product" json:"product" validate:"required"`
	Quantity  int    `dynamodbav:"quantity" json:"quantity" validate:"gte=1"`
}

// Cart is keyed by the owning user's id
type Cart struct {
	ID                       string     `dynamodbav:"id"`
	Products                 []CartItem `dynamodbav:"products"`
	CouponCode               string     `dynamodbav:"couponCode"`
	CouponDiscountPercentage float64    `dynamodbav:"couponDiscountPercentage"`
	CouponMinimumAmount      float64    `dynamodbav:"couponMinimumAmount"`
	Timestamps
}

func (c Cart) GetID() string { return c.ID }

// ClearCoupon removes any applied voucher
func (c *Cart) ClearCoupon() {
	c.CouponCode = ""
	c.CouponDiscountPercentage = 0
	c.CouponMinimumAmount = 0
}

// Wishlist is keyed by the owning user's id
type Wishlist struct {
	ID         string   `dynamodbav:"id"`
	ProductIDs []string `dynamodbav:"products"`
	Timestamps
}

func (w Wishlist) GetID() string { return w.ID }

// Add inserts productID if missing and reports whether it was added
func (w *Wishlist) Add(productID string) bool {
	for _, id := range w.ProductIDs {
		if id == productID {
			return false
		}
	}
	w.ProductIDs = append(w.ProductIDs, productID)
	return true
}

// Remove drops productID and reports whether it was present
func (w *Wishlist) Remove(productID string) bool {
	for i, id := range w.ProductIDs {
		if id == productID {
			w.ProductIDs = append(w.ProductIDs[:i], w.ProductIDs[i+1:]...)
			return true
		}
	}
	return false
}
