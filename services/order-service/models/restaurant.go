package models

type RestaurantStatus string

const (
	RestaurantStatusActive   RestaurantStatus = "active"
	RestaurantStatusInactive RestaurantStatus = "inactive"
)

// Restaurant is one tenant of the platform.
type Restaurant struct {
	ID        string           `json:"id" yaml:"id"`
	Name      string           `json:"name" yaml:"name"`
	Address   string           `json:"address" yaml:"address"`
	Phone     string           `json:"phone" yaml:"phone"`
	Email     string           `json:"email" yaml:"email"`
	Tables    int              `json:"tables" yaml:"tables"`
	Status    RestaurantStatus `json:"status" yaml:"status"`
	CreatedAt string           `json:"createdAt" yaml:"createdAt"`
}

// IsActive reports whether the tenant accepts orders.
func (r Restaurant) IsActive() bool {
	return r.Status == RestaurantStatusActive
}

// CreateRestaurantRequest is the payload for registering a tenant.
type CreateRestaurantRequest struct {
	ID      string `json:"id"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
	Email   string `json:"email" binding:"omitempty,email"`
	Tables  int    `json:"tables" binding:"gte=0"`
}

// UpdateRestaurantRequest patches the non-nil fields.
type UpdateRestaurantRequest struct {
	Name    *string           `json:"name"`
	Address *string           `json:"address"`
	Phone   *string           `json:"phone"`
	Email   *string           `json:"email" binding:"omitempty,email"`
	Tables  *int              `json:"tables" binding:"omitempty,gte=0"`
	Status  *RestaurantStatus `json:"status" binding:"omitempty,oneof=active inactive"`
}

// Apply copies the set fields onto r.
func (u UpdateRestaurantRequest) Apply(r *Restaurant) {
	if u.Name != nil {
		r.Name = *u.Name
	}
	if u.Address != nil {
		r.Address = *u.Address
	}
	if u.Phone != nil {
		r.Phone = *u.Phone
	}
	if u.Email != nil {
		r.Email = *u.Email
	}
	if u.Tables != nil {
		r.Tables = *u.Tables
	}
	if u.Status != nil {
		r.Status = *u.Status
	}
}
