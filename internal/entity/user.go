package entity

import (
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Role classifies the authenticated caller of an order operation. The
// request-authentication pipeline upstream resolves it; the platform only
// consumes it.
type Role string

const (
	RoleClient   Role = "Client"
	RoleOwner    Role = "Owner"
	RoleDelivery Role = "Delivery"
)

// Validate reports whether r is a known role.
func (r Role) Validate() error {
	switch r {
	case RoleClient, RoleOwner, RoleDelivery:
		return nil
	}
	return fmt.Errorf("unknown role %q", string(r))
}

func (r Role) String() string { return string(r) }

// User is a platform account: a customer, a restaurant owner, or a courier.
type User struct {
	bun.BaseModel `bun:"table:users"`

	ID        int64     `bun:",pk,autoincrement"`
	Email     string    `bun:"email"`
	Role      Role      `bun:"role"`
	AreaCode  string    `bun:"area_code"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `bun:"updated_at,nullzero"`
}
