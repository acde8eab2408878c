package users

import "time"

// Role groups users by the stage of the workflow they operate.
type Role string

const (
	RoleMarketing Role = "marketing"
	RoleAllocator Role = "allocator"
	RoleWriter    Role = "writer"
	RoleProcess   Role = "process"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMarketing, RoleAllocator, RoleWriter, RoleProcess:
		return true
	}
	return false
}

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Role      Role      `json:"role"`
	IsActive  bool      `json:"isActive"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
