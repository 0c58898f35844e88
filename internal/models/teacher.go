package models

// Teacher is an admin account that can be assigned to teach a period.
type Teacher struct {
	ID       string   `db:"id" json:"id"`
	FullName string   `db:"full_name" json:"full_name"`
	Role     UserRole `db:"role" json:"role"`
}
