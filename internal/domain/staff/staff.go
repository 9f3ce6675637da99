package staff

// Role classifies a staff member for dispatch routing. Matching against role
// labels is case-insensitive at the dispatch boundary.
type Role string

const (
	RoleCook    Role = "cook"
	RoleBarista Role = "barista"
	RoleWaiter  Role = "waiter"
	RoleAdmin   Role = "admin"
)

// Member is a staff record. The role is used purely to select a dispatch
// handler; it is never persisted on an order.
type Member struct {
	ID   int64
	Name string
	Role Role
}
