package domain

// User exists for the admin surface (order corrections, restock, refunds)
// and for attributing orders to an account. Checkout itself works for guests.
type User struct {
	ID        string `db:"id"`
	Email     string `db:"email"`
	Name      string `db:"name"`
	Hash      string `db:"password_hash"`
	Role      string `db:"role"` // USER | ADMIN
	CreatedAt string `db:"created_at"`
}

func (u *User) Admin() bool { return u.Role == "ADMIN" }
