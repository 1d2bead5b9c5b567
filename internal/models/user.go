package models

// UserRecord mirrors one row of the user-accounts sheet. The store owns
// the record; it is never cached beyond a single request.
type UserRecord struct {
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	RegisteredAt string `json:"registered_at"`
}
