package models

type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"` // bcrypt hash, never the plain password
}

// PublicUser is what the API reveals about a user.
type PublicUser struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
}

func (u User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username}
}
