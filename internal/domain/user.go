package domain

// User is an account holder. Any user may author novels.
type User struct {
	Syncable
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	DisplayName  string `json:"display_name"`
	Bio          string `json:"bio,omitempty"`
}

// PublicUser is the subset of User safe to show to other users.
type PublicUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Bio         string `json:"bio,omitempty"`
}

// Public returns the publicly visible projection of u.
func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, DisplayName: u.DisplayName, Bio: u.Bio}
}
