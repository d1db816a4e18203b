package domain

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

type User struct {
	ID       int64  `json:"id"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
	FullName string `json:"full_name,omitempty"`
}

func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// HasRole reports whether the user satisfies role. Admins satisfy every role.
func (u *User) HasRole(role string) bool {
	if u == nil {
		return false
	}
	return role == "" || u.Role == role || u.IsAdmin()
}

// DisplayName returns the full name when set, otherwise the email.
func (u *User) DisplayName() string {
	if u.FullName != "" {
		return u.FullName
	}
	return u.Email
}

// UserUpdate is the admin patch payload. Nil fields are left unchanged.
type UserUpdate struct {
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

// TokenPair is the body returned by POST /login.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

type AuditLog struct {
	ID        int64          `json:"id"`
	UserID    *int64         `json:"user_id,omitempty"`
	EventType string         `json:"event_type"`
	Timestamp Time           `json:"timestamp"`
	IPAddress string         `json:"ip_address,omitempty"`
	Details   map[string]any `json:"details,omitempty"`
}
