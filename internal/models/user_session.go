package models

// UserSession represents an authenticated marketplace user
type UserSession struct {
	UserID    string `json:"user_id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	ExpiresAt int64  `json:"exp"`
	IssuedAt  int64  `json:"iat"`
}

// IsStudent reports whether the session belongs to a student
func (s *UserSession) IsStudent() bool {
	return s.Role == "student"
}

// IsMentor reports whether the session belongs to a mentor
func (s *UserSession) IsMentor() bool {
	return s.Role == "mentor"
}
