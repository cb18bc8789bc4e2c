package models

// Role — закрытый набор ролей пользователя.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// Valid сообщает, входит ли значение в перечисление.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}
