package models

// OrderStatus константы статусов заказов
const (
	OrderStatusOpen      = "open"
	OrderStatusTaken     = "taken"
	OrderStatusBought    = "bought"
	OrderStatusOnTheWay  = "otw"
	OrderStatusDone      = "done"
	OrderStatusCancelled = "cancelled"
)

// Роли пользователей
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Типы сообщений чата
const (
	MessageTypeText  = "text"
	MessageTypeImage = "image"
)

// ValidRoles список допустимых ролей
var ValidRoles = map[string]struct{}{
	RoleUser:  {},
	RoleAdmin: {},
}
