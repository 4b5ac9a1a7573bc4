// Package models defines the domain entities for the gym cash back-office.
package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Direction classifies a category (and the movements recorded under it)
// as income or expense.
type Direction string

// Supported directions.
const (
	DirectionIncome  Direction = "ingreso"
	DirectionExpense Direction = "egreso"
)

// Valid reports whether d is one of the enumerated directions.
func (d Direction) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

// Role is the access level of a back-office user.
type Role string

// Supported roles.
const (
	RoleAdmin Role = "admin"
	RoleCoach Role = "coach"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleCoach
}

// MaxNameLength is the maximum allowed length for catalog names.
const MaxNameLength = 80

// DateLayout is the wire and audit format for movement dates.
const DateLayout = "2006-01-02"

// Category classifies movements and owns their direction.
type Category struct {
	ID        int       `json:"id"`
	Name      string    `json:"nombre"`
	Direction Direction `json:"sentido"`
	IsPlan    bool      `json:"es_plan"`
	Active    bool      `json:"activo"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// PaymentMethod is how money changed hands (cash, transfer, card...).
type PaymentMethod struct {
	ID        int       `json:"id"`
	Name      string    `json:"nombre"`
	Active    bool      `json:"activo"`
	Rank      int       `json:"orden"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Option is a quick-entry button combining a category, a payment method
// and a suggested price.
type Option struct {
	ID              int                 `json:"id"`
	CategoryID      int                 `json:"categoria_id"`
	PaymentMethodID int                 `json:"medio_pago_id"`
	DisplayName     string              `json:"nombre_display"`
	Icon            string              `json:"icono"`
	SuggestedAmount decimal.NullDecimal `json:"precio_sugerido"`
	Active          bool                `json:"activo"`
	Rank            int                 `json:"orden"`
	PriceUpdatedAt  *time.Time          `json:"precio_actualizado_at"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`

	// Populated by list queries.
	CategoryName      string    `json:"categoria_nombre,omitempty"`
	Direction         Direction `json:"sentido,omitempty"`
	PaymentMethodName string    `json:"medio_pago_nombre,omitempty"`
}

// Movement is a single cash entry.
type Movement struct {
	ID              int             `json:"id"`
	Date            time.Time       `json:"fecha"`
	CategoryID      int             `json:"categoria_id"`
	Direction       Direction       `json:"sentido"`
	Amount          decimal.Decimal `json:"monto"`
	PaymentMethodID int             `json:"medio_pago_id"`
	OptionID        *int            `json:"opcion_id"`
	ClientName      *string         `json:"nombre_cliente"`
	Note            *string         `json:"nota"`
	UserID          int             `json:"usuario_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`

	// Populated by list queries.
	CategoryName      string `json:"categoria_nombre,omitempty"`
	PaymentMethodName string `json:"medio_pago_nombre,omitempty"`
	UserName          string `json:"usuario_nombre,omitempty"`
}

// AuditEntry records one field change on a movement. Entries are append-only.
type AuditEntry struct {
	ID         int       `json:"id"`
	MovementID int       `json:"movimiento_id"`
	UserID     int       `json:"usuario_id"`
	Field      string    `json:"campo"`
	OldValue   string    `json:"valor_anterior"`
	NewValue   string    `json:"valor_nuevo"`
	ChangedAt  time.Time `json:"fecha_cambio"`

	// Joined at read time, never stored on the row.
	UserName string `json:"usuario_nombre,omitempty"`
}

// User is a back-office account.
type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"nombre"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"rol"`
	Active       bool      `json:"activo"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u != nil && u.Role == RoleAdmin
}

// CategoryTotal aggregates movements of one category over a date range.
type CategoryTotal struct {
	CategoryID   int             `json:"categoria_id"`
	CategoryName string          `json:"categoria_nombre"`
	Direction    Direction       `json:"sentido"`
	Total        decimal.Decimal `json:"total"`
	Count        int             `json:"cantidad"`
}
