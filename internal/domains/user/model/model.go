package model

import (
	"slices"

	"innkeeper/shared/constant"
	"innkeeper/shared/model"
)

const (
	TableName  = "users"
	EntityName = "user"

	FieldID       = "id"
	FieldName     = "name"
	FieldEmail    = "email"
	FieldPhone    = "phone"
	FieldPassword = "password"
	FieldRole     = "role"
	FieldActive   = "active"
)

var Roles = []string{
	constant.RoleAdmin,
	constant.RoleManager,
	constant.RoleReceptionist,
	constant.RoleHousekeeping,
	constant.RoleGuest,
}

func IsValidRole(role string) bool {
	return slices.Contains(Roles, role)
}

type User struct {
	ID       string `db:"id"`
	Name     string `db:"name"`
	Email    string `db:"email"`
	Phone    string `db:"phone"`
	Password string `db:"password"`
	Role     string `db:"role"`
	Active   bool   `db:"active"`
	model.Metadata
}
