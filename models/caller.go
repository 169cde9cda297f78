package models

import "strings"

// RoleAdmin is the role string granting unrestricted booking access.
const RoleAdmin = "Admin"

// Caller is the authenticated identity of a request.
type Caller struct {
	CustomerID string
	Role       string
}

func (c Caller) IsAdmin() bool {
	return strings.EqualFold(c.Role, RoleAdmin)
}

// Owns reports whether the caller is the given customer.
func (c Caller) Owns(customerID string) bool {
	return c.CustomerID != "" && c.CustomerID == customerID
}
