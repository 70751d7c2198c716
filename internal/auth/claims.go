package auth

import "roomworks/channelsync/internal/constants"

// UserClaims is what the auth middleware resolves a request to. Handlers
// only ever see this interface, never the raw credential.
type UserClaims interface {
	UserID() string
	Role() string
	Source() string
	HasPermission(action string) bool
	HotelID() string
}

type JWTClaims struct {
	UserUUID  string
	RoleValue constants.StaffRole
	HotelUUID string
}

func (c *JWTClaims) UserID() string { return c.UserUUID }
func (c *JWTClaims) Role() string {
	return string(c.RoleValue)
}
func (c *JWTClaims) HotelID() string           { return c.HotelUUID }
func (c *JWTClaims) Source() string            { return "JWT" }
func (c *JWTClaims) HasPermission(string) bool { return true }

type APIKeyClaims struct {
	KeyIDValue   string
	RoleValue    constants.StaffRole
	HotelUUIDVal string
}

func (c *APIKeyClaims) UserID() string { return c.KeyIDValue }
func (c *APIKeyClaims) Role() string {
	return string(c.RoleValue)
}
func (c *APIKeyClaims) HotelID() string           { return c.HotelUUIDVal }
func (c *APIKeyClaims) Source() string            { return "API_KEY" }
func (c *APIKeyClaims) HasPermission(string) bool { return true }
