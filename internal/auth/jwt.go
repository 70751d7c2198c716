package auth

import (
	"errors"
	"fmt"
	"os"

	"github.com/golang-jwt/jwt/v5"

	"roomworks/channelsync/internal/constants"
)

// ParseJWT validates a bearer token signed with the shared HMAC secret and
// maps its claims. Tokens without a role claim get the lowest one.
func ParseJWT(tokenString string) (*JWTClaims, error) {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		return nil, errors.New("JWT_SECRET not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &jwt.MapClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}

	userID, _ := (*claims)["user_id"].(string)
	if userID == "" {
		return nil, errors.New("missing or invalid user_id claim")
	}
	hotelID, _ := (*claims)["hotel_id"].(string)
	role, _ := (*claims)["role"].(string)
	if role == "" {
		role = string(constants.RoleService)
	}

	return &JWTClaims{
		UserUUID:  userID,
		RoleValue: constants.StaffRole(role),
		HotelUUID: hotelID,
	}, nil
}
