package middleware

import (
	"net/http"
	"strings"

	"roomworks/channelsync/internal/auth"
	"roomworks/channelsync/internal/constants"
	"roomworks/channelsync/internal/db/repositories"
)

func AuthMiddleware(keysRepo *repositories.KeysRepo) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

			authHeader := r.Header.Get("Authorization")
			apiKey := r.Header.Get("X-API-Key")

			var claims auth.UserClaims

			switch {
			case strings.HasPrefix(authHeader, "Bearer "):
				jwtClaims, err := auth.ParseJWT(strings.TrimPrefix(authHeader, "Bearer "))
				if err != nil {
					http.Error(w, "Unauthorized. Invalid Token", http.StatusUnauthorized)
					return
				}
				claims = jwtClaims

			case apiKey != "":
				keyRes, err := keysRepo.GetStatus(r.Context(), apiKey)
				if err != nil {
					http.Error(w, "Unauthorized. Invalid API Key", http.StatusUnauthorized)
					return
				}

				if !keyRes.Status {
					http.Error(w, "Unauthorized. Inactive API Key", http.StatusUnauthorized)
					return
				}

				// API keys act for backend integrations; hotel scope comes
				// from the request header, not the key itself.
				claims = &auth.APIKeyClaims{
					KeyIDValue:   keyRes.ApiKey,
					RoleValue:    constants.RoleService,
					HotelUUIDVal: r.Header.Get("X-Hotel-Id"),
				}

			default:
				http.Error(w, "Unauthorized. Missing Credentials", http.StatusUnauthorized)
				return
			}

			ctx := auth.SetUserClaims(r.Context(), claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
