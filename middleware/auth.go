package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/arnavchokshi/sway-api/utils"
)

func CheckAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokenString := r.Header.Get("Authorization")
		if tokenString == "" {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing Auth token")
			return
		}

		tokenString = strings.TrimPrefix(tokenString, "Bearer ")

		claims, err := utils.ValidateJWT(tokenString)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Invalid Auth Token")
			return
		}

		ctx := context.WithValue(r.Context(), "claims", claims)
		if id, ok := claims["id"].(string); ok {
			ctx = context.WithValue(ctx, "userID", id)
		}
		if role, ok := claims["role"].(string); ok {
			ctx = context.WithValue(ctx, "role", role)
		}

		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

func CheckRole(userRole string, next http.HandlerFunc) http.HandlerFunc {
	return CheckAuth(func(w http.ResponseWriter, r *http.Request) {
		role, err := utils.GetUserRole(r)
		if err != nil {
			utils.RespondWithError(w, http.StatusUnauthorized, "Missing User Role")
			return
		}

		if !strings.EqualFold(role, userRole) {
			utils.RespondWithError(w, http.StatusForbidden, "Not Permited to perform Action")
			return
		}

		next.ServeHTTP(w, r)
	})
}
