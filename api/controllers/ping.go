package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/namito/commerce-backend/api/middleware"
	"github.com/namito/commerce-backend/api/responses"
)

func PublicPing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]string{"scope": "public", "status": "ok"})
	}
}

func PrivatePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]string{"scope": "private", "status": "ok"}
		if userID := middleware.UserIDFromContext(r.Context()); userID != uuid.Nil {
			payload["user_id"] = userID.String()
		}
		responses.WriteSuccess(w, payload)
	}
}
