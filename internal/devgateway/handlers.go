/*
Package devgateway is an in-memory stand-in for the Questify application server.

This file contains the REST handlers for the consumed contract: registration,
token issuance, identity lookup, quest listing and completion, and the mocked
guild roster.
*/
package devgateway

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-chi/chi/v5"

	"questify/internal/pkg/errs"
	"questify/internal/pkg/logx"
)

// respondJSON writes payload with the given status.
func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("X-Content-Type-Options", "nosniff")

	body, err := json.Marshal(payload)
	if err != nil {
		logx.Error(err, "Error encoding JSON response")
		http.Error(w, "Error encoding JSON response", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// respondError writes a ClientError as {code, message} with its HTTP status.
func respondError(w http.ResponseWriter, err error) {
	var clientErr *errs.ClientError
	if !errors.As(err, &clientErr) {
		clientErr = errs.NewError(errs.ErrUnknown)
	}

	status := clientErr.Status
	if status == 0 || status == http.StatusOK {
		status = http.StatusBadRequest
	}

	respondJSON(w, status, map[string]any{
		"code":    clientErr.Code,
		"message": clientErr.Message,
	})
}

type registerInput struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	AdventurerName string `json:"adventurer_name"`
}

// handleRegister creates an account from a JSON body.
func handleRegister(store *MemoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var input registerInput
		if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
			respondError(w, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if input.Email == "" || input.AdventurerName == "" {
			respondError(w, errs.NewError(errs.ErrInvalidParams))
			return
		}
		if utf8.RuneCountInString(input.Password) < 6 {
			respondError(w, errs.NewError(errs.ErrInvalidParams))
			return
		}

		account, err := store.CreateAccount(input.Email, input.Password, input.AdventurerName)
		if err != nil {
			respondError(w, err)
			return
		}

		logx.Info("Account registered", "account_id", account.ID, "adventurer", input.AdventurerName)
		respondJSON(w, http.StatusCreated, account.Profile)
	}
}

// handleToken exchanges an OAuth2-style form for a bearer token.
func handleToken(store *MemoryStore, secretKey string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			respondError(w, errs.NewError(errs.ErrInvalidParams))
			return
		}

		email := r.PostFormValue("username")
		password := r.PostFormValue("password")
		if email == "" || password == "" {
			respondError(w, errs.NewError(errs.ErrInvalidCredentials))
			return
		}

		account, err := store.Authenticate(email, password)
		if err != nil {
			respondError(w, err)
			return
		}

		token, err := issueToken(account.Email, secretKey)
		if err != nil {
			logx.Error(err, "Signing bearer token failed")
			respondError(w, errs.NewError(errs.ErrUnknown))
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{
			"access_token": token,
			"token_type":   "bearer",
		})
	}
}

// handleMe returns the authenticated account's profile.
func handleMe(store *MemoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r)

		profile, ok := store.ProfileFor(account.ID)
		if !ok {
			respondError(w, errs.NewError(errs.ErrUnauthorized))
			return
		}

		respondJSON(w, http.StatusOK, profile)
	}
}

// handleListQuests returns the account's quest sequence.
func handleListQuests(store *MemoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r)
		respondJSON(w, http.StatusOK, store.QuestsFor(account.ID))
	}
}

// handleCompleteQuest marks a quest complete and awards its XP once.
func handleCompleteQuest(store *MemoryStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r)

		questID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, errs.NewError(errs.ErrInvalidParams))
			return
		}

		if err := store.CompleteQuest(account.ID, questID); err != nil {
			respondError(w, err)
			return
		}

		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// handleGuild serves the fixed mock roster. The real roster endpoint is an
// unimplemented collaborator; this stands in so the client has something to
// render.
func handleGuild() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		account := accountFromContext(r)

		respondJSON(w, http.StatusOK, map[string]any{
			"id":          1,
			"name":        "Adventurers' Rest",
			"description": "The default guild hall for every Questify adventurer.",
			"leader_id":   account.ID,
			"created_at":  time.Now().UTC().Format(time.RFC3339),
		})
	}
}
