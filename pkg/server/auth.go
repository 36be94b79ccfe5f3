package server

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials is returned when login credentials do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

const tokenTTL = 24 * time.Hour

type contextKey string

const userIDKey contextKey = "qrseal.user_id"

// Auth issues and validates bearer tokens backed by the store.
type Auth struct {
	store *Store
	now   func() time.Time
}

// NewAuth returns an Auth using the given store.
func NewAuth(store *Store) *Auth {
	return &Auth{store: store, now: time.Now}
}

// Register creates an account with a bcrypt password hash.
func (a *Auth) Register(username, password string) (User, error) {
	if username == "" || password == "" {
		return User{}, errors.New("username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	u := User{
		ID:           uuid.New().String(),
		Username:     username,
		PasswordHash: string(hash),
		CreatedAt:    a.now(),
	}
	if err := a.store.CreateUser(u); err != nil {
		return User{}, err
	}
	return u, nil
}

// Login validates credentials and issues a fresh bearer token.
func (a *Auth) Login(username, password string) (token string, expiresAt time.Time, err error) {
	u, err := a.store.UserByUsername(username)
	if errors.Is(err, ErrNotFound) {
		return "", time.Time{}, ErrInvalidCredentials
	}
	if err != nil {
		return "", time.Time{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return "", time.Time{}, ErrInvalidCredentials
	}

	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", time.Time{}, err
	}
	token = base64.RawURLEncoding.EncodeToString(raw)
	expiresAt = a.now().Add(tokenTTL)
	if err := a.store.InsertToken(token, u.ID, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Middleware enforces a valid Bearer token and stores the user id in
// the request context.
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			http.Error(w, "missing bearer token", http.StatusUnauthorized)
			return
		}
		userID, err := a.store.UserIDForToken(parts[1], a.now())
		if err != nil {
			http.Error(w, "invalid or expired token", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userIDKey, userID)))
	})
}

// UserID returns the authenticated user id placed by Middleware.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(userIDKey).(string)
	return id
}
