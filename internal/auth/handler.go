package auth

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"

	"github.com/clipstream/backend/internal/api"
	"github.com/clipstream/backend/internal/apperr"
	"github.com/clipstream/backend/internal/models"
)

const maxUploadMemory = 32 << 20

// UserStore defines the interface for user persistence.
type UserStore interface {
	FindByIdentity(ctx context.Context, identity string) (*models.User, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	Create(ctx context.Context, u *models.User) (*models.User, error)
	Update(ctx context.Context, id string, fields bson.M) (*models.User, error)
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	UnsetRefreshToken(ctx context.Context, id string) error
}

// MediaStore defines the interface for the external media host.
type MediaStore interface {
	Upload(ctx context.Context, category, filename string, r io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, url string) error
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users      UserStore
	media      MediaStore
	tokens     *TokenService
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewHandler(users UserStore, media MediaStore, tokens *TokenService) *Handler {
	return &Handler{
		users:      users,
		media:      media,
		tokens:     tokens,
		accessTTL:  tokens.accessTTL,
		refreshTTL: tokens.refreshTTL,
	}
}

// Register creates a new user from a multipart form with an avatar file
// and an optional cover image.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.WriteErr(w, apperr.ErrValidation, "Invalid multipart form")
		return
	}

	fullName := strings.TrimSpace(r.FormValue("fullName"))
	userName := strings.TrimSpace(r.FormValue("userName"))
	email := strings.TrimSpace(r.FormValue("email"))
	password := r.FormValue("password")
	if fullName == "" || userName == "" || email == "" || password == "" {
		api.WriteErr(w, apperr.ErrValidation, "All fields are required")
		return
	}

	for _, identity := range []string{userName, email} {
		existing, err := h.users.FindByIdentity(r.Context(), identity)
		if err != nil {
			log.Printf("register: identity lookup: %v", err)
			api.WriteErr(w, err, "Failed to create user")
			return
		}
		if existing != nil {
			api.WriteErr(w, apperr.ErrConflict, "User with this email or username already exists")
			return
		}
	}

	avatarFile := formFile(r, "avatar")
	if avatarFile == nil {
		api.WriteErr(w, apperr.ErrValidation, "Avatar is required")
		return
	}
	avatarURL, err := h.uploadFile(r.Context(), "avatars", avatarFile)
	if err != nil {
		log.Printf("register: avatar upload: %v", err)
		api.WriteErr(w, apperr.ErrUpload, "Failed to upload avatar")
		return
	}

	// Cover image is optional and an upload failure does not fail the
	// registration.
	coverURL := ""
	if coverFile := formFile(r, "coverImage"); coverFile != nil {
		coverURL, err = h.uploadFile(r.Context(), "covers", coverFile)
		if err != nil {
			log.Printf("register: cover image upload: %v", err)
			coverURL = ""
		}
	}

	hashed, err := HashPassword(password)
	if err != nil {
		log.Printf("register: %v", err)
		api.WriteErr(w, err, "Failed to create user")
		return
	}

	user, err := h.users.Create(r.Context(), &models.User{
		UserName:   strings.ToLower(userName),
		Email:      strings.ToLower(email),
		FullName:   fullName,
		Password:   hashed,
		Avatar:     avatarURL,
		CoverImage: coverURL,
	})
	if err != nil {
		// A concurrent registration may have won the unique index.
		if apperr.IsConflict(err) {
			api.WriteErr(w, err, "User with this email or username already exists")
			return
		}
		log.Printf("register: %v", err)
		api.WriteErr(w, err, "Failed to create user")
		return
	}

	api.WriteJSON(w, http.StatusCreated, "User created successfully", user.Public())
}

// Login verifies credentials, issues a token pair and sets both token
// cookies.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteErr(w, apperr.ErrValidation, "Invalid request body")
		return
	}

	identity := strings.TrimSpace(req.UserName)
	if identity == "" {
		identity = strings.TrimSpace(req.Email)
	}
	if identity == "" {
		api.WriteErr(w, apperr.ErrValidation, "Username or email is required")
		return
	}
	if req.Password == "" {
		api.WriteErr(w, apperr.ErrValidation, "Password is required")
		return
	}

	user, err := h.users.FindByIdentity(r.Context(), identity)
	if err != nil {
		log.Printf("login: %v", err)
		api.WriteErr(w, err, "Failed to log in")
		return
	}
	if user == nil {
		api.WriteErr(w, apperr.ErrNotFound, "User not found")
		return
	}

	if !CheckPassword(req.Password, user.Password) {
		api.WriteErr(w, apperr.ErrUnauthenticated, "Incorrect password")
		return
	}

	pair, err := h.tokens.IssuePair(r.Context(), user)
	if err != nil {
		log.Printf("login: %v", err)
		api.WriteErr(w, err, "Failed to generate access and refresh token")
		return
	}

	h.setAuthCookies(w, pair)
	api.WriteJSON(w, http.StatusOK, "User logged in successfully", map[string]interface{}{
		"user":         user.Public(),
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	})
}

// Logout unsets the stored refresh token and clears both cookies. Access
// tokens already issued stay valid until their own expiry.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	user := api.UserFrom(r.Context())

	if err := h.users.UnsetRefreshToken(r.Context(), user.ID); err != nil {
		log.Printf("logout: %v", err)
		api.WriteErr(w, err, "Failed to log out")
		return
	}

	clearAuthCookies(w)
	api.WriteJSON(w, http.StatusOK, "User logged out successfully", nil)
}

// Renew rotates the refresh token. The incoming token must verify AND
// exactly match the stored value: a signed but already-rotated token is
// treated as reuse and rejected.
func (h *Handler) Renew(w http.ResponseWriter, r *http.Request) {
	raw := ""
	if c, err := r.Cookie(api.RefreshTokenCookie); err == nil {
		raw = c.Value
	}
	if raw == "" {
		var req models.RenewRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			raw = req.RefreshToken
		}
	}
	if raw == "" {
		api.WriteErr(w, apperr.ErrUnauthenticated, "Refresh token is required")
		return
	}

	claims, err := h.tokens.Verify(raw, TokenRefresh)
	if err != nil {
		api.WriteErr(w, err, "Invalid refresh token")
		return
	}

	user, err := h.users.FindByID(r.Context(), claims.Subject)
	if err != nil {
		log.Printf("renew: %v", err)
		api.WriteErr(w, err, "Failed to renew token")
		return
	}
	if user == nil {
		api.WriteErr(w, apperr.ErrUnauthenticated, "Invalid refresh token")
		return
	}

	if subtle.ConstantTimeCompare([]byte(user.RefreshToken), []byte(raw)) != 1 {
		api.WriteErr(w, apperr.ErrUnauthenticated, "Refresh token is expired or already used")
		return
	}

	pair, err := h.tokens.IssuePair(r.Context(), user)
	if err != nil {
		log.Printf("renew: %v", err)
		api.WriteErr(w, err, "Failed to renew token")
		return
	}

	h.setAuthCookies(w, pair)
	api.WriteJSON(w, http.StatusOK, "Access token renewed successfully", pair)
}

// CurrentUser returns the identity resolved by the auth middleware.
func (h *Handler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	api.WriteJSON(w, http.StatusOK, "Current user fetched successfully", api.UserFrom(r.Context()))
}

// UpdateAccount changes full name and/or email.
func (h *Handler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	user := api.UserFrom(r.Context())

	var req models.UpdateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteErr(w, apperr.ErrValidation, "Invalid request body")
		return
	}
	req.FullName = strings.TrimSpace(req.FullName)
	req.Email = strings.TrimSpace(req.Email)
	if req.FullName == "" && req.Email == "" {
		api.WriteErr(w, apperr.ErrValidation, "Full name or email is required")
		return
	}

	fields := bson.M{}
	if req.FullName != "" {
		fields["fullName"] = req.FullName
	}
	if req.Email != "" {
		existing, err := h.users.FindByIdentity(r.Context(), req.Email)
		if err != nil {
			log.Printf("update account: %v", err)
			api.WriteErr(w, err, "Failed to update account")
			return
		}
		if existing != nil && existing.ID.Hex() != user.ID {
			api.WriteErr(w, apperr.ErrConflict, "Email already in use")
			return
		}
		fields["email"] = strings.ToLower(req.Email)
	}

	updated, err := h.users.Update(r.Context(), user.ID, fields)
	if err != nil {
		log.Printf("update account: %v", err)
		api.WriteErr(w, err, "Failed to update account")
		return
	}

	api.WriteJSON(w, http.StatusOK, "Account updated successfully", updated.Public())
}

// UpdatePassword verifies the old password and stores a hash of the new
// one. Hashing happens here and nowhere else on this path.
func (h *Handler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	user := api.UserFrom(r.Context())

	var req models.UpdatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.WriteErr(w, apperr.ErrValidation, "Invalid request body")
		return
	}
	if req.OldPassword == "" || req.NewPassword == "" {
		api.WriteErr(w, apperr.ErrValidation, "Old and new passwords are required")
		return
	}

	// The context user is sanitized; reload the record for the hash.
	full, err := h.users.FindByID(r.Context(), user.ID)
	if err != nil || full == nil {
		log.Printf("update password: %v", err)
		api.WriteErr(w, apperr.ErrPersistence, "Failed to update password")
		return
	}

	if !CheckPassword(req.OldPassword, full.Password) {
		api.WriteErr(w, apperr.ErrUnauthenticated, "Incorrect password")
		return
	}

	hashed, err := HashPassword(req.NewPassword)
	if err != nil {
		log.Printf("update password: %v", err)
		api.WriteErr(w, err, "Failed to update password")
		return
	}
	if err := h.users.UpdatePassword(r.Context(), user.ID, hashed); err != nil {
		log.Printf("update password: %v", err)
		api.WriteErr(w, err, "Failed to update password")
		return
	}

	api.WriteJSON(w, http.StatusOK, "Password updated successfully", nil)
}

// UpdateAvatar replaces the avatar image.
func (h *Handler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "avatar", "avatars")
}

// UpdateCoverImage replaces the cover image.
func (h *Handler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateImage(w, r, "coverImage", "covers")
}

func (h *Handler) updateImage(w http.ResponseWriter, r *http.Request, field, category string) {
	user := api.UserFrom(r.Context())

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		api.WriteErr(w, apperr.ErrValidation, "Invalid multipart form")
		return
	}
	file := formFile(r, field)
	if file == nil {
		api.WriteErr(w, apperr.ErrValidation, "Image file is required")
		return
	}

	url, err := h.uploadFile(r.Context(), category, file)
	if err != nil {
		log.Printf("update %s: upload: %v", field, err)
		api.WriteErr(w, apperr.ErrUpload, "Failed to upload image")
		return
	}

	old := user.Avatar
	if field == "coverImage" {
		old = user.CoverImage
	}

	updated, err := h.users.Update(r.Context(), user.ID, bson.M{field: url})
	if err != nil {
		log.Printf("update %s: %v", field, err)
		api.WriteErr(w, err, "Failed to update image")
		return
	}

	// Best-effort cleanup of the replaced object.
	if old != "" {
		if err := h.media.Remove(r.Context(), old); err != nil {
			log.Printf("update %s: remove old object: %v", field, err)
		}
	}

	api.WriteJSON(w, http.StatusOK, "Image updated successfully", updated.Public())
}

func (h *Handler) uploadFile(ctx context.Context, category string, fh *multipart.FileHeader) (string, error) {
	f, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer f.Close()
	return h.media.Upload(ctx, category, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
}

// formFile returns the first uploaded file for the field, or nil.
func formFile(r *http.Request, field string) *multipart.FileHeader {
	if r.MultipartForm == nil {
		return nil
	}
	files := r.MultipartForm.File[field]
	if len(files) == 0 {
		return nil
	}
	return files[0]
}

func (h *Handler) setAuthCookies(w http.ResponseWriter, pair *TokenPair) {
	http.SetCookie(w, &http.Cookie{
		Name:     api.AccessTokenCookie,
		Value:    pair.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.accessTTL / time.Second),
	})
	http.SetCookie(w, &http.Cookie{
		Name:     api.RefreshTokenCookie,
		Value:    pair.RefreshToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.refreshTTL / time.Second),
	})
}

func clearAuthCookies(w http.ResponseWriter) {
	for _, name := range []string{api.AccessTokenCookie, api.RefreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			HttpOnly: true,
			Secure:   true,
			MaxAge:   -1,
		})
	}
}
