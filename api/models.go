package api

import "time"

// LoginRequest is the JSON body for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse is returned from POST /auth/login.
type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// VerifyResponse is returned from GET /auth/verify.
type VerifyResponse struct {
	Success   bool      `json:"success"`
	Username  string    `json:"username"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// CreateUserRequest is the JSON body for POST /auth/users.
type CreateUserRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserSummary is one entry of GET /auth/users. Password hashes are
// never included.
type UserSummary struct {
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
}

// ListUsersResponse is returned from GET /auth/users.
type ListUsersResponse struct {
	Success bool          `json:"success"`
	Users   []UserSummary `json:"users"`
}

// StatusResponse is the generic success envelope.
type StatusResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is returned for all error cases.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

// UploadResponse is returned from POST /upload/{clientID}.
type UploadResponse struct {
	Success      bool   `json:"success"`
	Filename     string `json:"filename"`
	OriginalName string `json:"originalname"`
	Size         int64  `json:"size"`
	Mimetype     string `json:"mimetype,omitempty"`
	Path         string `json:"path"`
}

// FileSummary is one entry of GET /files/{clientID}.
type FileSummary struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalname"`
	Size         int64     `json:"size"`
	Path         string    `json:"path"`
	UploadDate   time.Time `json:"uploadDate"`
}

// ListFilesResponse is returned from GET /files/{clientID}.
type ListFilesResponse struct {
	Success bool          `json:"success"`
	Files   []FileSummary `json:"files"`
}
