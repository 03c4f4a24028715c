package transport

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TaskCreateRequest mirrors the task JSON contract. DueDate is an RFC 3339
// string; absence keeps the task undated.
type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	Category    string `json:"category"`
	DueDate     string `json:"dueDate"`
}

// TaskUpdateRequest is a partial update: nil fields are left untouched.
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
	Priority    *string `json:"priority"`
	Category    *string `json:"category"`
	DueDate     *string `json:"dueDate"`
}
