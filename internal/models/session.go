package models

// WebSession — содержимое cookie-сессии веб-интерфейса.
type WebSession struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}
