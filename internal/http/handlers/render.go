package handlers

import (
	"net/http"
)

// Page — данные страницы веб-интерфейса.
type Page struct {
	Name    string `json:"page"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// Renderer отрисовывает страницы веб-интерфейса.
type Renderer interface {
	Render(w http.ResponseWriter, r *http.Request, status int, p Page)
}

// JSONRenderer отдаёт страницу как JSON-документ; подходит для SPA-фронта и тестов.
type JSONRenderer struct{}

func (JSONRenderer) Render(w http.ResponseWriter, _ *http.Request, status int, p Page) {
	writeJSON(w, status, p)
}
