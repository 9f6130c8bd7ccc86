package dto

// ErrorResponse cuerpo de error para clientes que piden JSON (scripts de la página).
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
