// Package barcode contiene la política de aceptación de candidatos.
package barcode

const (
	MinLength = 8
	MaxLength = 14
)

// Valid reporta si code es aceptable como candidato: solo dígitos ASCII, 8 a 14 caracteres.
// Se aplica tanto al resultado del detector como antes de enviar al backend.
func Valid(code string) bool {
	if len(code) < MinLength || len(code) > MaxLength {
		return false
	}
	for i := 0; i < len(code); i++ {
		if code[i] < '0' || code[i] > '9' {
			return false
		}
	}
	return true
}

// FirstValid devuelve el primer candidato válido en orden de detección.
func FirstValid(candidates []string) (string, bool) {
	for _, c := range candidates {
		if Valid(c) {
			return c, true
		}
	}
	return "", false
}
