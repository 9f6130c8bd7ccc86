package jwt

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims de la cookie de sesión del navegador. SID identifica el estado de cliente
// (token del backend y perfil) guardado en el ClientState.
type Claims struct {
	jwt.RegisteredClaims
	SID string `json:"sid"`
}

// Generate firma una cookie de sesión con el sid indicado.
func Generate(secret, sid, issuer string, ttl time.Duration) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	if sid == "" {
		return "", fmt.Errorf("jwt: sid vacío")
	}
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    issuer,
			Subject:   sid,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SID: sid,
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// Parse valida la cookie y devuelve el sid.
// Retorna error si el token es inválido, expirado o tiene firma incorrecta.
func Parse(secret, tokenString string) (string, error) {
	if secret == "" {
		return "", fmt.Errorf("jwt: secret vacío")
	}
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("método de firma inesperado: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return "", err
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.SID == "" {
		return "", fmt.Errorf("claims inválidos")
	}
	return claims.SID, nil
}

// ErrNoExpiry indica que el token no es un JWT o no trae claim exp.
var ErrNoExpiry = errors.New("jwt: token sin exp")

// PeekExpiry lee el claim exp de un token del backend SIN verificar la firma.
// Acepta el valor con o sin prefijo "Bearer ". La firma la valida el backend;
// aquí solo se usa para evitar una llamada a /auth/me con un token ya vencido.
func PeekExpiry(token string) (time.Time, error) {
	raw := strings.TrimSpace(token)
	if len(raw) > 7 && strings.EqualFold(raw[:7], "Bearer ") {
		raw = strings.TrimSpace(raw[7:])
	}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return time.Time{}, ErrNoExpiry
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, ErrNoExpiry
	}
	return exp.Time, nil
}

// Expired informa si el token tiene exp y ya pasó. Tokens opacos nunca se consideran vencidos.
func Expired(token string, now time.Time) bool {
	exp, err := PeekExpiry(token)
	if err != nil {
		return false
	}
	return !now.Before(exp)
}
