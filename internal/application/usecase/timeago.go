package usecase

import (
	"fmt"
	"time"
)

var timeUnits = []struct {
	name    string
	seconds int64
}{
	{"year", 31536000},
	{"month", 2592000},
	{"week", 604800},
	{"day", 86400},
	{"hour", 3600},
	{"minute", 60},
}

// FormatTimeAgo etiqueta relativa con la unidad más grande que cabe al menos una vez.
// Fechas futuras o de menos de un minuto: "Just now".
func FormatTimeAgo(now, t time.Time) string {
	secs := int64(now.Sub(t) / time.Second)
	for _, u := range timeUnits {
		n := secs / u.seconds
		if n >= 1 {
			if n == 1 {
				return fmt.Sprintf("%d %s ago", n, u.name)
			}
			return fmt.Sprintf("%d %ss ago", n, u.name)
		}
	}
	return "Just now"
}
