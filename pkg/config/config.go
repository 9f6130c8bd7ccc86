package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config agrupa la configuración de la aplicación (lectura vía Viper desde env y opcionalmente archivo).
type Config struct {
	App       AppConfig
	HTTP      HTTPConfig
	Backend   BackendConfig
	Session   SessionConfig
	Storage   StorageConfig
	Scanner   ScannerConfig
	Product   ProductConfig
	RateLimit RateLimitConfig
}

// AppConfig configuración general de la aplicación.
type AppConfig struct {
	Env      string // development, staging, production
	Name     string
	LogLevel string
}

// HTTPConfig configuración del servidor HTTP.
type HTTPConfig struct {
	Host string
	Port int
}

// Addr devuelve la dirección de escucha (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// BackendConfig describe la API remota (auth, productos, historial).
type BackendConfig struct {
	BaseURL     string
	Timeout     time.Duration
	TokenHeader string // cabecera con la que el backend entrega un token rotado
}

// SessionConfig configuración de la cookie de sesión del navegador.
type SessionConfig struct {
	CookieName string
	Secret     string
	TTL        time.Duration // vida de la cookie firmada
	IdleTTL    time.Duration // tiempo sin uso antes de descartar el estado en memoria
	InitWait   time.Duration // espera máxima a que Initialize resuelva antes de mostrar "cargando"
	Secure     bool
}

// StorageConfig selecciona dónde se persisten token y perfil de cada navegador.
type StorageConfig struct {
	Driver     string // memory | redis | sqlite
	RedisAddr  string
	RedisPass  string
	RedisDB    int
	RedisTTL   time.Duration
	SQLitePath string
}

// ScannerConfig políticas del bucle de escaneo.
type ScannerConfig struct {
	Interval      time.Duration // intervalo mínimo entre análisis de frames
	MaxRetries    int
	StreamTimeout time.Duration
}

// ProductConfig parámetros de la vista de producto.
type ProductConfig struct {
	MinDelay time.Duration
}

// RateLimitConfig límite de intentos de login por IP.
type RateLimitConfig struct {
	Enabled bool
	Max     int
	Window  time.Duration
}

// Load lee la configuración desde variables de entorno (y opcionalmente desde archivo).
// Las env vars tienen prioridad. Nombres esperados: APP_ENV, BACKEND_BASE_URL, SESSION_SECRET, etc.
func Load() (*Config, error) {
	v := viper.New()

	// Opcional: archivo de configuración (.env o config.env)
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	_ = v.ReadInConfig() // ignoramos error si no existe

	v.SetConfigName("config")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	cfg := &Config{
		App: AppConfig{
			Env:      getString(v, "APP_ENV", "development"),
			Name:     getString(v, "APP_NAME", "pilo-web"),
			LogLevel: getString(v, "LOG_LEVEL", "info"),
		},
		HTTP: HTTPConfig{
			Host: getString(v, "HTTP_HOST", "0.0.0.0"),
			Port: getInt(v, "HTTP_PORT", 4000),
		},
		Backend: BackendConfig{
			BaseURL:     strings.TrimRight(getString(v, "BACKEND_BASE_URL", "https://www.pilo.life/api"), "/"),
			Timeout:     getDuration(v, "BACKEND_TIMEOUT", 15*time.Second),
			TokenHeader: getString(v, "BACKEND_TOKEN_HEADER", "X-New-Token"),
		},
		Session: SessionConfig{
			CookieName: getString(v, "SESSION_COOKIE", "pilo_sid"),
			Secret:     getString(v, "SESSION_SECRET", ""),
			TTL:        getDuration(v, "SESSION_TTL", 30*24*time.Hour),
			IdleTTL:    getDuration(v, "SESSION_IDLE_TTL", 30*time.Minute),
			InitWait:   getDuration(v, "SESSION_INIT_WAIT", 2*time.Second),
			Secure:     getBool(v, "SESSION_SECURE", false),
		},
		Storage: StorageConfig{
			Driver:     strings.ToLower(getString(v, "STORAGE_DRIVER", "memory")),
			RedisAddr:  getString(v, "REDIS_ADDR", "localhost:6379"),
			RedisPass:  getString(v, "REDIS_PASSWORD", ""),
			RedisDB:    getInt(v, "REDIS_DB", 0),
			RedisTTL:   getDuration(v, "REDIS_TTL", 30*24*time.Hour),
			SQLitePath: getString(v, "SQLITE_PATH", "pilo.db"),
		},
		Scanner: ScannerConfig{
			Interval:      getDuration(v, "SCAN_INTERVAL", 150*time.Millisecond),
			MaxRetries:    getInt(v, "SCAN_MAX_RETRIES", 5),
			StreamTimeout: getDuration(v, "SCAN_STREAM_TIMEOUT", 10*time.Second),
		},
		Product: ProductConfig{
			MinDelay: getDuration(v, "PRODUCT_MIN_DELAY", 500*time.Millisecond),
		},
		RateLimit: RateLimitConfig{
			Enabled: getBool(v, "RATE_LIMIT_ENABLED", true),
			Max:     getInt(v, "RATE_LIMIT_MAX", 10),
			Window:  getDuration(v, "RATE_LIMIT_WINDOW", time.Minute),
		},
	}

	if cfg.Session.Secret == "" {
		if cfg.App.Env == "production" {
			return nil, fmt.Errorf("config: SESSION_SECRET requerido en producción")
		}
		cfg.Session.Secret = "dev-insecure-session-secret"
	}
	switch cfg.Storage.Driver {
	case "memory", "redis", "sqlite":
	default:
		return nil, fmt.Errorf("config: STORAGE_DRIVER desconocido %q", cfg.Storage.Driver)
	}
	if cfg.Scanner.MaxRetries < 1 {
		cfg.Scanner.MaxRetries = 1
	}

	return cfg, nil
}

func getString(v *viper.Viper, key, def string) string {
	if v.IsSet(key) {
		return v.GetString(key)
	}
	return def
}

func getInt(v *viper.Viper, key string, def int) int {
	if v.IsSet(key) {
		switch v.Get(key).(type) {
		case int:
			return v.GetInt(key)
		case string:
			n, err := strconv.Atoi(v.GetString(key))
			if err != nil {
				return def
			}
			return n
		default:
			return v.GetInt(key)
		}
	}
	return def
}

func getBool(v *viper.Viper, key string, def bool) bool {
	if v.IsSet(key) {
		return v.GetBool(key)
	}
	return def
}

// getDuration acepta "150ms", "10s"... y, por compatibilidad, un entero en milisegundos.
func getDuration(v *viper.Viper, key string, def time.Duration) time.Duration {
	if !v.IsSet(key) {
		return def
	}
	s := strings.TrimSpace(v.GetString(key))
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Millisecond
	}
	return def
}
