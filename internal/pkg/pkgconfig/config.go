package pkgconfig

// Config is the read-only configuration surface used by the application.
//
// Implementations load values once at process start; request-handling code
// receives a Config by reference and never reaches for ambient globals.
type Config interface {
	GetString(key string) string
	GetInt(key string) int64
	GetBool(key string) bool
	GetFloat(key string) float64
	GetArray(key string) []string

	Close() error
}
