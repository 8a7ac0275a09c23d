package driven

// ConfigStore provides typed access to tool configuration: connection
// strings, embedding settings, chunking defaults. Implementations own
// persistence and type coercion; environment variables may shadow
// stored values for secrets.
type ConfigStore interface {
	// Get retrieves a raw value. The boolean reports key presence.
	Get(key string) (any, bool)

	// GetString returns a string value, or "" when absent or not a
	// string.
	GetString(key string) string

	// GetInt returns an integer value, or 0 when absent or not an
	// integer.
	GetInt(key string) int

	// GetBool returns a boolean value, or false when absent or not a
	// boolean.
	GetBool(key string) bool

	// GetStringSlice returns a string slice value, or nil when absent
	// or not a slice.
	GetStringSlice(key string) []string

	// Set stores a value and persists it immediately.
	Set(key string, value any) error

	// Save persists the current configuration.
	Save() error

	// Load reads configuration from storage.
	Load() error

	// Path returns the backing file path, for error messages.
	Path() string
}
