package driven

// ConfigStore is a flat key/value view over the settings file. Keys are
// dotted ("search.threshold"). Typed getters return the zero value for a
// missing key or a value of the wrong type; numeric getters widen ints.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetFloat(key string) float64
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores a value and persists it.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is the backing file, or ":memory:".
	Path() string
}
