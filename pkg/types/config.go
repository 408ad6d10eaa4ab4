package types

// Configuration is the parsed .nosecrets.toml. An absent file is equivalent
// to every field being empty.
type Configuration struct {
	IgnorePaths    []string // [ignore] paths
	AllowPatterns  []string // [allow] patterns
	AllowValues    []string // [allow] values
	LowIsBlocking  bool     // low_is_blocking, default false
}

// IgnoreEntry is a single parsed line of .nosecretsignore.
type IgnoreEntry struct {
	FingerprintPrefix string // lowercase hex, 12-64 chars
	PathGlob          string // empty means "applies to all paths"
}
