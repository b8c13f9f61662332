package batch

// Config holds all configuration for batch scanning.
type Config struct {
	Workers         int
	ContinueOnError bool

	// File discovery settings
	Recursive       bool
	IncludePatterns []string
	ExcludePatterns []string

	// PageRange selects PDF pages; empty means all.
	PageRange string

	Format     string
	OutputFile string
	Quiet      bool
	ShowStats  bool

	// Progress, when set, is told about every finished file.
	Progress Progress
}

// DefaultConfig returns sequential scanning that keeps going on errors.
func DefaultConfig() Config {
	return Config{Workers: 1, ContinueOnError: true, Format: "text"}
}
