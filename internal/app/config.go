package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	ModelPath string // hcl model definition

	// Seed picks the random stream for the run; a negative value derives
	// one from the clock. Steps caps the number of turns; 0 runs until no
	// rule applies.
	Seed  int
	Steps int

	// Width, Height and Depth override the model's declared grid extent
	// where positive.
	Width  int
	Height int
	Depth  int

	LogFormat string
	LogLevel  string
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.ModelPath == "" {
		return nil, errors.New("ModelPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
