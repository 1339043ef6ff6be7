package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	WorkflowPath string // .hcl file or a directory of .hcl files

	LogFormat   string
	LogLevel    string
	SkipMissing bool // proceed past manifest entries missing on disk
	NoPlot      bool // stop after the solve pipeline and port persistence
}

func NewConfig(cfg Config) (*Config, error) {
	if cfg.WorkflowPath == "" {
		return nil, errors.New("WorkflowPath is a required configuration field and cannot be empty")
	}

	return &cfg, nil
}
