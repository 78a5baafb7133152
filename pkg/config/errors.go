package config

import "errors"

var (
	ErrParsingConfig = errors.New("failed to parse environment variables into config")

	ErrLoadingEnvFile = errors.New("failed to load env file")

	ErrNilPointer = errors.New("nil pointer provided to config loader")

	ErrReadingFile = errors.New("failed to read config file")

	ErrParsingFile = errors.New("failed to parse config file")
)
