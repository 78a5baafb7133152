// Package config loads configuration from the environment and from YAML
// files.
//
// It wraps `github.com/joho/godotenv`, `github.com/caarlos0/env/v11` and
// `gopkg.in/yaml.v3`:
//
//   - LoadEnv / MustLoadEnv read one or more `.env` files into the process
//     environment (default `.env` in the working directory).
//   - Load / MustLoad parse the environment into any struct using `env` tags.
//     Each type is parsed once and cached; ForceReload and ResetCache exist
//     for tests.
//   - LoadFile reads a YAML document into map[string]any after expanding
//     ${VAR} references, and Section picks a nested block out of it.
//
// # Usage
//
//	type MongoEnv struct {
//		Host string `env:"MONGO_HOST" envDefault:"localhost"`
//	}
//
//	config.MustLoadEnv(".env.local")
//
//	var cfg MongoEnv
//	config.MustLoad(&cfg)
//
//	doc, err := config.LoadFile("config.yaml")
//	if err != nil {
//		return err
//	}
//	mongoBlock := config.Section(doc, "mongo")
//
// # Error Handling
//
// Errors are joined with package sentinels (ErrParsingConfig,
// ErrLoadingEnvFile, ErrReadingFile, ErrParsingFile) and can be matched with
// errors.Is.
package config
