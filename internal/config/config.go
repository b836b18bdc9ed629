package config

import (
	"fmt"
	"os"
	"regexp"
	"sync"

	"gopkg.in/yaml.v3"
)

const configFileVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	StoreConfig
	RedisConfig
	TokenConfig
	SecurityConfig
	BootstrapConfig
	CorsConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetBaseURL() string
	GetLogLevel() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Store
	Redis
	Token
	Security
	Bootstrap
	Cors
}

// New builds the configuration. When CONFIG_FILE is set the YAML file it names is loaded
// and its values are used for any key not present in the environment.
func New() (Config, error) {
	if path := os.Getenv(configFileVar); path != "" {
		if err := LoadFile(path); err != nil {
			return nil, err
		}
	}
	return mainConfig{}, nil
}

var (
	fileValues     = map[string]string{}
	fileValuesLock sync.RWMutex
	envPattern     = regexp.MustCompile(`\$\{([^}]+)\}`)
)

// LoadFile reads a flat YAML document of KEY: value pairs. ${VAR} references are
// expanded from the environment before parsing.
func LoadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}

	expanded := envPattern.ReplaceAllStringFunc(string(data), func(match string) string {
		return os.Getenv(envPattern.FindStringSubmatch(match)[1])
	})

	raw := map[string]any{}
	if err := yaml.Unmarshal([]byte(expanded), &raw); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}

	values := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		values[k] = fmt.Sprint(v)
	}

	fileValuesLock.Lock()
	fileValues = values
	fileValuesLock.Unlock()
	return nil
}

// GetEnv resolves a key from the environment, then the loaded config file, then the default.
func GetEnv(envVar, defaultValue string) string {
	if value := os.Getenv(envVar); value != "" {
		return value
	}
	fileValuesLock.RLock()
	defer fileValuesLock.RUnlock()
	if value, ok := fileValues[envVar]; ok && value != "" {
		return value
	}
	return defaultValue
}
