package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCredentials is returned when no usable mail and password pair
// can be found.
var ErrInvalidCredentials = errors.New("invalid credentials configuration")

// Credentials are the bookmeter login.
type Credentials struct {
	Mail     string
	Password string
}

// credentialsFile mirrors config.yml; pointers tell a missing key apart
// from an empty one.
type credentialsFile struct {
	Mail     *string `yaml:"mail"`
	Password *string `yaml:"password"`
}

// LoadCredentials reads a YAML file holding the keys mail and password.
func LoadCredentials(path string) (Credentials, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Credentials{}, fmt.Errorf("failed to read credentials file: %w", err)
	}

	var f credentialsFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return Credentials{}, fmt.Errorf("%w: %s: %v", ErrInvalidCredentials, path, err)
	}
	if f.Mail == nil || f.Password == nil {
		return Credentials{}, fmt.Errorf("%w: %s must define mail and password", ErrInvalidCredentials, path)
	}
	return Credentials{Mail: *f.Mail, Password: *f.Password}, nil
}

// Credentials resolves the login: BOOKMETER_MAIL and BOOKMETER_PASSWORD
// when both are set, otherwise the credentials file.
func (c *Config) Credentials() (Credentials, error) {
	if c.Mail != "" && c.Password != "" {
		return Credentials{Mail: c.Mail, Password: c.Password}, nil
	}
	if c.CredentialsFile == "" {
		return Credentials{}, fmt.Errorf("%w: no credentials configured", ErrInvalidCredentials)
	}
	return LoadCredentials(c.CredentialsFile)
}
