package cli

import (
	"errors"
	"os"

	"protoclient/internal/config"
	"protoclient/internal/secrets"
)

// getPassword is swapped out in tests so they never touch the OS keyring.
var getPassword = secrets.GetPassword

// loadConfig resolves the password in order: environment, config file, keyring.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	if _, ok := os.LookupEnv("PROTOCLIENT_AUTH_PASSWORD"); ok {
		cfg.Auth.PasswordSource = "env"
		return cfg, nil
	}

	if cfg.Auth.Password != "" {
		cfg.Auth.PasswordSource = "config"
		return cfg, nil
	}

	if cfg.Auth.Username == "" || cfg.POP3.Host == "" {
		return cfg, nil
	}

	password, err := getPassword(cfg.Auth.Username, cfg.POP3.Host)
	if err != nil {
		if errors.Is(err, secrets.ErrSecretNotFound) {
			return cfg, nil
		}
		return cfg, err
	}

	cfg.Auth.Password = password
	cfg.Auth.PasswordSource = "keyring"
	return cfg, nil
}
