package secrets

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strings"
	"time"

	"github.com/99designs/keyring"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"protoclient/internal/config"
)

const (
	keyringPasswordEnv = "PROTOCLIENT_KEYRING_PASSWORD" //nolint:gosec // env var name, not a credential
	keyringBackendEnv  = "PROTOCLIENT_KEYRING_BACKEND"  //nolint:gosec // env var name, not a credential
)

var (
	ErrSecretNotFound        = errors.New("secret not found")
	errMissingSecretKey      = errors.New("missing secret key")
	errMissingUsername       = errors.New("missing username")
	errMissingHost           = errors.New("missing host")
	errMissingPassword       = errors.New("missing password")
	errNoTTY                 = errors.New("no TTY available for keyring file backend password prompt")
	errInvalidKeyringBackend = errors.New("invalid keyring backend")
	errKeyringTimeout        = errors.New("keyring connection timed out")
	openKeyringFunc          = openKeyring
	keyringOpenFunc          = keyring.Open
)

type KeyringBackendInfo struct {
	Value  string
	Source string
}

const (
	keyringBackendSourceEnv     = "env"
	keyringBackendSourceConfig  = "config"
	keyringBackendSourceDefault = "default"
	keyringBackendAuto          = "auto"
)

func keyringItem(key string, data []byte) keyring.Item {
	return keyring.Item{
		Key:   key,
		Data:  data,
		Label: config.AppName,
	}
}

// keyringConfig is the slice of config.yaml read before the full config is
// loaded, so that a broken config does not hide the keyring.
type keyringConfig struct {
	Auth struct {
		KeyringBackend string `yaml:"keyring_backend"`
	} `yaml:"auth"`
}

func readKeyringConfig() (keyringConfig, error) {
	path, err := config.ConfigPath()
	if err != nil {
		return keyringConfig{}, err
	}

	b, err := os.ReadFile(path) //nolint:gosec // config path is trusted
	if err != nil {
		if os.IsNotExist(err) {
			return keyringConfig{}, nil
		}
		return keyringConfig{}, fmt.Errorf("read config: %w", err)
	}

	var cfg keyringConfig
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return keyringConfig{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	return cfg, nil
}

func ResolveKeyringBackendInfo() (KeyringBackendInfo, error) {
	if v := normalize(os.Getenv(keyringBackendEnv)); v != "" {
		return KeyringBackendInfo{Value: v, Source: keyringBackendSourceEnv}, nil
	}

	cfg, err := readKeyringConfig()
	if err != nil {
		return KeyringBackendInfo{}, fmt.Errorf("resolve keyring backend: %w", err)
	}

	if v := normalize(cfg.Auth.KeyringBackend); v != "" {
		return KeyringBackendInfo{Value: v, Source: keyringBackendSourceConfig}, nil
	}

	return KeyringBackendInfo{Value: keyringBackendAuto, Source: keyringBackendSourceDefault}, nil
}

func allowedBackends(info KeyringBackendInfo) ([]keyring.BackendType, error) {
	switch info.Value {
	case "", keyringBackendAuto:
		return nil, nil
	case "keychain":
		return []keyring.BackendType{keyring.KeychainBackend}, nil
	case "secret-service":
		return []keyring.BackendType{keyring.SecretServiceBackend}, nil
	case "file":
		return []keyring.BackendType{keyring.FileBackend}, nil
	default:
		return nil, fmt.Errorf("%w: %q (expected %s, keychain, secret-service, or file)", errInvalidKeyringBackend, info.Value, keyringBackendAuto)
	}
}

// IsKeychainLockedError reports whether msg is the macOS "keychain locked"
// failure (errSecInteractionNotAllowed).
func IsKeychainLockedError(msg string) bool {
	msg = strings.ToLower(msg)
	return strings.Contains(msg, "-25308") ||
		strings.Contains(msg, "interaction is not allowed") ||
		strings.Contains(msg, "keychain is locked")
}

func wrapKeychainError(err error) error {
	if err == nil {
		return nil
	}

	if IsKeychainLockedError(err.Error()) {
		return fmt.Errorf("%w\n\nYour macOS keychain is locked. To unlock it, run:\n  security unlock-keychain ~/Library/Keychains/login.keychain-db", err)
	}

	return err
}

func fileKeyringPasswordFuncFrom(password string, passwordSet bool, isTTY bool) keyring.PromptFunc {
	// An empty passphrase is valid when the variable is set.
	if passwordSet {
		return keyring.FixedStringPrompt(password)
	}

	if isTTY {
		return keyring.TerminalPrompt
	}

	return func(_ string) (string, error) {
		return "", fmt.Errorf("%w; set %s", errNoTTY, keyringPasswordEnv)
	}
}

func fileKeyringPasswordFunc() keyring.PromptFunc {
	password, passwordSet := os.LookupEnv(keyringPasswordEnv)
	return fileKeyringPasswordFuncFrom(password, passwordSet, term.IsTerminal(int(os.Stdin.Fd())))
}

// keyringOpenTimeout bounds keyring.Open. On headless Linux the D-Bus
// SecretService can hang if gnome-keyring is installed but not running.
const keyringOpenTimeout = 5 * time.Second

func shouldForceFileBackend(goos string, backendInfo KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && backendInfo.Value == keyringBackendAuto && dbusAddr == ""
}

func shouldUseKeyringTimeout(goos string, backendInfo KeyringBackendInfo, dbusAddr string) bool {
	return goos == "linux" && backendInfo.Value == keyringBackendAuto && dbusAddr != ""
}

func openKeyring() (keyring.Keyring, error) {
	keyringDir, err := config.EnsureKeyringDir()
	if err != nil {
		return nil, fmt.Errorf("ensure keyring dir: %w", err)
	}

	backendInfo, err := ResolveKeyringBackendInfo()
	if err != nil {
		return nil, err
	}

	backends, err := allowedBackends(backendInfo)
	if err != nil {
		return nil, err
	}

	dbusAddr := os.Getenv("DBUS_SESSION_BUS_ADDRESS")
	if shouldForceFileBackend(runtime.GOOS, backendInfo, dbusAddr) {
		backends = []keyring.BackendType{keyring.FileBackend}
	}

	cfg := keyring.Config{
		ServiceName:              config.AppName,
		KeychainTrustApplication: false,
		AllowedBackends:          backends,
		FileDir:                  keyringDir,
		FilePasswordFunc:         fileKeyringPasswordFunc(),
	}

	if shouldUseKeyringTimeout(runtime.GOOS, backendInfo, dbusAddr) {
		return openKeyringWithTimeout(cfg, keyringOpenTimeout)
	}

	ring, err := keyringOpenFunc(cfg)
	if err != nil {
		return nil, fmt.Errorf("open keyring: %w", err)
	}

	return ring, nil
}

type keyringResult struct {
	ring keyring.Keyring
	err  error
}

func openKeyringWithTimeout(cfg keyring.Config, timeout time.Duration) (keyring.Keyring, error) {
	ch := make(chan keyringResult, 1)

	go func() {
		ring, err := keyringOpenFunc(cfg)
		ch <- keyringResult{ring, err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return nil, fmt.Errorf("open keyring: %w", res.err)
		}
		return res.ring, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("%w after %v (D-Bus SecretService may be unresponsive); "+
			"set %s=file and %s=<password> to use encrypted file storage instead",
			errKeyringTimeout, timeout, keyringBackendEnv, keyringPasswordEnv)
	}
}

func SetSecret(key string, value []byte) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errMissingSecretKey
	}

	ring, err := openKeyringFunc()
	if err != nil {
		return err
	}

	if err := ring.Set(keyringItem(key, value)); err != nil {
		return wrapKeychainError(fmt.Errorf("store secret: %w", err))
	}

	return nil
}

func GetSecret(key string) ([]byte, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, errMissingSecretKey
	}

	ring, err := openKeyringFunc()
	if err != nil {
		return nil, err
	}

	item, err := ring.Get(key)
	if err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return nil, ErrSecretNotFound
		}
		return nil, wrapKeychainError(fmt.Errorf("read secret: %w", err))
	}

	return item.Data, nil
}

func DeleteSecret(key string) error {
	key = strings.TrimSpace(key)
	if key == "" {
		return errMissingSecretKey
	}

	ring, err := openKeyringFunc()
	if err != nil {
		return err
	}

	if err := ring.Remove(key); err != nil {
		if errors.Is(err, keyring.ErrKeyNotFound) {
			return ErrSecretNotFound
		}
		return wrapKeychainError(fmt.Errorf("remove secret: %w", err))
	}
	return nil
}

// SetPassword stores the POP3 password for username on host.
func SetPassword(username, host, password string) error {
	key, err := passwordKey(username, host)
	if err != nil {
		return err
	}
	if password == "" {
		return errMissingPassword
	}

	return SetSecret(key, []byte(password))
}

func GetPassword(username, host string) (string, error) {
	key, err := passwordKey(username, host)
	if err != nil {
		return "", err
	}

	data, err := GetSecret(key)
	if err != nil {
		return "", err
	}

	return string(data), nil
}

func DeletePassword(username, host string) error {
	key, err := passwordKey(username, host)
	if err != nil {
		return err
	}
	return DeleteSecret(key)
}

func passwordKey(username, host string) (string, error) {
	user := normalize(username)
	if user == "" {
		return "", errMissingUsername
	}
	h := normalize(host)
	if h == "" {
		return "", errMissingHost
	}
	return fmt.Sprintf("pop3:password:%s@%s", user, h), nil
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
