/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except
 * in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the
 *  specific language governing permissions and limitations under the License.
 */

package config

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/zalando/go-keyring"
	"gopkg.in/yaml.v3"
)

// AppConfig is the user-editable configuration persisted to a YAML file in the user scope.
// Environment variables are treated as read-only overrides at runtime.
//
// config_version: bump when the structure changes in a backward-incompatible way.
// Unknown fields are ignored on unmarshal, so older builds tolerate newer files.

// CompilerConfig describes how to reach the VN compiler service. The access
// token is not stored on disk; it lives in the OS keychain.
type CompilerConfig struct {
	BaseURL     string `yaml:"base_url"`
	TimeoutMs   int    `yaml:"timeout_ms"`
	TLSInsecure bool   `yaml:"tls_insecure"`
}

type GeneralConfig struct {
	Theme        string `yaml:"theme"` // "system" | "light" | "dark" (informational for now)
	EnableServer bool   `yaml:"enable_server"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Source bool   `yaml:"source"`
	File   string `yaml:"file"`
}

type AppConfig struct {
	ConfigVersion int            `yaml:"config_version"`
	General       GeneralConfig  `yaml:"general"`
	Compiler      CompilerConfig `yaml:"compiler"`
	Logging       LoggingConfig  `yaml:"logging"`
}

// Defaults returns the application defaults.
func Defaults() AppConfig {
	return AppConfig{
		ConfigVersion: 1,
		General:       GeneralConfig{Theme: "system", EnableServer: false},
		Compiler:      CompilerConfig{BaseURL: "http://localhost:3001", TimeoutMs: 15000, TLSInsecure: false},
		Logging:       LoggingConfig{Level: "info", Format: "console", Source: false, File: ""},
	}
}

// Env var names used as overrides.
const (
	EnvCompilerURL       = "VNS_COMPILER_URL"
	EnvCompilerTimeoutMs = "VNS_COMPILER_TIMEOUT_MS"
	EnvCompilerTLSInsec  = "VNS_TLS_INSECURE"
	EnvEnableServer      = "VNS_ENABLE_SERVER"
	// EnvLogLevel Logging envs
	EnvLogLevel  = "VNS_LOG_LEVEL"
	EnvLogFormat = "VNS_LOG_FORMAT"
	EnvLogSource = "VNS_LOG_SOURCE"
	EnvLogFile   = "VNS_LOG_FILE"
)

// Service/keys for OS keyring.
const (
	keyringService = "VNStoryEditor"
	keyringToken   = "compiler_token"
)

// tokenStore abstracts the keyring, so tests can stub it.
var tokenStore TokenStore = osKeyring{}

type TokenStore interface {
	Get(service, key string) (string, error)
	Set(service, key, value string) error
	Delete(service, key string) error
}

// osKeyring implements TokenStore on the OS keychain via zalando/go-keyring.
type osKeyring struct{}

func (osKeyring) Get(service, key string) (string, error) { return keyring.Get(service, key) }
func (osKeyring) Set(service, key, value string) error    { return keyring.Set(service, key, value) }
func (osKeyring) Delete(service, key string) error        { return keyring.Delete(service, key) }

// ConfigPath returns the per-user config file path.
func ConfigPath() (string, error) {
	var base string
	switch runtime.GOOS {
	case "windows":
		base = os.Getenv("AppData")
		if base == "" { // fallback
			base = filepath.Join(os.Getenv("USERPROFILE"), "AppData", "Roaming")
		}
		base = filepath.Join(base, "VNStoryEditor")
	case "darwin":
		base = filepath.Join(os.Getenv("HOME"), "Library", "Application Support", "VNStoryEditor")
	default: // linux and others
		base = filepath.Join(os.Getenv("HOME"), ".config", "vn-story-editor")
	}
	if base == "" {
		return "", errors.New("cannot resolve config directory")
	}
	return filepath.Join(base, "config.yaml"), nil
}

// Load reads the user config file (if present), applies defaults, and merges
// environment overrides. The compiler token comes from the keyring and is
// returned separately; it is never part of the struct.
func Load() (AppConfig, string, error) {
	cfg := Defaults()
	path, err := ConfigPath()
	if err != nil {
		return cfg, "", err
	}
	if data, err := os.ReadFile(path); err == nil {
		var fileCfg AppConfig
		if err := yaml.Unmarshal(data, &fileCfg); err == nil {
			mergeInto(&cfg, &fileCfg)
		}
	}
	applyEnvOverrides(&cfg)
	tok, _ := tokenStore.Get(keyringService, keyringToken)
	return cfg, tok, nil
}

// Save writes the user config YAML and persists the token into the OS
// keyring (if non-empty).
func Save(cfg AppConfig, token string) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return err
	}
	if token != "" {
		if err := tokenStore.Set(keyringService, keyringToken, token); err != nil {
			return err
		}
	}
	return nil
}

// ClearToken removes the stored compiler token from the keyring.
func ClearToken() error {
	return tokenStore.Delete(keyringService, keyringToken)
}

func mergeInto(dst *AppConfig, src *AppConfig) {
	if src.ConfigVersion != 0 {
		dst.ConfigVersion = src.ConfigVersion
	}
	if src.General.Theme != "" {
		dst.General.Theme = src.General.Theme
	}
	// booleans: copy directly from src (file) so user preferences persist
	dst.General.EnableServer = src.General.EnableServer
	if src.Compiler.BaseURL != "" {
		dst.Compiler.BaseURL = src.Compiler.BaseURL
	}
	if src.Compiler.TimeoutMs != 0 {
		dst.Compiler.TimeoutMs = src.Compiler.TimeoutMs
	}
	dst.Compiler.TLSInsecure = src.Compiler.TLSInsecure
	// logging
	if strings.TrimSpace(src.Logging.Level) != "" {
		dst.Logging.Level = strings.ToLower(strings.TrimSpace(src.Logging.Level))
	}
	if strings.TrimSpace(src.Logging.Format) != "" {
		dst.Logging.Format = strings.ToLower(strings.TrimSpace(src.Logging.Format))
	}
	dst.Logging.Source = src.Logging.Source
	if strings.TrimSpace(src.Logging.File) != "" {
		dst.Logging.File = strings.TrimSpace(src.Logging.File)
	}
}

func applyEnvOverrides(cfg *AppConfig) {
	if v := strings.TrimSpace(os.Getenv(EnvCompilerURL)); v != "" {
		cfg.Compiler.BaseURL = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvCompilerTimeoutMs)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Compiler.TimeoutMs = n
		}
	}
	if v := strings.TrimSpace(os.Getenv(EnvCompilerTLSInsec)); v != "" {
		cfg.Compiler.TLSInsecure = boolish(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvEnableServer)); v != "" {
		cfg.General.EnableServer = boolish(v)
	}
	// logging overrides
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFormat)); v != "" {
		cfg.Logging.Format = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogSource)); v != "" {
		cfg.Logging.Source = boolish(v)
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogFile)); v != "" {
		cfg.Logging.File = v
	}
}

func boolish(v string) bool {
	lv := strings.ToLower(v)
	return lv == "1" || lv == "true" || lv == "on" || lv == "yes"
}

// EnvOverrideFor returns the env var name if the field is overridden by environment variables.
func EnvOverrideFor(key string) (string, bool) {
	switch key {
	case "compiler.base_url":
		if os.Getenv(EnvCompilerURL) != "" {
			return EnvCompilerURL, true
		}
	case "compiler.timeout_ms":
		if os.Getenv(EnvCompilerTimeoutMs) != "" {
			return EnvCompilerTimeoutMs, true
		}
	case "compiler.tls_insecure":
		if os.Getenv(EnvCompilerTLSInsec) != "" {
			return EnvCompilerTLSInsec, true
		}
	case "general.enable_server":
		if os.Getenv(EnvEnableServer) != "" {
			return EnvEnableServer, true
		}
	case "logging.level":
		if os.Getenv(EnvLogLevel) != "" {
			return EnvLogLevel, true
		}
	case "logging.format":
		if os.Getenv(EnvLogFormat) != "" {
			return EnvLogFormat, true
		}
	case "logging.source":
		if os.Getenv(EnvLogSource) != "" {
			return EnvLogSource, true
		}
	case "logging.file":
		if os.Getenv(EnvLogFile) != "" {
			return EnvLogFile, true
		}
	}
	return "", false
}

// EffectiveTimeout returns the compiler request timeout, falling back to the
// default when the configured value is unusable.
func (c CompilerConfig) EffectiveTimeout() time.Duration {
	ms := c.TimeoutMs
	if ms <= 0 {
		ms = Defaults().Compiler.TimeoutMs
	}
	return time.Duration(ms) * time.Millisecond
}
