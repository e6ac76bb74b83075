// Package config loads process configuration the way the teacher's
// cmd/bd/config.go does: a viper instance bound to environment variables
// with explicit defaults, read once at startup (spec §9: ambient
// configuration, not part of the graph/storage domain model itself).
package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// fileConfig is the shape of an optional ligature.yaml read before
// environment variables are applied, mirroring the teacher's
// internal/config/local_config.go (yaml.Unmarshal into a small struct,
// env vars taking precedence).
type fileConfig struct {
	StorageDSN   string `yaml:"storage-dsn"`
	ListenAddr   string `yaml:"listen-addr"`
	ZookieSecret string `yaml:"zookie-secret"`
	ServiceName  string `yaml:"service-name"`
}

// loadYAMLDefaults reads path (if it exists) and seeds v's defaults from
// it. A missing file is not an error; ligature.yaml is optional.
func loadYAMLDefaults(v *viper.Viper, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading %s: %w", path, err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	if fc.StorageDSN != "" {
		v.SetDefault("storage-dsn", fc.StorageDSN)
	}
	if fc.ListenAddr != "" {
		v.SetDefault("listen-addr", fc.ListenAddr)
	}
	if fc.ZookieSecret != "" {
		v.SetDefault("zookie-secret", fc.ZookieSecret)
	}
	if fc.ServiceName != "" {
		v.SetDefault("service-name", fc.ServiceName)
	}
	return nil
}

// Config holds every setting the process entrypoint needs to wire a
// Service. JWT verification is deliberately absent: identity extraction
// is an external collaborator out of scope for this system (spec §1).
type Config struct {
	// StorageDSN selects the storage.Backend: "memory://" or a
	// "postgres://" connection string.
	StorageDSN string

	// ListenAddr is the host:port the Graph API's transport listens on.
	ListenAddr string

	// ZookieSecret signs every issued zookie (oracle.New).
	ZookieSecret string

	// ServiceName tags the OTel resource obs.Init builds.
	ServiceName string
}

const envPrefix = "LIGATURE"

// Load reads configuration from environment variables, falling back to
// defaults for everything but ZookieSecret, which must be set explicitly
// since it is a signing key.
func Load() (Config, error) {
	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetDefault("storage-dsn", "memory://")
	v.SetDefault("listen-addr", "127.0.0.1:7070")
	v.SetDefault("service-name", "ligature")

	if err := loadYAMLDefaults(v, "ligature.yaml"); err != nil {
		return Config{}, err
	}

	secret := v.GetString("zookie-secret")
	if secret == "" {
		return Config{}, fmt.Errorf("%s_ZOOKIE_SECRET must be set (a random 32+ byte string used to sign zookies)", envPrefix)
	}

	return Config{
		StorageDSN:   v.GetString("storage-dsn"),
		ListenAddr:   v.GetString("listen-addr"),
		ZookieSecret: secret,
		ServiceName:  v.GetString("service-name"),
	}, nil
}
