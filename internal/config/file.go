package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/casadocigano/fidelidade/internal/errors"
)

type kind int

const (
	kindString kind = iota
	kindInt
	kindDuration
)

type key struct {
	kind kind
	get  func(*Config) string
}

var keys = map[string]key{
	"api_base":           {kindString, func(c *Config) string { return c.APIBase }},
	"timeout":            {kindDuration, func(c *Config) string { return c.Timeout.String() }},
	"session.backend":    {kindString, func(c *Config) string { return c.Session.Backend }},
	"session.dir":        {kindString, func(c *Config) string { return c.Session.Dir }},
	"redis.addr":         {kindString, func(c *Config) string { return c.Redis.Addr }},
	"redis.username":     {kindString, func(c *Config) string { return c.Redis.Username }},
	"redis.password":     {kindString, func(c *Config) string { return c.Redis.Password }},
	"redis.db":           {kindInt, func(c *Config) string { return strconv.Itoa(c.Redis.DB) }},
	"redis.prefix":       {kindString, func(c *Config) string { return c.Redis.Prefix }},
	"logging.level":      {kindString, func(c *Config) string { return c.Logging.Level }},
	"logging.format":     {kindString, func(c *Config) string { return c.Logging.Format }},
	"logging.file":       {kindString, func(c *Config) string { return c.Logging.File }},
	"defaults.per_page":  {kindInt, func(c *Config) string { return strconv.Itoa(c.Defaults.PerPage) }},
	"defaults.gift_name": {kindString, func(c *Config) string { return c.Defaults.GiftName }},
	"defaults.format":    {kindString, func(c *Config) string { return c.Defaults.Format }},
}

// Keys lists every settable key in dot notation.
func Keys() []string {
	out := make([]string, 0, len(keys))
	for k := range keys {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func unknownKey(name string) *errors.FidelidadeError {
	return errors.New(errors.ErrCodeConfigKey, fmt.Sprintf("unknown configuration key: %s", name)).
		WithSuggestion("Known keys: " + strings.Join(Keys(), ", "))
}

// Get returns the effective value of a dot-notation key.
func (c *Config) Get(name string) (string, error) {
	k, ok := keys[name]
	if !ok {
		return "", unknownKey(name)
	}
	return k.get(c), nil
}

func parseValue(name string, k key, raw string) (any, error) {
	switch k.kind {
	case kindInt:
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("%s expects an integer", name), err)
		}
		return n, nil
	case kindDuration:
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeConfigInvalid, fmt.Sprintf("%s expects a duration such as 30s", name), err)
		}
		return d.String(), nil
	default:
		return raw, nil
	}
}

// Set writes one key into the YAML file at path, keeping every other entry.
// The file and its directory are created when missing.
func Set(path, name, raw string) error {
	k, ok := keys[name]
	if !ok {
		return unknownKey(name)
	}
	value, err := parseValue(name, k, raw)
	if err != nil {
		return err
	}

	doc, err := readDocument(path)
	if err != nil {
		return err
	}

	parts := strings.Split(name, ".")
	node := doc
	for _, p := range parts[:len(parts)-1] {
		child, ok := node[p].(map[string]any)
		if !ok {
			child = map[string]any{}
			node[p] = child
		}
		node = child
	}
	node[parts[len(parts)-1]] = value

	return writeDocument(path, doc)
}

func readDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFileReadFailed, "failed to read config", err)
	}

	doc := map[string]any{}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewFileUnmarshalError(path, "YAML", err)
	}
	if doc == nil {
		doc = map[string]any{}
	}
	return doc, nil
}

func writeDocument(path string, doc map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return errors.Wrap(errors.ErrCodeDirectoryFailed, "failed to create config directory", err)
	}
	data, err := yaml.Marshal(doc)
	if err != nil {
		return errors.Wrap(errors.ErrCodeConfigInvalid, "failed to marshal config", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return errors.Wrap(errors.ErrCodeFileWriteFailed, "failed to write config", err)
	}
	return nil
}
