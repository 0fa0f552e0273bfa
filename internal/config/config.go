// Package config loads TOML launch definitions for the facility.
package config

import (
	"fmt"
	"os/user"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/loykin/spawnr/internal/launch"
	"github.com/loykin/spawnr/internal/logger"
)

// Config is the top-level TOML structure.
type Config struct {
	Env        []string         `toml:"env" mapstructure:"env"`
	Log        logger.AppConfig `toml:"log" mapstructure:"log"`
	HistoryDSN string           `toml:"history_dsn" mapstructure:"history_dsn"`
	Server     ServerConfig     `toml:"server" mapstructure:"server"`
	Launches   []LaunchSpec     `toml:"launches" mapstructure:"launches"`
}

type ServerConfig struct {
	Listen   string `toml:"listen" mapstructure:"listen"`
	BasePath string `toml:"base_path" mapstructure:"base_path"`
}

// LaunchSpec is one configured launch: everything needed to build a
// launch.Request plus capture settings for the child's stdio.
type LaunchSpec struct {
	Name    string   `toml:"name" mapstructure:"name"`
	Path    string   `toml:"path" mapstructure:"path"`
	Args    []string `toml:"args" mapstructure:"args"`
	WorkDir string   `toml:"workdir" mapstructure:"workdir"`
	Env     []string `toml:"env" mapstructure:"env"`

	User   string   `toml:"user" mapstructure:"user"`     // name or numeric uid
	Group  string   `toml:"group" mapstructure:"group"`   // name or numeric gid
	Groups []string `toml:"groups" mapstructure:"groups"` // supplementary, names or gids

	NewSession bool `toml:"new_session" mapstructure:"new_session"`
	SetPgid    bool `toml:"set_pgid" mapstructure:"set_pgid"`
	Pgid       int  `toml:"pgid" mapstructure:"pgid"`

	Capture logger.CaptureConfig `toml:"log" mapstructure:"log"`
}

// Load reads and validates a TOML config file.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("toml")
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}
	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, err
	}
	seen := make(map[string]struct{}, len(c.Launches))
	for i := range c.Launches {
		ls := &c.Launches[i]
		if err := ls.Validate(); err != nil {
			return nil, fmt.Errorf("launches[%d]: %w", i, err)
		}
		if _, dup := seen[ls.Name]; dup {
			return nil, fmt.Errorf("launches[%d]: duplicate name %q", i, ls.Name)
		}
		seen[ls.Name] = struct{}{}
	}
	return &c, nil
}

// Find returns the named launch spec.
func (c *Config) Find(name string) (*LaunchSpec, error) {
	for i := range c.Launches {
		if c.Launches[i].Name == name {
			return &c.Launches[i], nil
		}
	}
	return nil, fmt.Errorf("config: no launch named %q", name)
}

// Validate checks one launch entry.
func (ls *LaunchSpec) Validate() error {
	name := strings.TrimSpace(ls.Name)
	if name == "" {
		return fmt.Errorf("name is required")
	}
	if strings.ContainsAny(name, " \t\n\r/\\<>:\"|?*") {
		return fmt.Errorf("name %q contains invalid characters", name)
	}
	if strings.TrimSpace(ls.Path) == "" {
		return fmt.Errorf("launch %q: path is required", name)
	}
	if ls.NewSession && ls.SetPgid {
		return fmt.Errorf("launch %q: new_session and set_pgid are mutually exclusive", name)
	}
	if ls.Pgid != 0 && !ls.SetPgid {
		return fmt.Errorf("launch %q: pgid requires set_pgid", name)
	}
	for i, kv := range ls.Env {
		if !strings.Contains(kv, "=") {
			return fmt.Errorf("launch %q: env[%d] %q must be KEY=VALUE", name, i, kv)
		}
	}
	return nil
}

// Argv returns the argument vector, supplying the conventional argv[0]
// when the config omits it.
func (ls *LaunchSpec) Argv() []string {
	argv0 := ls.Path
	if i := strings.LastIndexByte(argv0, '/'); i >= 0 {
		argv0 = argv0[i+1:]
	}
	return append([]string{argv0}, ls.Args...)
}

// Identity resolves the configured user/group names into a launch.Identity.
// Returns nil when no identity fields are set. When only group fields are
// set, the uid resolves to the current user so the credential still applies
// groups before it.
func (ls *LaunchSpec) Identity() (*launch.Identity, error) {
	if ls.User == "" && ls.Group == "" && len(ls.Groups) == 0 {
		return nil, nil
	}
	id := &launch.Identity{}

	var primaryGid string
	if ls.User != "" {
		uid, gid, err := resolveUser(ls.User)
		if err != nil {
			return nil, fmt.Errorf("launch %q: %w", ls.Name, err)
		}
		id.UID = uid
		primaryGid = gid
	} else {
		cur, err := user.Current()
		if err != nil {
			return nil, fmt.Errorf("launch %q: resolve current user: %w", ls.Name, err)
		}
		uid, err := parseID(cur.Uid)
		if err != nil {
			return nil, fmt.Errorf("launch %q: %w", ls.Name, err)
		}
		id.UID = uid
		primaryGid = cur.Gid
	}

	if ls.Group != "" {
		gid, err := resolveGroup(ls.Group)
		if err != nil {
			return nil, fmt.Errorf("launch %q: %w", ls.Name, err)
		}
		id.GID = gid
	} else {
		gid, err := parseID(primaryGid)
		if err != nil {
			return nil, fmt.Errorf("launch %q: %w", ls.Name, err)
		}
		id.GID = gid
	}

	if len(ls.Groups) == 0 {
		// Nothing to set; keep the inherited supplementary set rather than
		// clearing it with an empty setgroups.
		id.NoSetGroups = true
		return id, nil
	}
	id.Groups = make([]uint32, 0, len(ls.Groups))
	for _, g := range ls.Groups {
		gid, err := resolveGroup(g)
		if err != nil {
			return nil, fmt.Errorf("launch %q: %w", ls.Name, err)
		}
		id.Groups = append(id.Groups, gid)
	}
	return id, nil
}

// resolveUser accepts a login name or a raw numeric uid. Numeric ids need
// no passwd entry; that matches how init systems treat them.
func resolveUser(s string) (uint32, string, error) {
	if uid, err := parseID(s); err == nil {
		if u, err := user.LookupId(s); err == nil {
			return uid, u.Gid, nil
		}
		return uid, strconv.FormatUint(uint64(uid), 10), nil
	}
	u, err := user.Lookup(s)
	if err != nil {
		return 0, "", err
	}
	uid, err := parseID(u.Uid)
	if err != nil {
		return 0, "", err
	}
	return uid, u.Gid, nil
}

func resolveGroup(s string) (uint32, error) {
	if gid, err := parseID(s); err == nil {
		return gid, nil
	}
	g, err := user.LookupGroup(s)
	if err != nil {
		return 0, err
	}
	return parseID(g.Gid)
}

func parseID(s string) (uint32, error) {
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("non-numeric id %q", s)
	}
	return uint32(n), nil
}
