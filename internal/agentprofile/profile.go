// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

// Package agentprofile manages named executor profiles: which agent
// command a chat request runs and which tools the agent is permitted.
// Profiles live in a YAML file and are hot-reloaded on change.
package agentprofile

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// DefaultProfileName is used when a chat request names no profile.
const DefaultProfileName = "claude"

// defaultTools is the permitted tool set when a profile lists none.
var defaultTools = []string{"Read", "Glob", "Grep", "Edit", "Write", "WebSearch", "WebFetch", "LSP"}

// Profile describes one executor configuration.
type Profile struct {
	Name    string   `yaml:"name" json:"name"`
	Command string   `yaml:"command" json:"command"`
	Args    []string `yaml:"args,omitempty" json:"args,omitempty"`
	Tools   []string `yaml:"tools,omitempty" json:"tools,omitempty"`
}

// ExtraArgs returns the profile's flags for an agent invocation: the
// declared args plus the permitted tool set.
func (p Profile) ExtraArgs() []string {
	args := append([]string{}, p.Args...)
	tools := p.Tools
	if len(tools) == 0 {
		tools = defaultTools
	}
	return append(args, "--tools="+strings.Join(tools, ","))
}

type profileFile struct {
	Profiles []Profile `yaml:"profiles"`
}

// Registry holds the loaded profiles. Reads and reloads may race freely.
type Registry struct {
	mu       sync.RWMutex
	path     string
	profiles map[string]Profile
}

// NewRegistry creates a registry backed by the YAML file at path. A missing
// or empty path leaves only the built-in default profile.
func NewRegistry(path string) (*Registry, error) {
	r := &Registry{
		path:     path,
		profiles: builtinProfiles(),
	}
	if path != "" {
		if err := r.Reload(); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func builtinProfiles() map[string]Profile {
	return map[string]Profile{
		DefaultProfileName: {Name: DefaultProfileName, Command: "claude"},
	}
}

// Reload re-reads the profile file. A missing file is not an error; the
// built-in default stays available either way.
func (r *Registry) Reload() error {
	data, err := os.ReadFile(r.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read profiles: %w", err)
	}

	var file profileFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse profiles: %w", err)
	}

	profiles := builtinProfiles()
	for _, p := range file.Profiles {
		if p.Name == "" {
			return fmt.Errorf("profile with empty name in %s", r.path)
		}
		if p.Command == "" {
			return fmt.Errorf("profile %q has no command", p.Name)
		}
		profiles[p.Name] = p
	}

	r.mu.Lock()
	r.profiles = profiles
	r.mu.Unlock()
	return nil
}

// Get returns a profile by name; empty name selects the default.
func (r *Registry) Get(name string) (Profile, error) {
	if name == "" {
		name = DefaultProfileName
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("unknown profile %q", name)
	}
	return p, nil
}

// List returns all profiles sorted by name.
func (r *Registry) List() []Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Profile, 0, len(r.profiles))
	for _, p := range r.profiles {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Resolve returns the command line for a named profile.
func (r *Registry) Resolve(name string) (string, []string, error) {
	p, err := r.Get(name)
	if err != nil {
		return "", nil, err
	}
	return p.Command, p.ExtraArgs(), nil
}
