package creds

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/TheMichaelB/credvault/internal/models"
)

// ErrUnknownLayout is returned when a credentials file matches none of the
// supported shapes.
var ErrUnknownLayout = errors.New("unrecognized credentials layout")

type entry struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// document is the wrapped layout: {"credentials": [...]}.
type document struct {
	Credentials json.RawMessage `json:"credentials"`
}

// Parse decodes credentials from JSON. Three layouts are accepted:
//
//	[{"username": "alice", "password": "hunter2"}]
//	{"credentials": [{"username": "alice", "password": "hunter2"}]}
//	{"alice": "hunter2"} or {"alice": {"password": "hunter2"}}
//
// Lists keep their order. Maps are sorted by username.
func Parse(data []byte) ([]models.Credential, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty input", models.ErrNoCredentials)
	}

	if data[0] == '[' {
		return parseList(data)
	}

	var doc document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	if c := bytes.TrimSpace(doc.Credentials); len(c) > 0 && c[0] == '[' {
		return parseList(c)
	}

	return parseMap(data)
}

// LoadFromFile reads and parses a credentials file.
func LoadFromFile(path string) ([]models.Credential, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, &models.IOError{Op: "read", Path: path, Err: err}
	}
	return Parse(b)
}

func parseList(data []byte) ([]models.Credential, error) {
	var entries []entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	out := make([]models.Credential, 0, len(entries))
	for _, e := range entries {
		out = append(out, models.Credential{Username: e.Username, Password: e.Password})
	}
	return out, nil
}

func parseMap(data []byte) ([]models.Credential, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}

	users := make([]string, 0, len(raw))
	for u := range raw {
		users = append(users, u)
	}
	sort.Strings(users)

	out := make([]models.Credential, 0, len(users))
	for _, u := range users {
		// flat format
		var pw string
		if err := json.Unmarshal(raw[u], &pw); err == nil {
			out = append(out, models.Credential{Username: u, Password: pw})
			continue
		}
		// nested format
		var nested struct {
			Password *string `json:"password"`
		}
		if err := json.Unmarshal(raw[u], &nested); err != nil || nested.Password == nil {
			return nil, fmt.Errorf("%w: value for %q", ErrUnknownLayout, u)
		}
		out = append(out, models.Credential{Username: u, Password: *nested.Password})
	}
	return out, nil
}
