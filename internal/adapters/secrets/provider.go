// Package secrets resolves relational store credentials either from static
// configuration or from a mounted JSON secret document.
package secrets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"onboardhub/internal/ports"
)

// Static returns the credentials it was built with.
type Static ports.Credentials

func (s Static) DatabaseCredentials(context.Context) (ports.Credentials, error) {
	c := ports.Credentials(s)
	if c.Host == "" || c.Name == "" {
		return c, errors.New("database host and name are required")
	}
	return c, nil
}

// File reads a secret document shaped like
// {"host": ..., "port": ..., "dbname": ..., "username": ..., "password": ...}.
// The first successful read is cached for the life of the process.
type File struct {
	Path string

	mu     sync.Mutex
	cached *ports.Credentials
}

// secretDoc tolerates port encoded as either a number or a string.
type secretDoc struct {
	Host     string      `json:"host"`
	Port     json.Number `json:"port"`
	Name     string      `json:"dbname"`
	User     string      `json:"username"`
	Password string      `json:"password"`
}

func (f *File) DatabaseCredentials(ctx context.Context) (ports.Credentials, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.cached != nil {
		return *f.cached, nil
	}
	if err := ctx.Err(); err != nil {
		return ports.Credentials{}, err
	}
	raw, err := os.ReadFile(f.Path)
	if err != nil {
		return ports.Credentials{}, fmt.Errorf("read secret: %w", err)
	}
	creds, err := Parse(raw)
	if err != nil {
		return ports.Credentials{}, fmt.Errorf("secret %s: %w", f.Path, err)
	}
	f.cached = &creds
	return creds, nil
}

// Parse decodes a secret document.
func Parse(raw []byte) (ports.Credentials, error) {
	var doc secretDoc
	if err := json.Unmarshal(raw, &doc); err != nil {
		return ports.Credentials{}, err
	}
	c := ports.Credentials{
		Host:     strings.TrimSpace(doc.Host),
		Name:     doc.Name,
		User:     doc.User,
		Password: doc.Password,
	}
	if doc.Port != "" {
		port, err := strconv.Atoi(doc.Port.String())
		if err != nil || port <= 0 || port > 65535 {
			return ports.Credentials{}, fmt.Errorf("invalid port %q", doc.Port)
		}
		c.Port = port
	}
	if c.Host == "" || c.Name == "" {
		return ports.Credentials{}, errors.New("host and dbname are required")
	}
	return c, nil
}
