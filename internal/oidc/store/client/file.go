package client

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"oidcop/internal/oidc/models"
	"oidcop/pkg/platform/secrets"
)

// Registration is one entry of the clients file. Secret is the plaintext
// client secret; it is hashed on load and never kept.
type Registration struct {
	ID           string   `yaml:"id"`
	Name         string   `yaml:"name"`
	Description  string   `yaml:"description"`
	Secret       string   `yaml:"secret"`
	RedirectURIs []string `yaml:"redirect_uris"`
	Scopes       []string `yaml:"scopes"`
	Disabled     bool     `yaml:"disabled"`
}

type fileFormat struct {
	Clients []Registration `yaml:"clients"`
}

// LoadFile reads client registrations from a YAML file. A client with a
// secret is confidential.
func LoadFile(path string, now time.Time) ([]*models.Client, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read clients file: %w", err)
	}
	return ParseRegistrations(raw, now)
}

func ParseRegistrations(raw []byte, now time.Time) ([]*models.Client, error) {
	var f fileFormat
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse clients file: %w", err)
	}

	var (
		result *multierror.Error
		out    = make([]*models.Client, 0, len(f.Clients))
		seen   = make(map[string]bool, len(f.Clients))
	)
	for i, r := range f.Clients {
		if seen[r.ID] {
			result = multierror.Append(result, fmt.Errorf("clients[%d]: duplicate id %q", i, r.ID))
			continue
		}
		seen[r.ID] = true

		var (
			hash string
			err  error
		)
		if r.Secret != "" {
			if hash, err = secrets.Hash(r.Secret); err != nil {
				result = multierror.Append(result, fmt.Errorf("clients[%d]: %w", i, err))
				continue
			}
		}
		c, err := models.NewClient(r.ID, r.Name, hash, r.RedirectURIs, r.Scopes, r.Secret != "", now)
		if err != nil {
			result = multierror.Append(result, fmt.Errorf("clients[%d]: %w", i, err))
			continue
		}
		c.Description = r.Description
		c.Enabled = !r.Disabled
		out = append(out, c)
	}
	if err := result.ErrorOrNil(); err != nil {
		return nil, err
	}
	return out, nil
}
