package claims

import (
	"fmt"
	"os"

	"oidcop/internal/oidc/models"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config is the YAML claims configuration.
//
//	user_id_attribute: uid
//	translations:
//	  employee_number: {attributes: [employeeNumber], type: int}
//	scopes:
//	  - identifier: hr
//	    description: HR attributes
//	    claims: [employee_number]
//	allowed_multi_valued: [groups]
type Config struct {
	UserIDAttribute    string                 `yaml:"user_id_attribute"`
	Translations       map[string]Translation `yaml:"translations"`
	Scopes             []models.Scope         `yaml:"scopes"`
	AllowedMultiValued []string               `yaml:"allowed_multi_valued"`
}

// LoadConfig reads and validates a claims configuration file.
func LoadConfig(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read claims config: %w", err)
	}
	return ParseConfig(raw)
}

func ParseConfig(raw []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("parse claims config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate reports every problem in the configuration at once.
func (c *Config) Validate() error {
	var result *multierror.Error
	for claim, tr := range c.Translations {
		if err := validateTranslation(claim, tr); err != nil {
			result = multierror.Append(result, err)
		}
	}
	seen := make(map[string]bool, len(c.Scopes))
	for i, s := range c.Scopes {
		switch {
		case s.Identifier == "":
			result = multierror.Append(result, fmt.Errorf("scopes[%d]: identifier is required", i))
		case models.IsProtectedScope(s.Identifier):
			result = multierror.Append(result, fmt.Errorf("scopes[%d]: protected scope %q cannot be redefined", i, s.Identifier))
		case seen[s.Identifier]:
			result = multierror.Append(result, fmt.Errorf("scopes[%d]: duplicate scope %q", i, s.Identifier))
		}
		seen[s.Identifier] = true
	}
	return result.ErrorOrNil()
}

// ClaimSets returns the claim sets declared by the custom scopes.
func (c *Config) ClaimSets() []models.ClaimSet {
	sets := make([]models.ClaimSet, 0, len(c.Scopes))
	for _, s := range c.Scopes {
		sets = append(sets, models.ClaimSet{Scope: s.Identifier, Claims: s.Claims})
	}
	return sets
}

// NewFromConfig builds an extractor from cfg. A nil cfg yields the defaults.
func NewFromConfig(cfg *Config) (*TranslatorExtractor, error) {
	if cfg == nil {
		return New("")
	}
	return New(cfg.UserIDAttribute,
		WithTranslations(cfg.Translations),
		WithClaimSets(cfg.ClaimSets()...),
		WithAllowedMultiValued(cfg.AllowedMultiValued...),
	)
}
