// Package catalog holds the fixed business lists used to clean provider
// registries and to steer service matching. Every list has a built-in
// default and may be overridden from a YAML rules file.
package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/pkg/utils"
)

// Catalog is the set of cleaning and matching rules.
type Catalog struct {
	// BlacklistedProviders never reach a recommendation.
	BlacklistedProviders []string `yaml:"blacklisted_providers"`
	// ExcludedRoutingCode marks registry rows not meant for public
	// recommendation.
	ExcludedRoutingCode int `yaml:"excluded_routing_code"`
	// AllowedServices is checked against the normalized billing description
	// before renaming.
	AllowedServices []string `yaml:"allowed_services"`
	// ServiceRenames maps allow-listed names to their display form.
	ServiceRenames map[string]string `yaml:"service_renames"`
	// GenericServiceSuffixes are tried in order by the catch-all fallback.
	GenericServiceSuffixes []string `yaml:"generic_service_suffixes"`
	// SpecialCategories are matched on the category before the specialty.
	SpecialCategories []string `yaml:"special_categories"`
	// UrgencyBands maps a triage label to the service prefixes it admits.
	UrgencyBands map[string][]string `yaml:"urgency_bands"`

	blacklist map[string]struct{}
	allowed   map[string]struct{}
	special   map[string]struct{}
	bands     map[entities.TriageLevel][]string
}

// Default returns the built-in rules.
func Default() *Catalog {
	c := &Catalog{
		BlacklistedProviders: []string{
			"ORDEN DE COMPRA PUNTUAL",
			"IPS DE ATENCION INICIALPOR CONFIRMAR",
		},
		ExcludedRoutingCode: 9,
		AllowedServices: []string{
			"urgencias_medico_general",
			"consulta_no_programada",
			"urgencias_riesgo_biologico",
			"consulta_ortopedista",
			"urgencias_ortopedista",
			"consulta_medicina_fisica_y_de_deporte_l",
			"consulta_odontologica",
			"consulta_prioritaria_odontologia_l",
			"urgencias_odontologia_l",
			"consulta_prioritaria_de_oftalmologia_l",
			"consulta_oftalmologia",
			"cirugia_oftalmologia",
			"urgencias_oftalmologia",
			"consulta_medicina_interna",
			"consulta_medicin_interna_telemedicina_l",
			"consulta_urologia",
			"cirugia_urologia",
			"consulta_otorrinolaringologia",
			"cirugia_otorrinolaringologia",
			"consulta_dermatologia_telemedicina_l",
			"consulta_y_procedimientos_dermatologia",
			"urgencia_cirugia_plastica",
			"consulta_psicologo_y_terapia_psicologica",
			"consulta_neurologo",
			"consulta_cirujano_general",
		},
		ServiceRenames: map[string]string{
			"consulta_medicina_fisica_y_de_deporte_l": "consulta_deportologia",
			"consulta_prioritaria_odontologia_l":      "consulta_prioritaria_odontologia",
			"urgencias_odontologia_l":                 "urgencias_odontologia",
			"consulta_prioritaria_de_oftalmologia_l":  "consulta_prioritaria_oftalmologia",
			"consulta_medicin_interna_telemedicina_l": "consulta_medicina_interna_telemedicina",
			"consulta_dermatologia_telemedicina_l":    "consulta_dermatologia_telemedicina",
			"consulta_no_programada":                  "consulta_medicina_general",
			"consulta_cirujano_general":               "consulta_cirugia_general",
		},
		GenericServiceSuffixes: []string{"_general", "_no_programada"},
		SpecialCategories: []string{
			"salud_mental",
			"oftalmologia",
			"riesgo_biologico",
			"neurologico_o_cabeza",
		},
		UrgencyBands: map[string][]string{
			"T1": {"urgencias_", "urgencia_", "cirugia_"},
			"T2": {"urgencias_", "urgencia_"},
			"T3": {"urgencias_", "urgencia_"},
			"T4": {"consulta_"},
			"T5": {"consulta_"},
		},
	}
	c.index()
	return c
}

// Load returns the default rules with any lists present in the YAML file at
// path replacing their defaults. An empty path yields Default().
func Load(path string) (*Catalog, error) {
	c := Default()
	if path == "" {
		return c, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules file: %w", err)
	}

	var override Catalog
	if err := yaml.Unmarshal(data, &override); err != nil {
		return nil, fmt.Errorf("failed to parse rules file: %w", err)
	}

	if override.BlacklistedProviders != nil {
		c.BlacklistedProviders = override.BlacklistedProviders
	}
	if override.ExcludedRoutingCode != 0 {
		c.ExcludedRoutingCode = override.ExcludedRoutingCode
	}
	if override.AllowedServices != nil {
		c.AllowedServices = override.AllowedServices
	}
	if override.ServiceRenames != nil {
		c.ServiceRenames = override.ServiceRenames
	}
	if override.GenericServiceSuffixes != nil {
		c.GenericServiceSuffixes = override.GenericServiceSuffixes
	}
	if override.SpecialCategories != nil {
		c.SpecialCategories = override.SpecialCategories
	}
	if override.UrgencyBands != nil {
		c.UrgencyBands = override.UrgencyBands
	}

	if err := c.validate(); err != nil {
		return nil, err
	}
	c.index()
	return c, nil
}

func (c *Catalog) validate() error {
	for label := range c.UrgencyBands {
		if _, err := entities.ParseTriageLevel(label); err != nil {
			return fmt.Errorf("urgency_bands: %w", err)
		}
	}
	for from, to := range c.ServiceRenames {
		if utils.NormalizeIdentifier(to) != to {
			return fmt.Errorf("service_renames: %q renames to non-normalized %q", from, to)
		}
	}
	return nil
}

func (c *Catalog) index() {
	c.blacklist = make(map[string]struct{}, len(c.BlacklistedProviders))
	for _, name := range c.BlacklistedProviders {
		c.blacklist[utils.NormalizeIdentifier(name)] = struct{}{}
	}

	c.allowed = make(map[string]struct{}, len(c.AllowedServices))
	for _, s := range c.AllowedServices {
		c.allowed[utils.NormalizeIdentifier(s)] = struct{}{}
	}

	c.special = make(map[string]struct{}, len(c.SpecialCategories))
	for _, s := range c.SpecialCategories {
		c.special[utils.NormalizeIdentifier(s)] = struct{}{}
	}

	c.bands = make(map[entities.TriageLevel][]string, len(c.UrgencyBands))
	for label, prefixes := range c.UrgencyBands {
		level, err := entities.ParseTriageLevel(label)
		if err != nil {
			continue
		}
		c.bands[level] = prefixes
	}
}

// IsBlacklisted reports whether a provider name is excluded. Names are
// compared after normalization.
func (c *Catalog) IsBlacklisted(providerName string) bool {
	_, ok := c.blacklist[utils.NormalizeIdentifier(providerName)]
	return ok
}

// IsAllowedService reports whether a normalized service passes the allow-list.
func (c *Catalog) IsAllowedService(service string) bool {
	_, ok := c.allowed[service]
	return ok
}

// Rename returns the display name for an allow-listed service.
func (c *Catalog) Rename(service string) string {
	if renamed, ok := c.ServiceRenames[service]; ok {
		return renamed
	}
	return service
}

// IsSpecialCategory reports whether cases of a category match on the
// category first.
func (c *Catalog) IsSpecialCategory(category string) bool {
	_, ok := c.special[category]
	return ok
}

// BandPrefixes returns the service prefixes admitted for an urgency level,
// or nil when the level has no band.
func (c *Catalog) BandPrefixes(level entities.TriageLevel) []string {
	return c.bands[level]
}

// BandPrefix returns the band prefix service starts with, if any.
func (c *Catalog) BandPrefix(level entities.TriageLevel, service string) (string, bool) {
	for _, p := range c.bands[level] {
		if strings.HasPrefix(service, p) {
			return p, true
		}
	}
	return "", false
}
