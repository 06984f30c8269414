package entities

import "math"

// UnknownPriority is assigned to providers whose routing code could not be
// read. It sorts after every known code.
const UnknownPriority = math.MaxInt32

// RawProviderRecord is one registry row keyed by column header, as yielded by
// a ProviderSource.
type RawProviderRecord map[string]string

// Location represents geographical coordinates
type Location struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

// Valid reports whether the coordinates are usable for distance ranking:
// non-zero and within the WGS84 range.
func (l Location) Valid() bool {
	if l.Latitude == 0 || l.Longitude == 0 {
		return false
	}
	if math.IsNaN(l.Latitude) || math.IsNaN(l.Longitude) {
		return false
	}
	return math.Abs(l.Latitude) <= 90 && math.Abs(l.Longitude) <= 180
}

// Provider is a cleaned provider registry row offering one service.
type Provider struct {
	Name          string   `json:"prestador"`
	Branch        string   `json:"sucursal"`
	Department    string   `json:"departamento"`
	Municipality  string   `json:"municipio"`
	Address       string   `json:"direccion"`
	Location      Location `json:"location"`
	Service       string   `json:"servicio_prestador"`
	Priority      int      `json:"prioridad_recomendacion"`
	BusinessHours string   `json:"horario,omitempty"`
	Phone         string   `json:"telefono_fijo,omitempty"`
	Mobile        string   `json:"telefono_celular,omitempty"`
	// LocationUnknown marks a provider kept without usable coordinates; it is
	// never ranked by distance.
	LocationUnknown bool              `json:"location_unknown,omitempty"`
	Raw             RawProviderRecord `json:"-"`
}

// HasLocation reports whether the provider can take part in distance ranking.
func (p Provider) HasLocation() bool {
	return !p.LocationUnknown && p.Location.Valid()
}
