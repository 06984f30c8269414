package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/jhonattanreales21/rutasalud/internal/domain/catalog"
	"github.com/jhonattanreales21/rutasalud/internal/domain/entities"
	"github.com/jhonattanreales21/rutasalud/internal/domain/providers"
)

// fakeEmbedder returns fixed vectors; unknown texts embed to the zero vector.
type fakeEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (f *fakeEmbedder) EmbedText(_ context.Context, text string) ([]float32, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if v, ok := f.vectors[text]; ok {
		return v, nil
	}
	return []float32{0, 0, 0}, nil
}

func (f *fakeEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) ModelID() string { return "fake" }
func (f *fakeEmbedder) Close() error    { return nil }

// countingMatcher wraps a matcher and counts Match calls.
type countingMatcher struct {
	SimilarityMatcher
	mu    sync.Mutex
	calls int
}

func (c *countingMatcher) Match(ctx context.Context, query string, vocabulary []string, threshold float64, topK int) ([]entities.ServiceCandidate, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.SimilarityMatcher.Match(ctx, query, vocabulary, threshold, topK)
}

// MockFallbackResolver is a mock implementation of FallbackResolver
type MockFallbackResolver struct {
	mock.Mock
}

func (m *MockFallbackResolver) Resolve(ctx context.Context, matcher SimilarityMatcher, req FallbackRequest) (FallbackResult, error) {
	args := m.Called(ctx, matcher, req)
	return args.Get(0).(FallbackResult), args.Error(1)
}

// staticTriageSource serves fixed triage rows.
type staticTriageSource struct {
	records []entities.RawTriageRecord
	version string
	loads   int
}

func (s *staticTriageSource) LoadTriage(context.Context) ([]entities.RawTriageRecord, error) {
	s.loads++
	return s.records, nil
}

func (s *staticTriageSource) Version(context.Context) (string, error) {
	return s.version, nil
}

// staticProviderSource serves fixed provider rows.
type staticProviderSource struct {
	datasets *providers.ProviderDatasets
	version  string
	loads    int
}

func (s *staticProviderSource) LoadProviders(context.Context) (*providers.ProviderDatasets, error) {
	s.loads++
	return s.datasets, nil
}

func (s *staticProviderSource) Version(context.Context) (string, error) {
	return s.version, nil
}

// registryRow builds a raw registry row with spreadsheet-style headers.
func registryRow(name, dept, muni, lat, lng, service, routing string) entities.RawProviderRecord {
	return entities.RawProviderRecord{
		"Prestador":           name,
		"Sucursal Prestador":  name + " Sede Principal",
		"Departamento":        dept,
		"Municipio":           muni,
		"Direccion Domicilio": "Calle 1 # 2-3",
		"Valor Latitud":       lat,
		"Valor Longitud":      lng,
		"Concepto Factura":    service,
		"Direccionamiento":    routing,
		"Horario Habil":       "24 horas",
		"Telefono":            "6011234567",
		"Telefono Celular":    "3001234567",
	}
}

// memoryCache is an in-process CacheProvider.
type memoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: make(map[string][]byte)}
}

func (m *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, errCacheMiss
	}
	return v, nil
}

func (m *memoryCache) Set(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sets++
	m.data[key] = value
	return nil
}

func (m *memoryCache) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.data[key]
	return ok, nil
}

var errCacheMiss = errors.New("cache miss")

func fixtureTriage() *staticTriageSource {
	return &staticTriageSource{
		version: "triage-v1",
		records: []entities.RawTriageRecord{
			{Category: "Trauma", Symptom: "Fractura", Modifier: "Expuesta", Urgency: "T1", Specialty: "Ortopedia"},
			{Category: "Trauma", Symptom: "Fractura", Modifier: "Cerrada", Urgency: "T1", Specialty: "Ortopedia"},
			{Category: "General", Symptom: "Fiebre", Modifier: "Alta", Urgency: "T3", Specialty: "Medicina General"},
			{Category: "Piel", Symptom: "Erupción", Modifier: "Leve", Urgency: "T5", Specialty: "Dermatología"},
			{Category: "Oftalmología", Symptom: "Ojo rojo", Modifier: "Dolor", Urgency: "T4", Specialty: "Oftalmología"},
		},
	}
}

func fixtureProviders() *staticProviderSource {
	return &staticProviderSource{
		version: "providers-v1",
		datasets: &providers.ProviderDatasets{
			Registry: []entities.RawProviderRecord{
				registryRow("Clinica Norte", "Cundinamarca", "Bogota", "4.7110", "-74.0721", "Urgencias Ortopedista", "1"),
				registryRow("Clinica Norte", "Cundinamarca", "Bogota", "4.7110", "-74.0721", "Urgencias Medico General", "1"),
				registryRow("Hospital Central", "Cundinamarca", "Bogota", "4.6097", "-74.0817", "Urgencias Medico General", "2"),
				registryRow("Ojos Sanos", "Cundinamarca", "Bogota", "4.6486", "-74.0628", "Consulta Oftalmologia", "1"),
				registryRow("Dermacentro", "Antioquia", "Medellin", "6.2442", "-75.5812", "Consulta Dermatologia Telemedicina L", "3"),
				registryRow("Centro Sur", "Cundinamarca", "Bogota", "4.5700", "-74.1000", "Consulta No Programada", "2"),
			},
		},
	}
}

func newFixtureService(triage providers.TriageSource, provs providers.ProviderSource, loader EmbedderLoader, l2 providers.CacheProvider) *CorrespondenceService {
	c := catalog.Default()
	data := NewProviderDataService(provs, NewProviderPipeline(c), MergeByProviderService, nil)
	return NewCorrespondenceService(
		triage,
		data,
		NewCorrespondenceBuilder(c, NewUrgencyFallbackResolver(c)),
		NewMatcherSelector(loader, true, nil),
		NewCorrespondenceCache(),
		l2,
		time.Hour,
		nil,
	)
}
