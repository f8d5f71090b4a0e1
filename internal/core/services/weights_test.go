package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/ccdarank/internal/core/domain"
)

func notesSection(words int) domain.SectionObservation {
	return domain.SectionObservation{
		Key:         domain.TemplateNotes,
		TemplateIDs: []string{domain.TemplateNotes},
		Codes: []domain.CodeRef{
			{Code: domain.LOINCProgressNote, CodeSystem: domain.CodeSystemLOINC},
			{Code: domain.LOINCNurseNote, CodeSystem: domain.CodeSystemLOINC},
		},
		Titles:             []string{"Notes"},
		NarrativeWordCount: words,
	}
}

func buildWeightsCatalog() *domain.SectionCatalog {
	c := domain.NewSectionCatalog()
	x := section("X", 2, 4, 100)
	x.Titles = []string{"", " Custom Section "}
	c.Observe("1.xml", []domain.SectionObservation{x, notesSection(50), section("Y", 100, 0, 0)})
	c.Observe("2.xml", []domain.SectionObservation{x, notesSection(50)})
	c.Observe("3.xml", []domain.SectionObservation{x, notesSection(50)})
	c.Observe("4.xml", []domain.SectionObservation{x})
	c.Finalize()
	return c
}

func TestDeriveWeights(t *testing.T) {
	cfg, err := DeriveWeights(buildWeightsCatalog())
	require.NoError(t, err)

	assert.Equal(t, domain.WeightConfigVersion, cfg.Version)
	assert.Equal(t, weightsDescription, cfg.Description)
	assert.Equal(t, []string{
		"X",
		domain.TemplateNotes,
		domain.TemplateNotes + "." + domain.LOINCProgressNote,
		domain.TemplateNotes + "." + domain.LOINCNurseNote,
		"Y",
	}, cfg.Keys())

	tests := []struct {
		key     string
		title   string
		weight  float64
		comment string
	}{
		{"X", "Custom Section", 0.8, "Core section (present in 95%+ of files)"},
		{domain.TemplateNotes, "Notes", 0.85, "Common section (present in 75%+ of files)"},
		{domain.TemplateNotes + "." + domain.LOINCProgressNote, "Progress Note", 0.85, "Common section (present in 75%+ of files)"},
		{domain.TemplateNotes + "." + domain.LOINCNurseNote, "Nurse Note", 0.45, "Common section (present in 75%+ of files)"},
		{"Y", "Unknown Section", 0.6, "Present in 25.0% of files. High content density"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			s, ok := cfg.Section(tt.key)
			require.True(t, ok)
			assert.Equal(t, tt.title, s.Title)
			assert.InDelta(t, tt.weight, s.Weight, 1e-9)
			assert.Equal(t, tt.comment, s.Comment)
		})
	}

	sub, _ := cfg.Section(domain.TemplateNotes + "." + domain.LOINCNurseNote)
	assert.Equal(t, domain.TemplateNotes, sub.ParentSection)
	assert.Equal(t, domain.LOINCNurseNote, sub.LOINCCode)
	assert.Equal(t, []domain.CodeRef{{Code: domain.LOINCNurseNote, CodeSystem: domain.CodeSystemLOINC}}, sub.Codes)
	assert.True(t, sub.Derived())
}

func TestDeriveWeights_NotFinalized(t *testing.T) {
	c := domain.NewSectionCatalog()
	c.Observe("a.xml", []domain.SectionObservation{section("X", 1, 1, 1)})

	_, err := DeriveWeights(c)
	assert.ErrorIs(t, err, domain.ErrCatalogNotFinalized)
}

func TestDeriveWeights_Deterministic(t *testing.T) {
	a, err := DeriveWeights(buildWeightsCatalog())
	require.NoError(t, err)
	b, err := DeriveWeights(buildWeightsCatalog())
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestCalculateWeight(t *testing.T) {
	tests := []struct {
		name      string
		frequency float64
		metrics   domain.SectionMetrics
		bonus     float64
		want      float64
	}{
		{name: "rare empty", frequency: 0.1, want: 0.3},
		{name: "common", frequency: 0.75, want: 0.4},
		{name: "core", frequency: 0.95, want: 0.5},
		{name: "content capped", frequency: 0.5, metrics: domain.SectionMetrics{AvgEntries: 50}, want: 0.6},
		{name: "narrative", frequency: 0.5, metrics: domain.SectionMetrics{AvgNarrativeWords: 123}, want: 0.42},
		{name: "weight capped", frequency: 1, metrics: domain.SectionMetrics{AvgEntries: 10}, bonus: 0.4, want: 1.0},
		{name: "rounding", frequency: 0.5, metrics: domain.SectionMetrics{AvgCodedElements: 0.4}, want: 0.32},
		{name: "raw 0.305 rounds down", frequency: 0.5, metrics: domain.SectionMetrics{AvgNarrativeWords: 5}, want: 0.3},
		{name: "raw 0.335 rounds down", frequency: 0.5, metrics: domain.SectionMetrics{AvgNarrativeWords: 35}, want: 0.33},
		{name: "raw 0.345 rounds down", frequency: 0.5, metrics: domain.SectionMetrics{AvgNarrativeWords: 45}, want: 0.34},
		{
			name:      "saturates with dense content",
			frequency: 1.0,
			metrics:   domain.SectionMetrics{AvgEntries: 1000},
			bonus:     domain.ImportanceNote,
			want:      1.0,
		},
		{
			name:      "worked example",
			frequency: 0.96,
			metrics:   domain.SectionMetrics{AvgEntries: 2, AvgCodedElements: 3, AvgNarrativeWords: 50},
			bonus:     domain.ImportanceCore,
			want:      1.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, CalculateWeight(tt.frequency, tt.metrics, tt.bonus), 1e-9)
		})
	}
}

func TestSectionComment(t *testing.T) {
	assert.Equal(t, "Present in 12.5% of files. Moderate content density. Rich narrative content",
		SectionComment(0.125, domain.SectionMetrics{AvgEntries: 6, AvgNarrativeWords: 1500}))
	assert.Equal(t, "Core section (present in 95%+ of files). High content density. Moderate narrative content",
		SectionComment(0.99, domain.SectionMetrics{AvgCodedElements: 101, AvgNarrativeWords: 101}))
}

func TestWeightService(t *testing.T) {
	store := &mockArtifacts{catalog: buildWeightsCatalog()}
	svc := NewWeightService(store, store)

	cfg, err := svc.GenerateWeights(context.Background())
	require.NoError(t, err)
	assert.Same(t, cfg, store.weights)

	got, err := svc.Weights(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5, got.Len())

	s, err := svc.Section(context.Background(), "X")
	require.NoError(t, err)
	assert.InDelta(t, 0.8, s.Weight, 1e-9)

	_, err = svc.Section(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestWeightService_Errors(t *testing.T) {
	t.Run("no catalog", func(t *testing.T) {
		store := &mockArtifacts{}
		_, err := NewWeightService(store, store).GenerateWeights(context.Background())
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("save error", func(t *testing.T) {
		store := &mockArtifacts{catalog: buildWeightsCatalog(), saveErr: errors.New("read-only")}
		_, err := NewWeightService(store, store).GenerateWeights(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "save weights")
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := NewWeightService(nil, nil).GenerateWeights(context.Background())
		assert.Error(t, err)
	})
}
