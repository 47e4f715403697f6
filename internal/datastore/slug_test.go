package datastore_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nabos/fishclub/internal/datastore"
)

func TestSlugify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want string
	}{
		{"Tucunaré", "tucunare"},
		{"Robalo Flecha", "robalo-flecha"},
		{"  Pescada   Amarela  ", "pescada-amarela"},
		{"Peixe-Galo (grande)", "peixe-galo-grande"},
		{"Açu & Cia", "acu-cia"},
		{"???", ""},
		{"a!b", "ab"},
		{"Sete-Barbas/Cinza", "sete-barbascinza"},
		{"__Robalo__", "robalo"},
		{"Caranha  -  Vermelha", "caranha-vermelha"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, datastore.Slugify(tt.in))
		})
	}
}

func TestUniqueSlug(t *testing.T) {
	t.Parallel()

	taken := map[string]bool{"robalo": true, "robalo-1": true}
	exists := func(s string) (bool, error) { return taken[s], nil }

	slug, err := datastore.UniqueSlug("robalo", exists)
	require.NoError(t, err)
	assert.Equal(t, "robalo-2", slug)

	slug, err = datastore.UniqueSlug("tainha", exists)
	require.NoError(t, err)
	assert.Equal(t, "tainha", slug)

	_, err = datastore.UniqueSlug("", exists)
	require.ErrorIs(t, err, datastore.ErrInvalidInput)
}
