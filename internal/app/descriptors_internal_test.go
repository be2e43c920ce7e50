package app

import (
	"testing"

	"github.com/clinova/beacon/internal/cachekey"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Every operation here hits a clinic-scoped upstream route, so each
// descriptor's path must match the production path allow-list.
func TestDescriptorsAreTenantScopedByPath(t *testing.T) {
	t.Parallel()

	scopes, err := cachekey.NewScopeList(nil, []string{`^/v1/clinics/`})
	require.NoError(t, err)

	for _, descriptor := range []cachekey.Descriptor{
		settingsDescriptor,
		appointmentsDescriptor,
		patientDescriptor,
	} {
		assert.True(t, scopes.IsTenantScoped(descriptor), "descriptor %q path %q", descriptor.Name, descriptor.Path)
	}
}
