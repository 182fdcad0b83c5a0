package memory_test

import (
	"testing"

	"github.com/sentinelhq/gatekeep/internal/auth/registry"
	"github.com/sentinelhq/gatekeep/internal/auth/registry/drivers/memory"
	"github.com/sentinelhq/gatekeep/internal/auth/registry/registrytest"
)

func TestMemoryRegistryConformance(t *testing.T) {
	registrytest.Run(t, func(t *testing.T) registry.Registry {
		return memory.New()
	})
}
