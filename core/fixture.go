package core

import (
	"fmt"

	"github.com/huangsam/tribal/internal/contract"
	"github.com/huangsam/tribal/internal/fixture"
)

func openFixtureStore(cfg *contract.Config) (contract.FixtureStore, error) {
	store, err := fixture.NewStore(cfg.FixtureBackend, cfg.FixtureDBConnect)
	if err != nil {
		return nil, fmt.Errorf("failed to open fixture store: %w", err)
	}
	return store, nil
}

func closeFixtureStore(store contract.FixtureStore) {
	if err := store.Close(); err != nil {
		contract.LogWarn("Failed to close fixture store", err)
	}
}
