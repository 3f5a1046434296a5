package main

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/rshade/carbonledger/internal/cli"
	"github.com/rshade/carbonledger/internal/factors"
	"github.com/rshade/carbonledger/pkg/version"
)

func TestMainComponents(t *testing.T) {
	t.Run("version available", func(t *testing.T) {
		assert.NotEmpty(t, version.GetVersion())
	})

	t.Run("cli root command", func(t *testing.T) {
		root := cli.NewRootCmd(version.GetVersion())
		assert.NotNil(t, root)
		assert.Equal(t, "carbonledger", root.Use)
	})
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{name: "store unavailable", err: fmt.Errorf("finding factors: %w", factors.ErrStoreUnavailable), want: exitStoreUnavailable},
		{name: "no factor", err: fmt.Errorf("%w: division STATE/ZZ", factors.ErrNoFactorFound), want: exitNoFactor},
		{name: "joined", err: errors.Join(errors.New("outer"), factors.ErrNoFactorFound), want: exitNoFactor},
		{name: "generic", err: errors.New("boom"), want: exitError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}
