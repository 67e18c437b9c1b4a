package cmd

import (
	"os"

	"github.com/yuki-yano/vde-layout/internal/config"
	"github.com/yuki-yano/vde-layout/internal/emit"
	"github.com/yuki-yano/vde-layout/internal/plan"
	"github.com/yuki-yano/vde-layout/internal/preset"
)

// loadStore discovers presets relative to the working directory.
func loadStore() (*config.Store, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	return config.Discover(cwd)
}

// buildEmission runs the compile → plan → emit pipeline for one preset value.
func buildEmission(value any, source string) (*preset.CompiledPreset, *emit.PlanEmission, error) {
	compiled, err := preset.CompileValue(value, source)
	if err != nil {
		return nil, nil, err
	}
	p, err := plan.Build(compiled)
	if err != nil {
		return nil, nil, err
	}
	em, err := emit.Emit(p)
	if err != nil {
		return nil, nil, err
	}
	return compiled, em, nil
}
