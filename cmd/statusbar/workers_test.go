package main

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/axondata/go-statusbar"
	"github.com/axondata/go-statusbar/internal/config"
	"github.com/axondata/go-statusbar/internal/logging"
)

const workersConfig = `
order += "load"
order += "clock UTC"
order += "text motd"
order += "weather paris"
clock "UTC" {
    format = "%Y"
}
text "motd" {
    full_text = "hello"
    color = "#00FF00"
}
`

func TestRegisterWorkers(t *testing.T) {
	cfg, err := statusbar.ParseConfigReader("test.conf", strings.NewReader(workersConfig))
	require.NoError(t, err)

	registry := statusbar.NewRegistry()
	workers, err := registerWorkers(cfg, registry, config.Default(), logging.NopLogger())
	require.NoError(t, err)
	require.Len(t, workers, 2)
	assert.Equal(t, 2, registry.Len())

	_, ok := registry.Lookup("weather paris")
	assert.False(t, ok)

	for _, w := range workers {
		w.RunDue(context.Background())
	}

	clock, ok := registry.Lookup("clock UTC")
	require.True(t, ok)
	out := clock.Methods()[0].LastOutput
	assert.Len(t, out.FullText(), 4)
	assert.Equal(t, "clock", out.Name())
	assert.Equal(t, "UTC", out.Instance())

	text, ok := registry.Lookup("text motd")
	require.True(t, ok)
	out = text.Methods()[0].LastOutput
	assert.Equal(t, "hello", out.FullText())
	assert.Equal(t, "#00FF00", out[statusbar.KeyColor])
}

func TestRegisterWorkersErrors(t *testing.T) {
	tests := map[string]string{
		"unknown zone": `order += "clock Nowhere/Atlantis"`,
		"missing text": "order += \"text motd\"\ntext \"motd\" {\n    color = \"#FFFFFF\"\n}\n",
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			cfg, err := statusbar.ParseConfigReader("test.conf", strings.NewReader(text))
			require.NoError(t, err)

			_, err = registerWorkers(cfg, statusbar.NewRegistry(), config.Default(), logging.NopLogger())
			assert.Error(t, err)
		})
	}
}

func TestInstanceOf(t *testing.T) {
	assert.Equal(t, "clock", kindOf("clock Europe/Paris"))
	assert.Equal(t, "Europe/Paris", instanceOf("clock Europe/Paris"))
	assert.Equal(t, "", instanceOf("clock"))
}
