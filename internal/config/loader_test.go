// Copyright © 2026 Groups.io, Inc.
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "harness.hjson")
	require.NoError(t, os.WriteFile(path, []byte(contents), 0644))
	return path
}

func TestLoad_ParsesHJSON(t *testing.T) {
	path := writeConfig(t, `{
		// a comment, since this is hjson not json
		gateway: { port: 4455 }
		logging: { level: "debug" }
	}`)

	cfg, err := NewLoader().Load(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 4455, cfg.Gateway.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadWithDefaults_FillsZeroValues(t *testing.T) {
	path := writeConfig(t, `{}`)

	cfg, err := NewLoader().LoadWithDefaults(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Gateway.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 256*1024, cfg.Session.RingBufferBytes)
}

func TestLoad_MalformedFileErrors(t *testing.T) {
	path := writeConfig(t, `{ gateway: { port: `)

	_, err := NewLoader().Load(context.Background(), path)
	require.Error(t, err)
}

func TestDefault_NeverNeedsAFile(t *testing.T) {
	cfg := Default()
	assert.Equal(t, "127.0.0.1", cfg.Gateway.Host)
	assert.Equal(t, "127.0.0.1:9090", cfg.Metrics.Addr)
}
