package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommands(t *testing.T) {
	want := []string{"serve", "insights", "fetch", "analyze", "draft", "report", "seed", "migrate", "configure"}
	var got []string
	for _, c := range rootCmd.Commands() {
		got = append(got, c.Name())
	}
	for _, name := range want {
		assert.Contains(t, got, name)
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printJSON(&buf, map[string]int{"totalCommits": 3}))
	assert.Equal(t, "{\n  \"totalCommits\": 3\n}\n", buf.String())
}
