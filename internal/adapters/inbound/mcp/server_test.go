package mcp_test

import (
	"context"
	"testing"

	mcpadapter "github.com/abdidvp/patchgate/internal/adapters/inbound/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPatchgateMCPServer(t *testing.T) {
	s := mcpadapter.NewPatchgateMCPServer(".")
	require.NotNil(t, s)
}

func TestMCPServerHasTools(t *testing.T) {
	s := mcpadapter.NewPatchgateMCPServer(".")
	require.NotNil(t, s)

	tools := s.ListTools()
	require.NotNil(t, tools)

	expectedTools := []string{
		"patchgate_fix",
		"patchgate_validate_patch",
		"patchgate_list_modules",
	}

	for _, name := range expectedTools {
		_, exists := tools[name]
		assert.True(t, exists, "tool %q should be registered", name)
	}

	assert.Len(t, tools, len(expectedTools), "should have exactly %d tools", len(expectedTools))
}

func TestMCPServerHandlesInitialize(t *testing.T) {
	s := mcpadapter.NewPatchgateMCPServer(".")
	msg := []byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2024-11-05","capabilities":{},"clientInfo":{"name":"test","version":"1"}}}`)

	resp := s.HandleMessage(context.Background(), msg)
	require.NotNil(t, resp)
}
