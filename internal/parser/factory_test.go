package parser_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"invoiceflow/internal/config"
	"invoiceflow/internal/parser"
	"invoiceflow/internal/port"
	"invoiceflow/mocks"
)

func TestNewClient_UnknownProvider(t *testing.T) {
	_, err := parser.NewClient(&config.ParserProviderConfig{Provider: "nonexistent"})

	assert.EqualError(t, err, "unknown parser provider: nonexistent")
}

func TestNewClients_SingleProviderReturnedDirectly(t *testing.T) {
	m := new(mocks.MockCompletionClient)
	parser.RegisterProvider("test-single", func(cfg *config.ParserProviderConfig) (port.CompletionClient, error) {
		return m, nil
	})

	c, err := parser.NewClients([]*config.ParserProviderConfig{{Provider: "test-single"}})

	require.NoError(t, err)
	assert.Same(t, m, c)
}

func TestNewClients_SeveralProvidersFallBack(t *testing.T) {
	parser.RegisterProvider("test-a", func(cfg *config.ParserProviderConfig) (port.CompletionClient, error) {
		return new(mocks.MockCompletionClient), nil
	})
	parser.RegisterProvider("test-b", func(cfg *config.ParserProviderConfig) (port.CompletionClient, error) {
		return new(mocks.MockCompletionClient), nil
	})

	c, err := parser.NewClients([]*config.ParserProviderConfig{{Provider: "test-a"}, {Provider: "test-b"}})

	require.NoError(t, err)
	_, ok := c.(*parser.FallbackClient)
	assert.True(t, ok)
}

func TestNewClients_PropagatesFactoryError(t *testing.T) {
	_, err := parser.NewClients([]*config.ParserProviderConfig{{Provider: "missing"}})
	assert.ErrorContains(t, err, "creating missing client")

	_, err = parser.NewClients(nil)
	assert.Error(t, err)
}
