package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedKVMapKeepsInsertionOrder(t *testing.T) {
	om := OrderedKVMap[any]{}
	om.Put("zeta", 1)
	om.Put("alpha", "a")
	om.Put("mid", json.RawMessage(`{"x":[1,2]}`))

	b, err := json.Marshal(om)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":"a","mid":{"x":[1,2]}}`, string(b))
}

func TestOrderedKVMapPutExistingKeepsPosition(t *testing.T) {
	om := OrderedKVMap[int]{}
	om.Put("a", 1)
	om.Put("b", 2)
	om.Put("a", 3)

	assert.Equal(t, []string{"a", "b"}, om.Keys())
	assert.Equal(t, 3, om["a"].Value)
}

func TestOrderedKVMapEmpty(t *testing.T) {
	b, err := json.Marshal(OrderedKVMap[string]{})
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(b))
}
