package search

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchQuery_ScopesToOwner(t *testing.T) {
	b, err := json.Marshal(searchQuery("owner-1", "milk", 5))
	require.NoError(t, err)

	s := string(b)
	assert.Contains(t, s, `"size":5`)
	assert.Contains(t, s, `{"term":{"owner.keyword":"owner-1"}}`)
	assert.Contains(t, s, `"query":"milk"`)
}

func TestDecodeHitIDs(t *testing.T) {
	body := `{"took":1,"hits":{"total":{"value":2},"hits":[{"_id":"a","_score":2.1},{"_id":"b","_score":1.3}]}}`
	ids, err := decodeHitIDs(strings.NewReader(body))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)

	_, err = decodeHitIDs(strings.NewReader("{"))
	assert.Error(t, err)
}
