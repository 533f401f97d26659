package bootstrap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

func TestBaselineCollections(t *testing.T) {
	specs := baselineCollections()

	names := make([]string, 0, len(specs))
	for _, spec := range specs {
		names = append(names, spec.name)
	}
	assert.Equal(t, []string{"workspaces", "members", "activity"}, names)
}

func TestWorkspaceSlugIndexIsUnique(t *testing.T) {
	specs := baselineCollections()

	require.Len(t, specs[0].indexes, 1)
	index := specs[0].indexes[0]

	keys, ok := index.Keys.(bson.D)
	require.True(t, ok)
	require.Len(t, keys, 1)
	assert.Equal(t, "slug", keys[0].Key)

	require.NotNil(t, index.Options)
	require.NotNil(t, index.Options.Unique)
	assert.True(t, *index.Options.Unique)
}

func TestActivityIndexExpires(t *testing.T) {
	specs := baselineCollections()

	require.Len(t, specs[2].indexes, 1)
	index := specs[2].indexes[0]

	require.NotNil(t, index.Options)
	require.NotNil(t, index.Options.ExpireAfterSeconds)
	assert.Equal(t, int32((90 * 24 * time.Hour).Seconds()), *index.Options.ExpireAfterSeconds)
}

func TestNewMongoInitializerDefaultsTimeout(t *testing.T) {
	init := NewMongoInitializer(0)
	assert.Equal(t, 30*time.Second, init.connectTimeout)
}
