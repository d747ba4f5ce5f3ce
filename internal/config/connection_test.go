package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// envOf returns a lookup function backed by vars.
func envOf(vars map[string]string) func(string) (string, bool) {
	return func(name string) (string, bool) {
		v, ok := vars[name]
		return v, ok
	}
}

func completeEnv() map[string]string {
	return map[string]string{
		EnvEndpoint:     "https://cloud.example.com/v1",
		EnvProjectID:    "proj",
		EnvAPIKey:       "secret",
		EnvBucketID:     "media",
		EnvDatabaseID:   "tiktok",
		EnvDatabaseName: "TikTok",
	}
}

func TestLoadConnection(t *testing.T) {
	c, err := LoadConnection(envOf(completeEnv()))
	require.NoError(t, err)

	assert.Equal(t, ConnectionConfig{
		Endpoint:     "https://cloud.example.com/v1",
		ProjectID:    "proj",
		APIKey:       "secret",
		BucketID:     "media",
		DatabaseID:   "tiktok",
		DatabaseName: "TikTok",
	}, c)
	assert.NotContains(t, c.String(), "secret")
}

func TestLoadConnection_EachMissingVariable(t *testing.T) {
	names := []string{EnvEndpoint, EnvProjectID, EnvAPIKey, EnvBucketID, EnvDatabaseID, EnvDatabaseName}

	for _, name := range names {
		t.Run("unset "+name, func(t *testing.T) {
			env := completeEnv()
			delete(env, name)

			_, err := LoadConnection(envOf(env))

			var missing *MissingConfigError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, []string{name}, missing.Names)
			assert.Contains(t, err.Error(), name)
		})

		t.Run("empty "+name, func(t *testing.T) {
			env := completeEnv()
			env[name] = "  "

			_, err := LoadConnection(envOf(env))

			var missing *MissingConfigError
			require.ErrorAs(t, err, &missing)
			assert.Equal(t, []string{name}, missing.Names)
		})
	}
}

func TestLoadConnection_ListsEveryMissingName(t *testing.T) {
	_, err := LoadConnection(envOf(map[string]string{EnvAPIKey: "k", EnvDatabaseID: "db"}))

	var missing *MissingConfigError
	require.ErrorAs(t, err, &missing)
	assert.Equal(t, []string{EnvEndpoint, EnvProjectID, EnvBucketID, EnvDatabaseName}, missing.Names)
	assert.Equal(t,
		"missing required environment variables: APPWRITE_ENDPOINT, APPWRITE_PROJECT_ID, APPWRITE_BUCKET_ID, DATABASE_NAME",
		err.Error())
}
