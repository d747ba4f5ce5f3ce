package config

import (
	"fmt"
	"strings"
)

// Names of the required connection variables, in declaration order.
const (
	EnvEndpoint     = "APPWRITE_ENDPOINT"
	EnvProjectID    = "APPWRITE_PROJECT_ID"
	EnvAPIKey       = "APPWRITE_API_KEY"
	EnvBucketID     = "APPWRITE_BUCKET_ID"
	EnvDatabaseID   = "DATABASE_ID"
	EnvDatabaseName = "DATABASE_NAME"
)

// ConnectionConfig identifies the remote service and the database to
// provision. It is read from the environment only; secrets never come from
// the YAML file.
type ConnectionConfig struct {
	Endpoint     string `yaml:"-"`
	ProjectID    string `yaml:"-"`
	APIKey       string `yaml:"-"`
	BucketID     string `yaml:"-"`
	DatabaseID   string `yaml:"-"`
	DatabaseName string `yaml:"-"`
}

// MissingConfigError lists every required variable that was unset or empty.
type MissingConfigError struct {
	Names []string
}

func (e *MissingConfigError) Error() string {
	return fmt.Sprintf("missing required environment variables: %s", strings.Join(e.Names, ", "))
}

// LoadConnection reads the six required variables through lookup. All of
// them are checked before returning so the error names every missing one.
func LoadConnection(lookup func(string) (string, bool)) (ConnectionConfig, error) {
	var c ConnectionConfig
	fields := []struct {
		name string
		dst  *string
	}{
		{EnvEndpoint, &c.Endpoint},
		{EnvProjectID, &c.ProjectID},
		{EnvAPIKey, &c.APIKey},
		{EnvBucketID, &c.BucketID},
		{EnvDatabaseID, &c.DatabaseID},
		{EnvDatabaseName, &c.DatabaseName},
	}

	var missing []string
	for _, f := range fields {
		v, ok := lookup(f.name)
		v = strings.TrimSpace(v)
		if !ok || v == "" {
			missing = append(missing, f.name)
			continue
		}
		*f.dst = v
	}
	if len(missing) > 0 {
		return ConnectionConfig{}, &MissingConfigError{Names: missing}
	}
	return c, nil
}

// String hides the API key.
func (c ConnectionConfig) String() string {
	key := ""
	if c.APIKey != "" {
		key = "***"
	}
	return fmt.Sprintf("endpoint=%s project=%s key=%s bucket=%s database=%s (%s)",
		c.Endpoint, c.ProjectID, key, c.BucketID, c.DatabaseID, c.DatabaseName)
}
