package signals

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"gopkg.in/yaml.v3"
)

// SchemaName is the file name the config schema is written under.
const SchemaName = "signals-config.json"

// SchemaJSON returns the JSON schema of Config, keyed by the YAML field names.
func SchemaJSON() (string, error) {
	//nolint:exhaustruct // remaining reflector options keep their defaults
	reflector := jsonschema.Reflector{
		FieldNameTag:   "yaml",
		DoNotReference: true,
	}
	schema := reflector.Reflect(&Config{})

	schemaBytes, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		return "", err
	}

	return string(schemaBytes), nil
}

// SampleConfig returns the default config as YAML, headed by a yaml-language-server
// comment pointing editors at schemaName.
func SampleConfig(schemaName string) ([]byte, error) {
	yamlBytes, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal sample config: %w", err)
	}

	return append([]byte("# yaml-language-server: $schema="+schemaName+"\n"), yamlBytes...), nil
}

// LoadConfig reads a YAML config file. Fields the file leaves out keep their defaults.
func LoadConfig(path string) (Config, error) {
	config := DefaultConfig()

	content, err := os.ReadFile(path)
	if err != nil {
		return config, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(content, &config); err != nil {
		return config, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}
