package mapyrus

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML configuration file and flattens it to the
// dotted string keys served by the Mapyrus.config.* variables. Nested
// mappings become dotted paths; scalars keep their literal text.
func LoadConfig(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Err{reason: ErrResource,
			message: fmt.Sprintf("cannot open %s: %s", path, err)}
	}
	return ParseConfig(data, path)
}

// ParseConfig flattens YAML configuration data, with name used in
// error messages.
func ParseConfig(data []byte, name string) (map[string]string, error) {
	var root map[string]interface{}
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, Err{reason: ErrResource,
			message: fmt.Sprintf("%s: %s", name, err)}
	}

	config := make(map[string]string)
	flattenConfig("", root, config)
	return config, nil
}

func flattenConfig(prefix string, node map[string]interface{}, out map[string]string) {
	for key, value := range node {
		path := key
		if prefix != "" {
			path = prefix + "." + key
		}
		switch v := value.(type) {
		case map[string]interface{}:
			flattenConfig(path, v, out)
		case nil:
			out[path] = ""
		default:
			out[path] = fmt.Sprintf("%v", v)
		}
	}
}
