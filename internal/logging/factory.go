package logging

import (
	"fmt"

	"resume-render/internal/logging/adapters"
	"resume-render/internal/logging/types"
)

// AdapterFactory creates logging adapters based on configuration
type AdapterFactory struct {
	defaultFormat string
}

// NewAdapterFactory creates a factory; defaultFormat applies to stdout
// adapters that do not set their own
func NewAdapterFactory(defaultFormat string) *AdapterFactory {
	if defaultFormat == "" {
		defaultFormat = "json"
	}
	return &AdapterFactory{defaultFormat: defaultFormat}
}

// CreateAdapter creates a logging adapter based on the provided configuration
func (f *AdapterFactory) CreateAdapter(adapterConfig types.AdapterConfig) (types.LogAdapter, error) {
	switch adapterConfig.Type {
	case "stdout":
		return adapters.NewStdoutAdapter(adapterConfig.Name, adapters.StdoutConfig{
			Format: getStringOption(adapterConfig.Options, "format", f.defaultFormat),
		}), nil
	case "file":
		return adapters.NewFileAdapter(adapterConfig.Name, adapters.FileConfig{
			FilePath:    getStringOption(adapterConfig.Options, "file_path", ""),
			CreateDirs:  getBoolOption(adapterConfig.Options, "create_dirs", true),
			SyncOnWrite: getBoolOption(adapterConfig.Options, "sync_on_write", false),
		})
	default:
		return nil, fmt.Errorf("unsupported adapter type: %s", adapterConfig.Type)
	}
}

func getStringOption(options map[string]interface{}, key string, defaultValue string) string {
	if value, exists := options[key]; exists {
		if str, ok := value.(string); ok && str != "" {
			return str
		}
	}
	return defaultValue
}

func getBoolOption(options map[string]interface{}, key string, defaultValue bool) bool {
	if value, exists := options[key]; exists {
		if boolVal, ok := value.(bool); ok {
			return boolVal
		}
	}
	return defaultValue
}
