package adapters

type BuiltInAdapterType = string

const (
	InlineAdapterType BuiltInAdapterType = "inline"
	FileAdapterType   BuiltInAdapterType = "file"
	HTTPAdapterType   BuiltInAdapterType = "http"
)

// RegisterBuiltins registers all built-in adapters by default
// or only the specific ones if keys are provided
func RegisterBuiltins(r *Registry, adapters ...BuiltInAdapterType) {
	if len(adapters) == 0 {
		adapters = []BuiltInAdapterType{InlineAdapterType, FileAdapterType, HTTPAdapterType}
	}

	for _, key := range adapters {
		switch key {
		case InlineAdapterType:
			RegisterInline(r)
		case FileAdapterType:
			RegisterFile(r)
		case HTTPAdapterType:
			RegisterHTTP(r)
		}
	}
}
