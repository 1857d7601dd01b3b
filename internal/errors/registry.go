package errors

// ErrorTemplate defines a registered error type.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// Registered codes.
const (
	CodeInvalidURL    = "M001"
	CodeTimeout       = "M002"
	CodeConnect       = "M003"
	CodeHTTPStatus    = "M004"
	CodeUnexpected    = "M005"
	CodeEmptyURL      = "M006"
	CodeInternal      = "M009"
	CodeConfigLoad    = "M010"
	CodeConfigInvalid = "M011"
	CodeStoreOpen     = "M020"
	CodeStoreQuery    = "M021"
	CodeNotFound      = "M022"
	CodeExport        = "M030"
)

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// ============================================
	// Fetch Errors (M001-M009)
	// ============================================

	CodeInvalidURL: {
		Category: CategoryValidation,
		Message:  "Invalid URL format. Please enter a valid URL.",
		Detail:   "The URL must have an http or https scheme and a host name.",
	},
	CodeTimeout: {
		Category: CategoryFetch,
		Message:  "Request timed out. The website took too long to respond.",
		Detail:   "The page did not respond within the configured analyzer timeout.",
	},
	CodeConnect: {
		Category: CategoryFetch,
		Message:  "Could not connect to the website. Please check the URL and try again.",
		Detail:   "DNS resolution, TCP connect or TLS handshake failed.",
	},
	CodeHTTPStatus: {
		Category: CategoryFetch,
		Message:  "HTTP error %d: %s",
		Detail:   "The server answered with a non-success status code.",
	},
	CodeUnexpected: {
		Category: CategoryFetch,
		Message:  "An unexpected error occurred: %v",
	},
	CodeEmptyURL: {
		Category: CategoryValidation,
		Message:  "Please enter a URL to analyze",
	},
	CodeInternal: {
		Category: CategoryInternal,
		Message:  "An error occurred while analyzing the website. Please try again.",
	},

	// ============================================
	// Config Errors (M010-M019)
	// ============================================

	CodeConfigLoad: {
		Category: CategoryConfig,
		Message:  "Could not load configuration",
		Detail:   "The configuration file exists but could not be read or parsed.",
	},
	CodeConfigInvalid: {
		Category: CategoryConfig,
		Message:  "Invalid configuration: %s",
	},

	// ============================================
	// Storage Errors (M020-M029)
	// ============================================

	CodeStoreOpen: {
		Category: CategoryStorage,
		Message:  "Could not open the analysis database",
		Detail:   "Check that the store path is writable.",
	},
	CodeStoreQuery: {
		Category: CategoryStorage,
		Message:  "Analysis database query failed",
	},
	CodeNotFound: {
		Category: CategoryStorage,
		Message:  "%s not found",
	},

	// ============================================
	// Export Errors (M030-M039)
	// ============================================

	CodeExport: {
		Category: CategoryExport,
		Message:  "Report export failed",
		Detail:   "The report could not be rendered or uploaded to the configured bucket.",
	},
}

// GetAllCodes returns all registered error codes.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	return codes
}

// GetTemplate returns the template for an error code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
