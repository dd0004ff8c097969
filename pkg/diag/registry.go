package diag

// Registered diagnostic codes.
const (
	CodeUnknownKind    = "H001"
	CodeNeverValue     = "H002"
	CodeValueMismatch  = "H003"
	CodeDuplicate      = "H004"
	CodeRuntimeValue   = "H005"
	CodeInvalidConfig  = "H010"
	CodeConfigNotFound = "H011"
)

// Template defines a registered diagnostic type.
type Template struct {
	Severity Severity
	Category Category
	Message  string
	Detail   string
	DocURL   string
}

// registry maps codes to their templates.
var registry = map[string]Template{
	CodeUnknownKind: {
		Severity: SeverityWarning,
		Category: CategoryCompile,
		Message:  "Unknown hydration strategy",
		Detail:   "The strategy is not one of time, promise, if, event, visible, media, idle or never. The component will hydrate when it becomes visible.",
		DocURL:   "https://vango.dev/docs/lazy-hydration/H001",
	},
	CodeNeverValue: {
		Severity: SeverityWarning,
		Category: CategoryCompile,
		Message:  "hydrate:never does not accept a value",
		Detail:   "hydrate:never is meant to be used as is. The value is dropped and does not affect runtime behavior.",
		DocURL:   "https://vango.dev/docs/lazy-hydration/H002",
	},
	CodeValueMismatch: {
		Severity: SeverityWarning,
		Category: CategoryCompile,
		Message:  "Invalid value for hydration strategy",
		Detail:   "The strategy is not meant to be given a boolean. The value is dropped and the strategy default is used.",
		DocURL:   "https://vango.dev/docs/lazy-hydration/H003",
	},
	CodeDuplicate: {
		Severity: SeverityError,
		Category: CategoryCompile,
		Message:  "Duplicate hydration directive",
		Detail:   "An element may carry a single hydration directive. Only the last one is applied.",
		DocURL:   "https://vango.dev/docs/lazy-hydration/H004",
	},
	CodeRuntimeValue: {
		Severity: SeverityWarning,
		Category: CategoryRuntime,
		Message:  "Invalid hydrate prop",
		Detail:   "The hydrate prop does not fit the component's strategy. The strategy default is used.",
		DocURL:   "https://vango.dev/docs/lazy-hydration/H005",
	},
	CodeInvalidConfig: {
		Severity: SeverityError,
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file could not be parsed or contains invalid values.",
	},
	CodeConfigNotFound: {
		Severity: SeverityError,
		Category: CategoryConfig,
		Message:  "Configuration file not found",
	},
}

// Lookup returns the template for a code.
func Lookup(code string) (Template, bool) {
	t, ok := registry[code]
	return t, ok
}
