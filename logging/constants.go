package logging

// These constants identify the services that log through a sub-logger. Each package creates its sub-logger with
// GlobalLogger.NewSubLogger("module", <SERVICE>) so that output can be filtered by component.
const (
	// CLI_SERVICE is the constant used to identify the cmd package
	CLI_SERVICE = "cli"
	// DECLARE_SERVICE is the constant used to identify the declare package
	DECLARE_SERVICE = "declare"
	// REGISTRY_SERVICE is the constant used to identify the registry package
	REGISTRY_SERVICE = "registry"
	// COLLECTOR_SERVICE is the constant used to identify the collector package
	COLLECTOR_SERVICE = "collector"
	// SCRAPER_SERVICE is the constant used to identify the scraper package
	SCRAPER_SERVICE = "scraper"
	// BUNDLE_SERVICE is the constant used to identify the bundle package
	BUNDLE_SERVICE = "bundle"
	// REMOTE_SERVICE is the constant used to identify the remote asset client
	REMOTE_SERVICE = "remote"
	// LINKER_SERVICE is the constant used to identify the linker intercept
	LINKER_SERVICE = "linker"
)
