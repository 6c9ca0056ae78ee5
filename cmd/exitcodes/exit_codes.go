package exitcodes

const (
	// ================================
	// Platform-universal exit codes
	// ================================

	// ExitCodeSuccess indicates no errors or failures had occurred.
	ExitCodeSuccess = 0

	// ExitCodeGeneralError indicates some type of general error occurred.
	ExitCodeGeneralError = 1

	// ================================
	// Application-specific exit codes
	// ================================
	// Note: Despite not being standardized, exit codes 2-5 are often used for common use cases, so we avoid them.

	// ExitCodeCollectionError indicates that assets could not be collected from the registries or from a binary.
	ExitCodeCollectionError = 6

	// ExitCodeMaterializationError indicates that collected assets could not be processed into the output directory.
	ExitCodeMaterializationError = 7

	// ExitCodeHandledError indicates that there was an error that was already logged, so it should not be printed
	// again.
	ExitCodeHandledError = 8
)
