package tracing

// Span attribute keys. These define the semantic conventions for spans
// emitted while resolving a technology.
const (
	// Filter pipeline attributes
	AttrFilterTag         = "filter.tag"
	AttrFilterDescription = "filter.description"
	AttrFilterMustExist   = "filter.must_exist"
	AttrFilterOutputCount = "filter.output_count"

	// Archive materialization attributes
	AttrArchiveID       = "archive.id"
	AttrArchiveOptional = "archive.optional"

	// Technology attributes
	AttrTechName = "tech.name"
	AttrRunID    = "run.id"

	// Error attributes
	AttrErrorMessage = "error.message"
)

// Span name prefixes for consistent naming.
const (
	SpanPrefixFilter  = "filter."
	SpanPrefixArchive = "archive.extract."
	SpanPrefixTech    = "tech."
)
