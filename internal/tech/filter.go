package tech

import (
	"context"
	"fmt"
	"os"
	"sort"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/cedard234/hammer/internal/log"
	"github.com/cedard234/hammer/internal/tracing"
)

// PathsFunc extracts the desired library-relative path(s) out of a library.
type PathsFunc func(lib Library) []string

// ExtractionFunc extracts desired string(s) out of the library, given the
// library and its fully resolved paths.
type ExtractionFunc func(lib Library, paths []string) []string

// FilterFunc is a predicate deciding whether a library participates in a
// query.
type FilterFunc func(lib Library) bool

// SortFunc produces a sort key controlling the order in which outputs are
// listed. Lower keys sort first; the sort is stable.
type SortFunc func(lib Library) int

// PostFilterFunc transforms or validates the whole output list before
// formatting.
type PostFilterFunc func(items []string) ([]string, error)

// OutputFunc formats one output item, e.g. turning "foo.db" into
// ["--timing", "foo.db"].
type OutputFunc func(item string, filt LibraryFilter) []string

// LibraryFilter is a declarative query over the library list: a selection
// predicate, a per-library path extractor, an optional sort key, an optional
// post-extraction transform, and optional list-level validation stages. It is
// a plain value object; accessor functions hand out fresh, independently
// configurable instances.
type LibraryFilter struct {
	Tag         string
	Description string
	// IsFile reports whether resulting strings are files (as opposed to
	// directories) for the existence check.
	IsFile               bool
	PathsFunc            PathsFunc
	ExtractionFunc       ExtractionFunc // nil means identity
	FilterFunc           FilterFunc     // nil means accept every library
	SortFunc             SortFunc       // nil preserves selection order
	ExtraPostFilterFuncs []PostFilterFunc
}

// ToCommandLineArgs generates command-line args in the form
// --<filt.Tag> <item>.
func ToCommandLineArgs(item string, filt LibraryFilter) []string {
	return []string{"--" + filt.Tag, item}
}

// ToPlainItem passes each item through unchanged.
func ToPlainItem(item string, filt LibraryFilter) []string {
	return []string{item}
}

// CreateNonemptyCheck returns a post-filter that rejects an empty result
// list, naming the artifact in the error.
func CreateNonemptyCheck(description string) PostFilterFunc {
	return func(items []string) ([]string, error) {
		if len(items) == 0 {
			return nil, fmt.Errorf("must have at least one %s", description)
		}
		return items, nil
	}
}

// SetTracer attaches an OpenTelemetry tracer used to instrument filter
// execution and archive materialization. Without one, instrumentation is a
// no-op.
func (t *Technology) SetTracer(tr trace.Tracer) { t.tracer = tr }

func (t *Technology) tracerOrNoop() trace.Tracer {
	if t.tracer != nil {
		return t.tracer
	}
	return noop.NewTracerProvider().Tracer("tech")
}

// ProcessLibraryFilter interprets a LibraryFilter plus a chain of pre-filters
// against the available libraries and returns the final ordered, de-duplicated,
// formatted output.
//
// The pipeline is strictly ordered: selection (pre-filters then the filter's
// own predicate, all must accept), stable sort, path extraction and prefix
// resolution, existence checks (when mustExist), per-library extraction,
// first-occurrence de-duplication (when uniquify), list-level post filters,
// and finally per-item output formatting.
func (t *Technology) ProcessLibraryFilter(ctx context.Context, filt LibraryFilter,
	preFilts []FilterFunc, outputFunc OutputFunc, mustExist, uniquify bool) ([]string, error) {

	ctx, span := t.tracerOrNoop().Start(ctx, tracing.SpanPrefixFilter+filt.Tag,
		trace.WithAttributes(
			attribute.String(tracing.AttrFilterTag, filt.Tag),
			attribute.String(tracing.AttrFilterDescription, filt.Description),
			attribute.Bool(tracing.AttrFilterMustExist, mustExist),
		))
	defer span.End()

	items, err := t.processLibraryFilter(ctx, filt, preFilts, outputFunc, mustExist, uniquify)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int(tracing.AttrFilterOutputCount, len(items)))
	return items, nil
}

func (t *Technology) processLibraryFilter(ctx context.Context, filt LibraryFilter,
	preFilts []FilterFunc, outputFunc OutputFunc, mustExist, uniquify bool) ([]string, error) {

	available, err := t.AvailableLibraries()
	if err != nil {
		return nil, err
	}

	// Selection: every pre-filter and the filter's own predicate must accept.
	predicates := append([]FilterFunc{}, preFilts...)
	if filt.FilterFunc != nil {
		predicates = append(predicates, filt.FilterFunc)
	}
	filtered := make([]Library, 0, len(available))
	for _, lib := range available {
		accepted := true
		for _, pred := range predicates {
			if !pred(lib) {
				accepted = false
				break
			}
		}
		if accepted {
			filtered = append(filtered, lib)
		}
	}

	// Ordering: stable, so ties keep selection order.
	if filt.SortFunc != nil {
		sort.SliceStable(filtered, func(i, j int) bool {
			return filt.SortFunc(filtered[i]) < filt.SortFunc(filtered[j])
		})
	}

	// Path extraction and resolution, then existence checks.
	extractionFunc := filt.ExtractionFunc
	if extractionFunc == nil {
		extractionFunc = func(lib Library, paths []string) []string { return paths }
	}

	outputList := make([]string, 0, len(filtered))
	for _, lib := range filtered {
		paths := filt.PathsFunc(lib)
		fullPaths := make([]string, 0, len(paths))
		for _, path := range paths {
			resolved, err := t.PrependDirPath(path, &lib)
			if err != nil {
				return nil, err
			}
			fullPaths = append(fullPaths, resolved)
		}
		if mustExist {
			for _, path := range fullPaths {
				if err := checkExists(filt, path); err != nil {
					return nil, err
				}
			}
		}
		outputList = append(outputList, extractionFunc(lib, fullPaths)...)
	}

	// Uniquify results: some CAD tools dislike duplicated arguments (e.g. a
	// stdcell lib passed twice). First occurrence wins.
	if uniquify {
		outputList = uniqueInOrder(outputList)
	}

	// Apply any list-level functions.
	for _, postFilter := range filt.ExtraPostFilterFuncs {
		outputList, err = postFilter(outputList)
		if err != nil {
			return nil, err
		}
	}

	// Finally, apply the output function, e.g. turning foo.db into
	// ["--timing", "foo.db"].
	final := make([]string, 0, len(outputList))
	for _, item := range outputList {
		final = append(final, outputFunc(item, filt)...)
	}
	log.Debug(log.CatFilter, "Filter processed", "tag", filt.Tag, "libraries", len(filtered), "outputs", len(final))
	return final, nil
}

// ReadLibs runs the pipeline once per filter and concatenates results in
// filter order. The default pre-filters (supply matching) are always
// applied, ahead of any extraPreFilters.
func (t *Technology) ReadLibs(ctx context.Context, filters []LibraryFilter, outputFunc OutputFunc,
	extraPreFilters []FilterFunc, mustExist bool) ([]string, error) {

	preFilts := t.DefaultPreFilters()
	preFilts = append(preFilts, extraPreFilters...)

	var results []string
	for _, filt := range filters {
		items, err := t.ProcessLibraryFilter(ctx, filt, preFilts, outputFunc, mustExist, true)
		if err != nil {
			return nil, err
		}
		results = append(results, items...)
	}
	return results, nil
}

func checkExists(filt LibraryFilter, path string) error {
	info, err := os.Stat(path)
	if filt.IsFile {
		if err != nil || info.IsDir() {
			return fmt.Errorf("%s %s is not a file or does not exist", filt.Description, path)
		}
		return nil
	}
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%s %s is not a directory or does not exist", filt.Description, path)
	}
	return nil
}

// uniqueInOrder removes later duplicates, preserving first-occurrence order.
func uniqueInOrder(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := items[:0]
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}
