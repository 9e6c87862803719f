package tracing

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

func TestFileExporter_WritesJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces", "traces.jsonl")
	exporter, err := NewFileExporter(path)
	require.NoError(t, err)

	// WithSyncer exports each span as it ends, no batching to flush.
	provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	tracer := provider.Tracer("test")

	_, span := tracer.Start(context.Background(), SpanPrefixFilter+"lef")
	span.SetAttributes(attribute.String(AttrFilterTag, "lef"))
	span.End()

	_, span = tracer.Start(context.Background(), SpanPrefixArchive+"pdk.tar.gz")
	span.SetStatus(codes.Error, "missing archive")
	span.End()

	require.NoError(t, provider.Shutdown(context.Background()))
	require.NoError(t, exporter.Shutdown(context.Background()))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	var records []SpanRecord
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		var rec SpanRecord
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &rec))
		records = append(records, rec)
	}
	require.Len(t, records, 2)

	require.Equal(t, "filter.lef", records[0].Name)
	require.Equal(t, "lef", records[0].Attributes[AttrFilterTag])
	require.NotEmpty(t, records[0].TraceID)
	require.NotEmpty(t, records[0].SpanID)

	require.Equal(t, "archive.extract.pdk.tar.gz", records[1].Name)
	require.Equal(t, "ERROR", records[1].Status)
	require.Equal(t, "missing archive", records[1].StatusMsg)
}

func TestFileExporter_AppendsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "traces.jsonl")

	for i := 0; i < 2; i++ {
		exporter, err := NewFileExporter(path)
		require.NoError(t, err)
		provider := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
		_, span := provider.Tracer("test").Start(context.Background(), "tech.load")
		span.End()
		require.NoError(t, provider.Shutdown(context.Background()))
		require.NoError(t, exporter.Shutdown(context.Background()))
	}

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, 2, len(splitLines(contents)))
}

func splitLines(raw []byte) [][]byte {
	var lines [][]byte
	start := 0
	for i, b := range raw {
		if b == '\n' {
			if i > start {
				lines = append(lines, raw[start:i])
			}
			start = i + 1
		}
	}
	if start < len(raw) {
		lines = append(lines, raw[start:])
	}
	return lines
}
