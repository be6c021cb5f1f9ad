package engine

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MadKrok/essais-python/pkg/parser"
	"github.com/MadKrok/essais-python/pkg/schema"
)

const dubaiFieldMap = `{
	"local_tz": "Asia/Dubai",
	"maintenance_log_datetime_format": "%d/%m/%Y",
	"col_number_for_timestamp": 1,
	"local_timestamp_col1": "Date",
	"local_timestamp_col_separator1": "",
	"maintenance_end_timestamp_provided": "no",
	"col_number_for_maintenance_action": 2,
	"description_col1": "Work order: ",
	"action_col1": "WO",
	"description_col2": " - ",
	"action_col2": "Description",
	"id_asset_col": "Asset",
	"logger_col": "Logger",
	"type_col": "",
	"maintenance_type_col": "",
	"type": "maintenance",
	"maintenance_type": "preventive"
}`

type memorySink struct {
	names   []string
	records []*schema.MaintenanceRecord
	failAt  int
}

func (m *memorySink) Write(name string, rec *schema.MaintenanceRecord) error {
	if m.failAt > 0 && len(m.names)+1 == m.failAt {
		return errors.New("disk full")
	}
	m.names = append(m.names, name)
	m.records = append(m.records, rec)
	return nil
}

func newTestExporter(t *testing.T, lenient bool) *Exporter {
	t.Helper()
	doc, err := schema.ParseFieldMap([]byte(dubaiFieldMap), schema.FormatJSON)
	require.NoError(t, err)
	fields, err := doc.Compile()
	require.NoError(t, err)

	registry := buildRegistry(t, "Switch,Switch_long_name,WGS84 long,WGS84 lat\n"+
		"SW01,DXB_POINT_01,55.2708°,25.2048°\n"+
		"SW02,DXB_POINT_02,55.30°,25.10°\n", ',')

	exporter, err := NewExporter(fields, registry, ExportOptions{
		Lenient: lenient,
		Logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	require.NoError(t, err)
	return exporter
}

func parseLog(t *testing.T, data string, strict bool) *parser.Table {
	t.Helper()
	table, err := parser.Parse([]byte(data), parser.Options{Strict: strict})
	require.NoError(t, err)
	return table
}

func TestExporterRun(t *testing.T) {
	exporter := newTestExporter(t, false)
	table := parseLog(t, "Date,WO,Description,Asset,Logger\n"+
		"15/03/2021,WO-1,Greasing,SW01,VITAL\n"+
		"16/03/2021,WO-2,Cleaning,SW99,VITAL\n"+
		"17/03/2021,WO-3,Inspection,SW99,VITAL\n", true)
	sink := &memorySink{}

	result, err := exporter.Run(context.Background(), table, sink)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"DXB_POINT_01_2021-03-14T20:00:00Z",
		"SW99_2021-03-15T20:00:00Z",
		"SW99_2021-03-16T20:00:00Z",
	}, sink.names)
	assert.Equal(t, &schema.MaintenanceRecord{
		Logger:            "VITAL",
		IDAsset:           "DXB_POINT_01",
		Timestamp:         "2021-03-14T20:00:00Z",
		TimestampEnd:      "2021-03-14T20:30:00Z",
		Type:              "maintenance",
		MaintenanceType:   "preventive",
		MaintenanceAction: "Work order: WO-1 - Greasing",
		GPSLatitude:       "25.2048",
		GPSLongitude:      "55.2708",
	}, sink.records[0])
	assert.Equal(t, schema.NotAvailable, sink.records[1].GPSLatitude)

	assert.Equal(t, 3, result.RowsRead)
	assert.Equal(t, 3, result.RecordsWritten)
	assert.Equal(t, 1, result.RegistryHits)
	assert.Equal(t, 2, result.RegistryMisses)
	assert.Equal(t, map[string]int{"SW01": 1}, result.HitsByAsset)
	assert.Equal(t, []UnknownAssetRows{{ID: "SW99", Rows: []int{2, 3}}}, result.Unknown)
	assert.Empty(t, result.Skipped)
	assert.NoError(t, result.Errors.ErrorOrNil())
}

const logWithBadRow = "Date,WO,Description,Asset,Logger\n" +
	"15/03/2021,WO-1,Greasing,SW01,VITAL\n" +
	"2021-03-16,WO-2,Cleaning,SW02,VITAL\n" +
	"17/03/2021,WO-3,Inspection,SW02,VITAL\n"

func TestExporterRun_StrictAbortsOnFirstBadRow(t *testing.T) {
	exporter := newTestExporter(t, false)
	sink := &memorySink{}

	result, err := exporter.Run(context.Background(), parseLog(t, logWithBadRow, true), sink)

	var tsErr *schema.TimestampParseError
	require.True(t, errors.As(err, &tsErr), "got %v", err)
	assert.Equal(t, 2, tsErr.Row)
	require.NotNil(t, result)
	assert.Equal(t, 1, result.RecordsWritten)
	assert.Len(t, sink.names, 1)
}

func TestExporterRun_LenientSkipsBadRows(t *testing.T) {
	exporter := newTestExporter(t, true)
	sink := &memorySink{}
	data := logWithBadRow + "18/03/2021,WO-4\n"

	result, err := exporter.Run(context.Background(), parseLog(t, data, false), sink)
	require.NoError(t, err)

	assert.Equal(t, 4, result.RowsRead)
	assert.Equal(t, 2, result.RecordsWritten)
	assert.Equal(t, []string{
		"DXB_POINT_01_2021-03-14T20:00:00Z",
		"DXB_POINT_02_2021-03-16T20:00:00Z",
	}, sink.names)
	require.Len(t, result.Skipped, 2)
	assert.Equal(t, 2, result.Skipped[0].Row)
	assert.Equal(t, 3, result.Skipped[0].Line)
	assert.Equal(t, 4, result.Skipped[1].Row)
	assert.Len(t, result.Errors.Errors, 2)
	assert.Len(t, result.Warnings, 1, "short row is reported by the parser")
}

func TestExporterRun_HeaderCheckedBeforeOutput(t *testing.T) {
	exporter := newTestExporter(t, false)
	sink := &memorySink{}

	result, err := exporter.Run(context.Background(),
		parseLog(t, "Date,WO,Description,Asset\n15/03/2021,WO-1,Greasing,SW01\n", true), sink)

	var cfgErr *schema.ConfigError
	require.True(t, errors.As(err, &cfgErr), "got %v", err)
	assert.Equal(t, "Logger", cfgErr.Column)
	assert.Nil(t, result)
	assert.Empty(t, sink.names)
}

func TestExporterRun_SinkFailure(t *testing.T) {
	exporter := newTestExporter(t, false)
	table := parseLog(t, "Date,WO,Description,Asset,Logger\n"+
		"15/03/2021,WO-1,Greasing,SW01,VITAL\n"+
		"16/03/2021,WO-2,Cleaning,SW02,VITAL\n", true)
	sink := &memorySink{failAt: 2}

	result, err := exporter.Run(context.Background(), table, sink)
	assert.EqualError(t, err, "row 2: write DXB_POINT_02_2021-03-15T20:00:00Z: disk full")
	require.NotNil(t, result)
	assert.Equal(t, 1, result.RecordsWritten)
}

func TestExporterRun_Cancelled(t *testing.T) {
	exporter := newTestExporter(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	result, err := exporter.Run(ctx, parseLog(t, logWithBadRow, true), &memorySink{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, result.RecordsWritten)
}

func TestExporterRunFile_MissingLog(t *testing.T) {
	exporter := newTestExporter(t, false)

	result, err := exporter.RunFile(context.Background(), t.TempDir()+"/missing.csv", ',', &memorySink{})
	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestExporterRun_HitsKeyedByRegistryID(t *testing.T) {
	doc, err := schema.ParseFieldMap([]byte(dubaiFieldMap), schema.FormatJSON)
	require.NoError(t, err)
	fields, err := doc.Compile()
	require.NoError(t, err)
	registry := buildRegistry(t, "Switch,Switch_long_name,WGS84 long,WGS84 lat\nCaf\u00e9,CAFE_POINT,55.1°,25.1°\n", ',')
	exporter, err := NewExporter(fields, registry, ExportOptions{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err)

	table := parseLog(t, "Date,WO,Description,Asset,Logger\n15/03/2021,WO-1,Greasing,Cafe\u0301,VITAL\n", true)
	result, err := exporter.Run(context.Background(), table, &memorySink{})
	require.NoError(t, err)

	assert.Equal(t, 1, result.RegistryHits)
	assert.Equal(t, map[string]int{"Caf\u00e9": 1}, result.HitsByAsset)
}
