package pipeline_test

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stocktide/stockwatch/pkg/archive"
	"github.com/stocktide/stockwatch/pkg/model"
	"github.com/stocktide/stockwatch/pkg/notify"
	"github.com/stocktide/stockwatch/pkg/pipeline"
)

const feedJSON = `[
	{"title": "Bearing", "type": "Spare", "inventories": [
		{"store": {"title": "Sheffield"}, "quantity": 1, "par_level": 10, "critical_level": 2},
		{"store": {"title": "Leeds"}, "quantity": 0, "par_level": 5, "critical_level": 1}
	]},
	{"title": "Gasket", "type": "Spare", "inventories": [
		{"store": {"title": "Sheffield"}, "quantity": 5, "par_level": 10, "critical_level": 2}
	]},
	{"title": "Filter", "type": "Spare", "inventories": [
		{"store": {"title": "Sheffield"}, "quantity": 50, "par_level": 10, "critical_level": 2}
	]},
	{"title": "Ordered", "type": "Procurement Pending", "inventories": [
		{"store": {"title": "Sheffield"}, "quantity": 0, "par_level": 10, "critical_level": 2}
	]},
	{"title": "Unconfigured", "type": "Spare", "inventories": [
		{"store": {"title": "Sheffield"}, "quantity": 0, "par_level": 0, "critical_level": 0}
	]}
]`

type fakeSource struct {
	records []model.RawRecord
	err     error
}

func (f *fakeSource) FetchAll(ctx context.Context) ([]model.RawRecord, error) {
	return f.records, f.err
}

type fakeNotifier struct {
	name string
	err  error
	sent []notify.Email
}

func (f *fakeNotifier) Name() string { return f.name }

func (f *fakeNotifier) Send(ctx context.Context, email notify.Email) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, email)
	return nil
}

func feedSource(t *testing.T, data string) *fakeSource {
	t.Helper()
	var records []model.RawRecord
	require.NoError(t, json.Unmarshal([]byte(data), &records))
	return &fakeSource{records: records}
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestStore(t *testing.T) *archive.DirStore {
	t.Helper()
	store, err := archive.NewDirStore(filepath.Join(t.TempDir(), "archive"), "")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func defaultOptions() pipeline.Options {
	return pipeline.Options{
		Site:         "Sheffield",
		Subject:      "Inventory Stock Alerts: Sheffield",
		Recipients:   []string{"stores@example.com"},
		ExcludeTypes: []string{"Procurement Pending"},
	}
}

func TestRunner_Run_DeliversAndArchives(t *testing.T) {
	store := newTestStore(t)
	notifier := &fakeNotifier{name: "smtp"}
	runner := pipeline.NewRunner(feedSource(t, feedJSON), store, []notify.Notifier{notifier}, newTestLogger())

	summary, err := runner.Run(context.Background(), defaultOptions())
	require.NoError(t, err)

	run := summary.Run
	assert.Equal(t, 5, run.RecordsFetched)
	assert.Equal(t, 6, run.RowsFlattened)
	assert.Equal(t, 2, run.UrgentCount)
	assert.Equal(t, 1, run.WarningCount)
	assert.Equal(t, "Leeds, Sheffield", run.AlertSites)
	assert.Equal(t, 2, run.ReportRows)
	assert.True(t, run.Delivered)

	require.NotEmpty(t, run.ReportPath)
	data, err := os.ReadFile(run.ReportPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "Site,Part Name"))
	assert.Contains(t, string(data), "Bearing")

	require.Len(t, notifier.sent, 1)
	email := notifier.sent[0]
	assert.Equal(t, []string{"stores@example.com"}, email.To)
	assert.Equal(t, "Inventory Stock Alerts: Sheffield", email.Subject)
	assert.Contains(t, email.HTMLBody, "Bearing")
	assert.NotContains(t, email.HTMLBody, "Leeds")
	assert.Contains(t, email.Attachment.Filename, ".csv")

	runs, err := store.ListRuns(context.Background(), archive.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.True(t, runs[0].Delivered)
	assert.Equal(t, "Leeds, Sheffield", runs[0].AlertSites)
}

func TestRunner_Run_PrefiltersBeforeClassifying(t *testing.T) {
	store := newTestStore(t)
	notifier := &fakeNotifier{name: "smtp"}
	runner := pipeline.NewRunner(feedSource(t, feedJSON), store, []notify.Notifier{notifier}, newTestLogger())

	summary, err := runner.Run(context.Background(), defaultOptions())
	require.NoError(t, err)

	require.NotNil(t, summary.Report)
	for _, row := range summary.Report.Rows {
		assert.NotEqual(t, "Ordered", row.Title)
		assert.NotEqual(t, "Unconfigured", row.Title)
	}
}

func TestRunner_Run_NoActionableRowsForSite(t *testing.T) {
	feed := `[
		{"title": "Filter", "type": "Spare", "inventories": [
			{"store": {"title": "Sheffield"}, "quantity": 50, "par_level": 10, "critical_level": 2}
		]}
	]`
	store := newTestStore(t)
	notifier := &fakeNotifier{name: "smtp"}
	runner := pipeline.NewRunner(feedSource(t, feed), store, []notify.Notifier{notifier}, newTestLogger())

	summary, err := runner.Run(context.Background(), defaultOptions())
	require.NoError(t, err)

	assert.Nil(t, summary.Report)
	assert.Empty(t, notifier.sent)
	assert.Empty(t, summary.Run.ReportPath)
	assert.False(t, summary.Run.Delivered)

	runs, err := store.ListRuns(context.Background(), archive.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, 0, runs[0].ReportRows)
}

func TestRunner_Run_DryRun(t *testing.T) {
	store := newTestStore(t)
	notifier := &fakeNotifier{name: "smtp"}
	runner := pipeline.NewRunner(feedSource(t, feedJSON), store, []notify.Notifier{notifier}, newTestLogger())

	opts := defaultOptions()
	opts.DryRun = true

	summary, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)

	require.NotNil(t, summary.Report)
	assert.Len(t, summary.Report.Rows, 2)
	assert.Empty(t, notifier.sent)

	runs, err := store.ListRuns(context.Background(), archive.RunFilter{})
	require.NoError(t, err)
	assert.Empty(t, runs)
}

func TestRunner_Run_FetchError(t *testing.T) {
	source := &fakeSource{err: errors.New("api unreachable")}
	runner := pipeline.NewRunner(source, newTestStore(t), nil, newTestLogger())

	_, err := runner.Run(context.Background(), defaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch inventory")
}

func TestRunner_Run_SchemaError(t *testing.T) {
	feed := `[
		{"title": "Bearing", "inventories": [
			{"store": {"title": "Sheffield"}, "quantity": 1, "par_level": 10}
		]}
	]`
	runner := pipeline.NewRunner(feedSource(t, feed), newTestStore(t), nil, newTestLogger())

	_, err := runner.Run(context.Background(), defaultOptions())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "critical_level")
}

func TestRunner_Run_NotifierFailureIsNotFatal(t *testing.T) {
	store := newTestStore(t)
	failing := &fakeNotifier{name: "smtp", err: errors.New("relay down")}
	working := &fakeNotifier{name: "resend"}
	runner := pipeline.NewRunner(feedSource(t, feedJSON), store,
		[]notify.Notifier{failing, working}, newTestLogger())

	summary, err := runner.Run(context.Background(), defaultOptions())
	require.NoError(t, err)

	assert.False(t, summary.Run.Delivered)
	assert.Len(t, working.sent, 1)
	assert.NotEmpty(t, summary.Run.ReportPath)

	runs, err := store.ListRuns(context.Background(), archive.RunFilter{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.False(t, runs[0].Delivered)
}

func TestRunner_Run_NoRecipients(t *testing.T) {
	store := newTestStore(t)
	notifier := &fakeNotifier{name: "smtp"}
	runner := pipeline.NewRunner(feedSource(t, feedJSON), store, []notify.Notifier{notifier}, newTestLogger())

	opts := defaultOptions()
	opts.Recipients = nil

	summary, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Empty(t, notifier.sent)
	assert.False(t, summary.Run.Delivered)
	assert.NotEmpty(t, summary.Run.ReportPath)
}
