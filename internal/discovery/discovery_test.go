package discovery

import (
	"context"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/purelink/internal/identity"
	"github.com/jonathan/purelink/internal/oracle"
	"github.com/jonathan/purelink/internal/store"
	"github.com/jonathan/purelink/internal/types"
)

// mockOracle implements Oracle for testing
type mockOracle struct {
	Methods []oracle.RawMethod
	Calls   int
	Last    oracle.CandidateContext
}

func (m *mockOracle) DiscoverMethods(_ context.Context, c oracle.CandidateContext) []oracle.RawMethod {
	m.Calls++
	m.Last = c
	return m.Methods
}

// fixedChooser returns a canned answer
type fixedChooser struct {
	idx int
	err error
}

func (f fixedChooser) Choose(context.Context, string, int) (int, error) {
	return f.idx, f.err
}

var (
	t0    = time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	day   = 24 * time.Hour
	hibob = types.ToolCandidate{
		CandidateID:   identity.CandidateID("HiBob", "hibob.com"),
		ToolName:      "HiBob",
		Developer:     "Bob",
		WebsiteDomain: "hibob.com",
		WebsiteURL:    "https://hibob.com",
	}
)

func conf(f float64) oracle.Number {
	return oracle.Number{Value: f, Valid: true}
}

func hibobMethods() []oracle.RawMethod {
	return []oracle.RawMethod{
		{MethodType: "export", MethodName: "CSV Export", Confidence: conf(0.6)},
		{MethodType: "api", MethodName: "REST API", DocsURL: "https://apidocs.hibob.com/docs", AuthType: "API Key", Confidence: conf(0.9)},
		{MethodType: "webhook", MethodName: "Webhooks", Confidence: conf(0.9)},
	}
}

func newLog(t *testing.T) store.RecordLog {
	t.Helper()
	log, err := store.NewFileLog(afero.NewMemMapFs(), "data", nil)
	require.NoError(t, err)
	return log
}

func clockAt(ts *time.Time) func() time.Time {
	return func() time.Time { return *ts }
}

func TestRun_QueriesModelAndRecords(t *testing.T) {
	log := newLog(t)
	o := &mockOracle{Methods: hibobMethods()}
	now := t0
	p := New(o, log, Options{Now: clockAt(&now), Meta: map[string]any{"model": "mock-model"}})

	res, err := p.Run(t.Context(), hibob, hibob.CandidateID, false)
	require.NoError(t, err)

	assert.Equal(t, 1, o.Calls)
	assert.Equal(t, "hibob.com", o.Last.Domain)
	assert.Equal(t, types.DiscoverySourceLLM, res.Discovery.DiscoverySource)
	assert.Equal(t, t0.Add(30*day), res.Discovery.ExpiresAt)
	assert.Equal(t, 1, res.Discovery.SelectedIndex, "highest confidence, earliest on tie")
	assert.Equal(t, "REST API", res.Selected().MethodName)
	assert.Regexp(t, `^rest-api-api-[0-9a-f]{8}$`, res.Selected().MethodID)
	assert.Nil(t, res.Expiration)

	envs, err := log.QueryByKindAndCandidate(t.Context(), types.KindDiscoverMethods, hibob.CandidateID)
	require.NoError(t, err)
	require.Len(t, envs, 1)
	assert.Equal(t, res.RecordID, envs[0].ID)
	assert.Equal(t, types.EnvelopeSourceDiscovery, envs[0].Source)
	assert.Equal(t, "llm", envs[0].Meta["discoveryMethod"])
	assert.Equal(t, "mock-model", envs[0].Meta["model"])

	assert.Equal(t, res.RecordID, res.Display.ID)
	assert.Equal(t, hibob.CandidateID, res.Display.CandidateID)
	assert.Equal(t, "API Key", res.Display.AuthType)
}

func TestRun_CachedBatchMakesNoModelCalls(t *testing.T) {
	log := newLog(t)
	o := &mockOracle{Methods: hibobMethods()}
	now := t0
	p := New(o, log, Options{Now: clockAt(&now)})

	_, err := p.Run(t.Context(), hibob, "first", false)
	require.NoError(t, err)
	require.Equal(t, 1, o.Calls)

	now = t0.Add(29 * day)
	res, err := p.Run(t.Context(), hibob, "second", false)
	require.NoError(t, err)

	assert.Equal(t, 1, o.Calls)
	assert.Equal(t, types.DiscoverySourceCache, res.Discovery.DiscoverySource)
	assert.Equal(t, now.Add(30*day), res.Discovery.ExpiresAt)
	require.NotNil(t, res.Expiration)
	assert.Equal(t, 1, res.Expiration.DaysUntilExpiry)
	assert.Len(t, res.Discovery.Methods, 3)

	envs, err := log.QueryByKindAndCandidate(t.Context(), types.KindDiscoverMethods, hibob.CandidateID)
	require.NoError(t, err)
	require.Len(t, envs, 2)
	newest, err := envs[0].Discovery()
	require.NoError(t, err)
	assert.True(t, envs[0].CreatedAt.Add(30*day).Equal(newest.ExpiresAt))
	assert.Equal(t, "cache", envs[0].Meta["discoveryMethod"])
}

func TestRun_ExpiredBatchRequeries(t *testing.T) {
	log := newLog(t)
	o := &mockOracle{Methods: hibobMethods()}
	now := t0
	p := New(o, log, Options{Now: clockAt(&now)})

	_, err := p.Run(t.Context(), hibob, "first", false)
	require.NoError(t, err)

	now = t0.Add(31 * day)
	res, err := p.Run(t.Context(), hibob, "second", false)
	require.NoError(t, err)

	assert.Equal(t, 2, o.Calls)
	assert.Equal(t, types.DiscoverySourceLLM, res.Discovery.DiscoverySource)
	assert.Equal(t, now.Add(30*day), res.Discovery.ExpiresAt)
}

func TestRun_NoMethods(t *testing.T) {
	log := newLog(t)
	_, err := New(&mockOracle{}, log, Options{}).Run(t.Context(), hibob, "x", false)
	assert.ErrorIs(t, err, ErrNoMethods)

	envs, err := log.QueryAll(t.Context(), types.KindDiscoverMethods)
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestRun_InteractiveChoiceAndCancel(t *testing.T) {
	log := newLog(t)
	o := &mockOracle{Methods: hibobMethods()}

	res, err := New(o, log, Options{Chooser: fixedChooser{idx: 2}}).Run(t.Context(), hibob, "x", true)
	require.NoError(t, err)
	assert.Equal(t, "Webhooks", res.Selected().MethodName)

	log2 := newLog(t)
	_, err = New(o, log2, Options{Chooser: fixedChooser{idx: -1, err: context.Canceled}}).Run(t.Context(), hibob, "x", true)
	assert.ErrorIs(t, err, ErrNoSelection)

	envs, err := log2.QueryAll(t.Context(), types.KindDiscoverMethods)
	require.NoError(t, err)
	assert.Empty(t, envs)
}

func TestRun_VerifiesDocsURLs(t *testing.T) {
	p := &mapProber{status: map[string]int{"https://hibob.com/api-reference": 200}}
	o := &mockOracle{Methods: []oracle.RawMethod{
		{MethodType: "api", MethodName: "REST API", DocsURL: "https://hibob.com/made-up", Confidence: conf(0.9)},
		{MethodType: "export", MethodName: "Export", Confidence: conf(0.1)},
	}}

	res, err := New(o, newLog(t), Options{Verifier: NewVerifier(p, nil)}).Run(t.Context(), hibob, "x", false)
	require.NoError(t, err)

	assert.Equal(t, "https://hibob.com/api-reference", res.Discovery.Methods[0].DocsURL)
	assert.Empty(t, res.Discovery.Methods[1].DocsURL)
	assert.Len(t, p.probed, 4, "stops at the first specific hit")
}

func TestRunByID_UsesCandidateStoreThenLog(t *testing.T) {
	log := newLog(t)
	o := &mockOracle{Methods: hibobMethods()}

	_, err := New(o, log, Options{}).RunByID(t.Context(), hibob.CandidateID, false)
	assert.ErrorIs(t, err, store.ErrNotFound)

	env, err := types.NewCaptureEnvelope("", t0, "hibob", &types.CapturePayload{
		Candidates:   []types.ToolCandidate{hibob},
		SelectedTool: hibob,
	}, nil)
	require.NoError(t, err)
	_, err = log.Append(t.Context(), env)
	require.NoError(t, err)

	res, err := New(o, log, Options{}).RunByID(t.Context(), hibob.CandidateID, false)
	require.NoError(t, err)
	assert.Equal(t, "HiBob", res.Candidate.ToolName)
}

func TestNormalizeMethod(t *testing.T) {
	m := NormalizeMethod(oracle.RawMethod{MethodType: "GraphQL", MethodName: " Graph API ", Confidence: conf(3)}, "x-1")

	assert.Equal(t, types.MethodAPI, m.MethodType)
	assert.Equal(t, "Graph API", m.MethodName)
	assert.Equal(t, 1.0, m.Confidence)
	assert.Equal(t, identity.MethodID("Graph API", "api", "x-1"), m.MethodID)
	assert.NoError(t, m.Validate())
}

func TestBestMethod(t *testing.T) {
	methods := []types.OutputMethod{{Confidence: 0.2}, {Confidence: 0.8}, {Confidence: 0.8}, {Confidence: 0.5}}
	assert.Equal(t, 1, BestMethod(methods))
	assert.Equal(t, 0, BestMethod([]types.OutputMethod{{Confidence: 0}}))
}
