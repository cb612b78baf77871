package acquire

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tutorstack/tutorctl/internal/envfile"
	"github.com/tutorstack/tutorctl/internal/model"
	"github.com/tutorstack/tutorctl/internal/registry"
)

type fakeClock struct {
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Sleep(d time.Duration) {
	c.sleeps = append(c.sleeps, d)
	c.now = c.now.Add(d)
}

type fakeRegistry struct {
	tags        []string
	err         error
	queries     int
	appearAfter int // tags become visible from this query count on
	pings       int
	pingOKAfter int // Ping succeeds from this call count on; zero means always
}

func (r *fakeRegistry) Ping(context.Context) error {
	r.pings++
	if r.pings >= r.pingOKAfter {
		return nil
	}
	return errors.New("connection refused")
}

func (r *fakeRegistry) ListModels(context.Context) ([]string, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.tags, nil
}

func (r *fakeRegistry) FindByPrefix(_ context.Context, name string) (string, bool, error) {
	r.queries++
	if r.err != nil {
		return "", false, r.err
	}
	if r.queries < r.appearAfter {
		return "", false, nil
	}
	tag, ok := registry.MatchPrefix(r.tags, name)
	return tag, ok, nil
}

type memStore struct {
	values  map[string]string
	upserts []string
	err     error
}

func (s *memStore) Upsert(key, value string) error {
	if s.err != nil {
		return s.err
	}
	if s.values == nil {
		s.values = map[string]string{}
	}
	s.values[key] = value
	s.upserts = append(s.upserts, key+"="+value)
	return nil
}

func newTestAcquirer(reg *fakeRegistry, store Store, clock *fakeClock, out *bytes.Buffer) *Acquirer {
	return &Acquirer{
		Registry: reg,
		Store:    store,
		Policy:   RetryPolicy{Interval: 2 * time.Second, Ceiling: 10 * time.Second},
		Clock:    clock,
		Out:      out,
		Log:      zerolog.Nop(),
	}
}

func stubPull(t *testing.T, err error) *[]string {
	t.Helper()
	orig := pullCommand
	var pulled []string
	pullCommand = func(name string) error {
		pulled = append(pulled, name)
		return err
	}
	t.Cleanup(func() { pullCommand = orig })
	return &pulled
}

func scriptChooser(choices ...Choice) Chooser {
	i := 0
	return func([]model.ModelDescriptor, bool) (Choice, error) {
		c := choices[i]
		if i < len(choices)-1 {
			i++
		}
		return c, nil
	}
}

func confirm(v bool) PullConfirmer {
	return func(string) (bool, error) { return v, nil }
}

func TestVerifyLoadedImmediate(t *testing.T) {
	reg := &fakeRegistry{tags: []string{"nomic-embed-text:latest"}}
	clock := &fakeClock{now: time.Now()}
	a := newTestAcquirer(reg, &memStore{}, clock, &bytes.Buffer{})

	tag, err := a.VerifyLoaded(context.Background(), "nomic-embed-text")

	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text:latest", tag)
	assert.Empty(t, clock.sleeps)
	assert.Equal(t, 1, reg.queries)
}

func TestVerifyLoadedTimeout(t *testing.T) {
	reg := &fakeRegistry{}
	clock := &fakeClock{now: time.Now()}
	a := newTestAcquirer(reg, &memStore{}, clock, &bytes.Buffer{})

	_, err := a.VerifyLoaded(context.Background(), "nomic-embed-text")

	assert.ErrorIs(t, err, ErrVerificationTimeout)
	assert.GreaterOrEqual(t, reg.queries, 4)
	assert.LessOrEqual(t, reg.queries, 6)
	for _, d := range clock.sleeps {
		assert.Equal(t, 2*time.Second, d)
	}
}

func TestVerifyLoadedEventually(t *testing.T) {
	reg := &fakeRegistry{tags: []string{"mxbai-embed-large:latest"}, appearAfter: 3}
	clock := &fakeClock{now: time.Now()}
	a := newTestAcquirer(reg, &memStore{}, clock, &bytes.Buffer{})

	tag, err := a.VerifyLoaded(context.Background(), "mxbai-embed-large")

	require.NoError(t, err)
	assert.Equal(t, "mxbai-embed-large:latest", tag)
	assert.Len(t, clock.sleeps, 2)
}

func TestVerifyLoadedRetriesRegistryErrors(t *testing.T) {
	reg := &fakeRegistry{err: registry.ErrUnreachable}
	clock := &fakeClock{now: time.Now()}
	a := newTestAcquirer(reg, &memStore{}, clock, &bytes.Buffer{})

	_, err := a.VerifyLoaded(context.Background(), "nomic-embed-text")

	assert.ErrorIs(t, err, ErrVerificationTimeout)
	assert.GreaterOrEqual(t, reg.queries, 4)
}

func TestPullWrapsFailure(t *testing.T) {
	stubPull(t, errors.New("exit status 1"))
	a := newTestAcquirer(&fakeRegistry{}, &memStore{}, &fakeClock{}, &bytes.Buffer{})

	err := a.Pull("no-such-model")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPullFailed)
	assert.Contains(t, err.Error(), "no-such-model")
}

func TestAcquireInteractiveConfirmedPull(t *testing.T) {
	pulled := stubPull(t, nil)
	reg := &fakeRegistry{tags: []string{"mxbai-embed-large:latest"}}
	store := &memStore{}
	a := newTestAcquirer(reg, store, &fakeClock{now: time.Now()}, &bytes.Buffer{})

	desc, err := a.AcquireInteractive(context.Background(), testCandidates(), scriptChooser(Choice{Index: 1}), confirm(true))

	require.NoError(t, err)
	assert.Equal(t, []string{"mxbai-embed-large"}, *pulled)
	assert.True(t, desc.Confirmed())
	assert.Equal(t, "mxbai-embed-large:latest", desc.ResolvedTag)
	assert.Equal(t, "mxbai-embed-large:latest", store.values[envfile.KeyEmbeddingModel])
}

func TestAcquireInteractiveDeclinedPullPersistsChoice(t *testing.T) {
	// Fresh checkout: no config file, no template. Selecting a model and
	// declining the pull must still record the preference, and nothing else.
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	store := envfile.NewStore(path, "")
	a := newTestAcquirer(&fakeRegistry{}, store, &fakeClock{now: time.Now()}, &bytes.Buffer{})

	desc, err := a.AcquireInteractive(context.Background(), testCandidates(), scriptChooser(Choice{Index: 3}), confirm(false))

	require.NoError(t, err)
	assert.Equal(t, "all-minilm", desc.RequestedName)
	assert.False(t, desc.Confirmed())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "EMBEDDING_MODEL=all-minilm\n", string(data))
}

func TestAcquireInteractiveSkip(t *testing.T) {
	store := &memStore{}
	a := newTestAcquirer(&fakeRegistry{}, store, &fakeClock{}, &bytes.Buffer{})

	_, err := a.AcquireInteractive(context.Background(), testCandidates(), scriptChooser(Choice{Skip: true}), confirm(false))

	assert.ErrorIs(t, err, ErrSkipped)
	assert.Empty(t, store.upserts)
}

func TestAcquireInteractiveInvalidSelectionLoops(t *testing.T) {
	store := &memStore{}
	a := newTestAcquirer(&fakeRegistry{}, store, &fakeClock{}, &bytes.Buffer{})

	desc, err := a.AcquireInteractive(context.Background(), testCandidates(),
		scriptChooser(Choice{Index: 99}, Choice{Index: 2}), confirm(false))

	require.NoError(t, err)
	assert.Equal(t, "nomic-embed-text", desc.RequestedName)
}

func TestAcquireInteractivePullFailureReturnsToMenu(t *testing.T) {
	stubPull(t, errors.New("exit status 1"))
	store := &memStore{}
	out := &bytes.Buffer{}
	a := newTestAcquirer(&fakeRegistry{}, store, &fakeClock{now: time.Now()}, out)

	_, err := a.AcquireInteractive(context.Background(), testCandidates(),
		scriptChooser(Choice{Index: 1}, Choice{Skip: true}), confirm(true))

	assert.ErrorIs(t, err, ErrSkipped)
	assert.Contains(t, out.String(), "ollama pull mxbai-embed-large")
}

func TestAcquireInteractiveTimeoutIsSoft(t *testing.T) {
	stubPull(t, nil)
	store := &memStore{}
	out := &bytes.Buffer{}
	reg := &fakeRegistry{tags: []string{"llama3.2:3b"}, appearAfter: 100}
	a := newTestAcquirer(reg, store, &fakeClock{now: time.Now()}, out)

	desc, err := a.AcquireInteractive(context.Background(), testCandidates(), scriptChooser(Choice{Index: 2}), confirm(true))

	require.NoError(t, err)
	assert.False(t, desc.Confirmed())
	assert.Contains(t, out.String(), "warming up")
	assert.Contains(t, out.String(), "llama3.2:3b")
	// No tag upgrade without confirmation: the single write is the one made
	// at selection time.
	assert.Equal(t, []string{"EMBEDDING_MODEL=nomic-embed-text"}, store.upserts)
}

func TestEnsureModelAlreadyLoaded(t *testing.T) {
	reg := &fakeRegistry{tags: []string{"llama3.2:3b"}}
	store := &memStore{}
	a := newTestAcquirer(reg, store, &fakeClock{}, &bytes.Buffer{})

	err := a.EnsureModel(context.Background(), "llama3.2", envfile.KeyLLMModel, func(string) (bool, error) {
		t.Fatal("confirm must not run when the model is already loaded")
		return false, nil
	})

	require.NoError(t, err)
	assert.Equal(t, "llama3.2:3b", store.values[envfile.KeyLLMModel])
}

func TestEnsureModelPinnedVariantNotSatisfiedBySibling(t *testing.T) {
	// A loaded llama3.2:3b must not stand in for a config pinned to
	// llama3.2:1b; the exact variant gets pulled and persisted.
	reg := &fakeRegistry{tags: []string{"llama3.2:3b"}}
	store := &memStore{}
	a := newTestAcquirer(reg, store, &fakeClock{now: time.Now()}, &bytes.Buffer{})

	orig := pullCommand
	var pulled []string
	pullCommand = func(name string) error {
		pulled = append(pulled, name)
		reg.tags = append(reg.tags, name)
		return nil
	}
	t.Cleanup(func() { pullCommand = orig })

	err := a.EnsureModel(context.Background(), "llama3.2:1b", envfile.KeyLLMModel, confirm(true))

	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2:1b"}, pulled)
	assert.Equal(t, "llama3.2:1b", store.values[envfile.KeyLLMModel])
}

func TestEnsureModelDeclined(t *testing.T) {
	store := &memStore{}
	a := newTestAcquirer(&fakeRegistry{}, store, &fakeClock{}, &bytes.Buffer{})

	err := a.EnsureModel(context.Background(), "llama3.2", envfile.KeyLLMModel, confirm(false))

	require.NoError(t, err)
	assert.Empty(t, store.upserts)
}

func TestEnsureModelPullsAndPersists(t *testing.T) {
	pulled := stubPull(t, nil)
	reg := &fakeRegistry{tags: []string{"llama3.2:3b"}, appearAfter: 2}
	store := &memStore{}
	a := newTestAcquirer(reg, store, &fakeClock{now: time.Now()}, &bytes.Buffer{})

	err := a.EnsureModel(context.Background(), "llama3.2", envfile.KeyLLMModel, confirm(true))

	require.NoError(t, err)
	assert.Equal(t, []string{"llama3.2"}, *pulled)
	assert.Equal(t, "llama3.2:3b", store.values[envfile.KeyLLMModel])
}

func stubServe(t *testing.T, err error) *[]string {
	t.Helper()
	origServe := serveCommand
	var served []string
	serveCommand = func(logPath string) error {
		served = append(served, logPath)
		return err
	}
	t.Cleanup(func() { serveCommand = origServe })

	origLook := lookPath
	lookPath = func(file string) (string, error) { return "/usr/bin/" + file, nil }
	t.Cleanup(func() { lookPath = origLook })
	return &served
}

func TestEnsureServingAlreadyUp(t *testing.T) {
	served := stubServe(t, nil)
	a := newTestAcquirer(&fakeRegistry{}, &memStore{}, &fakeClock{}, &bytes.Buffer{})

	err := a.EnsureServing(context.Background(), t.TempDir(), 5*time.Second)

	require.NoError(t, err)
	assert.Empty(t, *served)
}

func TestEnsureServingStartsDaemon(t *testing.T) {
	served := stubServe(t, nil)
	reg := &fakeRegistry{pingOKAfter: 3}
	clock := &fakeClock{now: time.Now()}
	a := newTestAcquirer(reg, &memStore{}, clock, &bytes.Buffer{})
	dir := t.TempDir()

	err := a.EnsureServing(context.Background(), dir, 5*time.Second)

	require.NoError(t, err)
	require.Len(t, *served, 1)
	assert.Equal(t, filepath.Join(dir, "ollama-serve.log"), (*served)[0])
	assert.NotEmpty(t, clock.sleeps)
}

func TestEnsureServingBinaryMissing(t *testing.T) {
	orig := lookPath
	lookPath = func(string) (string, error) { return "", errors.New("not found") }
	t.Cleanup(func() { lookPath = orig })

	reg := &fakeRegistry{pingOKAfter: 100}
	a := newTestAcquirer(reg, &memStore{}, &fakeClock{}, &bytes.Buffer{})

	err := a.EnsureServing(context.Background(), t.TempDir(), time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "not installed")
}

func TestEnsureServingTimeout(t *testing.T) {
	stubServe(t, nil)
	reg := &fakeRegistry{pingOKAfter: 1000}
	clock := &fakeClock{now: time.Now()}
	a := newTestAcquirer(reg, &memStore{}, clock, &bytes.Buffer{})

	err := a.EnsureServing(context.Background(), t.TempDir(), 2*time.Second)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "did not answer")
}
