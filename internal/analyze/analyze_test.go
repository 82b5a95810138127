package analyze

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/codemodel"
	"github.com/patrick-etcheverry-recherche/code-explorer-api/internal/extract"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const fixtures = "../../testdata/fixtures/codemodel/"

func newAnalyzer(opts ...Option) *Analyzer {
	return New(extract.NewTreeSitterParser(), opts...)
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// ---------------------------------------------------------------------------
// AnalyzeFile
// ---------------------------------------------------------------------------

func TestAnalyzeFile(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	a := newAnalyzer(WithLogger(zap.New(core)))

	res, err := a.AnalyzeFile(context.Background(), fixtures+"average.go")
	require.NoError(t, err)

	assert.Equal(t, extract.LangGo, res.Language)
	assert.Equal(t, fixtures+"average.go", res.Code.Path())
	assert.Equal(t, 3, res.Code.TreatmentCount(codemodel.TreatmentsAll))
	assert.NoError(t, res.Report.Err())
	assert.Positive(t, res.Report.Applied)

	entries := logs.FilterMessage("file analyzed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, "go", entries[0].ContextMap()["language"])
	assert.Equal(t, fixtures+"average.go", entries[0].ContextMap()["file"])
}

func TestAnalyzeFile_Errors(t *testing.T) {
	a := newAnalyzer()

	_, err := a.AnalyzeFile(context.Background(), "Main.java")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)

	_, err = a.AnalyzeFile(context.Background(), filepath.Join(t.TempDir(), "missing.go"))
	assert.ErrorIs(t, err, os.ErrNotExist)

	goOnly := newAnalyzer(WithLanguages(extract.LangGo))
	_, err = goOnly.AnalyzeFile(context.Background(), fixtures+"grades.py")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.True(t, goOnly.Supports("x.go"))
	assert.False(t, goOnly.Supports("x.rs"))
}

func TestAnalyzeSource(t *testing.T) {
	a := newAnalyzer()
	src := []byte("def f():\n    return g()\n\ndef g():\n    return 2\n")

	res, err := a.AnalyzeSource(context.Background(), "inline.py", src, extract.LangPython)
	require.NoError(t, err)
	assert.Equal(t, 5, res.LOC)

	ts := res.Code.Treatments(codemodel.TreatmentsAll, codemodel.AppearanceOrder)
	require.Len(t, ts, 2)
	after := res.Code.ExecutesAfter(ts[0].ID)
	require.Len(t, after, 1)
	assert.Equal(t, "g", after[0].Name, "forward calls resolve")
}

// ---------------------------------------------------------------------------
// AnalyzeAll
// ---------------------------------------------------------------------------

func TestAnalyzeAll(t *testing.T) {
	a := newAnalyzer()
	paths := []string{
		fixtures + "average.go",
		fixtures + "grades.py",
		fixtures + "stats.rs",
		fixtures + "cart.ts",
	}

	var mu sync.Mutex
	statuses := make(map[string][]ProgressStatus)
	results, err := a.AnalyzeAll(context.Background(), paths, 2, func(ev ProgressEvent) {
		mu.Lock()
		defer mu.Unlock()
		statuses[ev.Path] = append(statuses[ev.Path], ev.Status)
	})
	require.NoError(t, err)
	require.Len(t, results, len(paths))

	for i, res := range results {
		require.NotNil(t, res, paths[i])
		assert.Equal(t, paths[i], res.Path, "results keep input order")
		assert.Equal(t, []ProgressStatus{ProgressPending, ProgressWorking, ProgressComplete}, statuses[paths[i]])
	}

	got := []extract.Language{results[0].Language, results[1].Language, results[2].Language, results[3].Language}
	want := []extract.Language{extract.LangGo, extract.LangPython, extract.LangRust, extract.LangTypeScript}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("languages (-want +got):\n%s", diff)
	}
}

func TestAnalyzeAll_FirstFailureIsReturned(t *testing.T) {
	a := newAnalyzer()
	paths := []string{fixtures + "average.go", "notes.txt"}

	var mu sync.Mutex
	var failed []string
	results, err := a.AnalyzeAll(context.Background(), paths, 1, func(ev ProgressEvent) {
		if ev.Status == ProgressFailed {
			mu.Lock()
			failed = append(failed, ev.Path)
			mu.Unlock()
		}
	})

	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Nil(t, results[1])
	assert.Equal(t, []string{"notes.txt"}, failed)
}

func TestAnalyzeAll_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := newAnalyzer().AnalyzeAll(ctx, []string{fixtures + "average.go"}, 0, nil)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results[0])
}

// ---------------------------------------------------------------------------
// Watcher
// ---------------------------------------------------------------------------

func TestWatcher_ReanalysesChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "main.go")
	writeFile(t, path, "package main\n\nfunc a() {}\n")

	results := make(chan *Result, 4)
	w, err := NewWatcher(newAnalyzer(), []string{path},
		WithDebounce(20*time.Millisecond),
		WithOnResult(func(r *Result) { results <- r }),
	)
	require.NoError(t, err)
	w.Start(context.Background())
	defer func() { require.NoError(t, w.Stop()) }()

	writeFile(t, path, "package main\n\nfunc a() {}\n\nfunc b() {}\n")

	select {
	case res := <-results:
		abs, _ := filepath.Abs(path)
		assert.Equal(t, abs, res.Path)
		assert.Equal(t, 2, res.Code.TreatmentCount(codemodel.TreatmentsAll))
	case <-time.After(5 * time.Second):
		t.Fatal("no analysis after write")
	}
}

func TestWatcher_DirectoryAndRemoval(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "node_modules"), 0o755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "src"), 0o755))

	removed := make(chan string, 4)
	results := make(chan *Result, 4)
	w, err := NewWatcher(newAnalyzer(), []string{dir},
		WithDebounce(20*time.Millisecond),
		WithOnResult(func(r *Result) { results <- r }),
		WithOnRemove(func(p string) { removed <- p }),
	)
	require.NoError(t, err)

	abs, _ := filepath.Abs(dir)
	assert.Equal(t, []string{abs, filepath.Join(abs, "src")}, w.Watched())

	w.Start(context.Background())
	defer func() { require.NoError(t, w.Stop()) }()

	path := filepath.Join(abs, "src", "lib.rs")
	writeFile(t, filepath.Join(abs, "src", "notes.txt"), "ignored")
	writeFile(t, path, "fn f() {}\n")

	select {
	case res := <-results:
		assert.Equal(t, path, res.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no analysis after create")
	}

	require.NoError(t, os.Remove(path))
	select {
	case p := <-removed:
		assert.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("removal not reported")
	}
}

func TestWatcher_FollowsNewDirectories(t *testing.T) {
	dir := t.TempDir()
	abs, _ := filepath.Abs(dir)

	results := make(chan *Result, 4)
	w, err := NewWatcher(newAnalyzer(), []string{dir},
		WithDebounce(20*time.Millisecond),
		WithOnResult(func(r *Result) { results <- r }),
	)
	require.NoError(t, err)
	w.Start(context.Background())
	defer func() { require.NoError(t, w.Stop()) }()

	// Readers poll Watched while the event loop registers the directory.
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					_ = w.Watched()
				}
			}
		}()
	}

	pkg := filepath.Join(abs, "pkg")
	require.NoError(t, os.Mkdir(pkg, 0o755))
	assert.Eventually(t, func() bool {
		return slices.Contains(w.Watched(), pkg)
	}, 5*time.Second, 10*time.Millisecond, "new directory is watched")
	close(stop)
	wg.Wait()

	path := filepath.Join(pkg, "grades.py")
	writeFile(t, path, "def f():\n    pass\n")
	select {
	case res := <-results:
		assert.Equal(t, path, res.Path)
	case <-time.After(5 * time.Second):
		t.Fatal("no analysis in the new directory")
	}
}

func TestWatcher_StopWithoutStart(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(newAnalyzer(), []string{dir})
	require.NoError(t, err)
	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "stop is idempotent")
}

func TestNewWatcher_MissingPath(t *testing.T) {
	_, err := NewWatcher(newAnalyzer(), []string{filepath.Join(t.TempDir(), "nope")})
	assert.ErrorIs(t, err, os.ErrNotExist)
}
