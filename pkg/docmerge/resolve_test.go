package docmerge

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestResolver(loader ResourceLoader, renderer PDFRenderer, concurrency int) *resolver {
	logger := NewLogger(io.Discard, LogOff)
	return &resolver{
		loader:      loader,
		renderer:    renderer,
		concurrency: concurrency,
		diag:        newDiagnostics(logger),
		logger:      logger,
	}
}

func TestResolve_Kinds(t *testing.T) {
	img := pngBytes(t, 2, 2)
	loader := mapLoader{"logo.png": img, "doc.pdf": []byte("%PDF")}
	r := newTestResolver(loader, stubRenderer{pages: [][]byte{img}}, 2)

	subs, err := r.resolve(context.Background(), Values{
		"Client": Text("Acme"),
		"inline": Image(img),
		"logo":   ImagePath("logo.png"),
		"scan":   PDFPath("doc.pdf"),
		"items":  BulletList("a", "b"),
		"gone":   ImagePath("gone.png"),
	})
	require.NoError(t, err)

	assert.Equal(t, scalar("Acme"), subs["client"])
	assert.Equal(t, SubstInlineImage, subs["inline"].Kind)
	assert.Equal(t, img, subs["logo"].Image)
	assert.Equal(t, SubstPagedImage, subs["scan"].Kind)
	assert.Len(t, subs["scan"].Pages, 1)
	assert.Equal(t, []string{"a", "b"}, subs["items"].Items)
	assert.Equal(t, "[[IMAGE_NOT_FOUND::gone]]", subs["gone"].Text)

	diags := r.diag.all()
	require.Len(t, diags, 1)
	assert.Equal(t, DiagResourceNotFound, diags[0].Kind)
	assert.Equal(t, "gone", diags[0].Name)
}

func TestResolve_ZeroConcurrencyStillRuns(t *testing.T) {
	r := newTestResolver(mapLoader{"a.png": pngBytes(t, 1, 1)}, stubRenderer{}, 0)

	subs, err := r.resolve(context.Background(), Values{"a": ImagePath("a.png")})

	require.NoError(t, err)
	assert.Equal(t, SubstInlineImage, subs["a"].Kind)
}

// countingLoader records the highest number of concurrent loads
type countingLoader struct {
	active, peak int32
}

func (l *countingLoader) Load(ctx context.Context, path string) ([]byte, error) {
	n := atomic.AddInt32(&l.active, 1)
	defer atomic.AddInt32(&l.active, -1)
	for {
		p := atomic.LoadInt32(&l.peak)
		if n <= p || atomic.CompareAndSwapInt32(&l.peak, p, n) {
			break
		}
	}
	time.Sleep(5 * time.Millisecond)
	return nil, os.ErrNotExist
}

func TestResolve_BoundedConcurrency(t *testing.T) {
	loader := &countingLoader{}
	r := newTestResolver(loader, stubRenderer{}, 2)

	values := Values{}
	for _, name := range []string{"a", "b", "c", "d", "e", "f"} {
		values[name] = ImagePath(name + ".png")
	}

	_, err := r.resolve(context.Background(), values)

	require.NoError(t, err)
	assert.LessOrEqual(t, atomic.LoadInt32(&loader.peak), int32(2))
	assert.Len(t, r.diag.all(), 6)
}

// blockingRenderer waits for cancellation
type blockingRenderer struct {
	started chan struct{}
	once    sync.Once
}

func (r *blockingRenderer) Render(ctx context.Context, pdf []byte) ([][]byte, error) {
	r.once.Do(func() { close(r.started) })
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestResolve_Cancellation(t *testing.T) {
	renderer := &blockingRenderer{started: make(chan struct{})}
	r := newTestResolver(mapLoader{"a.pdf": []byte("%PDF")}, renderer, 1)
	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		<-renderer.started
		cancel()
	}()
	_, err := r.resolve(ctx, Values{"scan": PDFPath("a.pdf")})

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFileLoader(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte("data"), 0o644))

	loader := FileLoader{Root: dir}

	data, err := loader.Load(context.Background(), "logo.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	data, err = FileLoader{}.Load(context.Background(), filepath.Join(dir, "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, []byte("data"), data)

	_, err = loader.Load(context.Background(), "missing.png")
	assert.True(t, errors.Is(err, os.ErrNotExist))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = loader.Load(ctx, "logo.png")
	assert.ErrorIs(t, err, context.Canceled)
}
