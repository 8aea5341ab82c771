package imagefiles

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/sparsescene/internal/fsutil"
)

type closeTracker struct {
	*bytes.Reader
	closed int
}

func (c *closeTracker) Close() error {
	c.closed++
	return nil
}

type brokenSeeker struct{ io.Reader }

func (brokenSeeker) Seek(int64, int) (int64, error) { return 0, errors.New("not seekable") }

func TestTake_ConsumesOnce(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Add("a.png", bytes.NewReader([]byte("pixels"))))
	assert.Equal(t, []string{"a.png"}, reg.Names())

	data, err := reg.Take("a.png")
	require.NoError(t, err)
	assert.Equal(t, []byte("pixels"), data)
	assert.Empty(t, reg.Names())
	assert.Equal(t, 1, reg.Len())

	_, err = reg.Take("a.png")
	var unknown *UnknownFileNameError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "a.png", unknown.Name)
}

func TestTake_Unregistered(t *testing.T) {
	t.Parallel()

	_, err := NewRegistry().Take("missing.jpg")
	var unknown *UnknownFileNameError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "missing.jpg", unknown.Name)
}

func TestTake_RewindsPartiallyReadSource(t *testing.T) {
	t.Parallel()

	src := bytes.NewReader([]byte("0123456789"))
	_, _ = src.Seek(6, io.SeekStart)

	reg := NewRegistry()
	require.NoError(t, reg.Add("x", src))
	data, err := reg.Take("x")
	require.NoError(t, err)
	assert.Equal(t, "0123456789", string(data))
}

func TestTake_ClosesSource(t *testing.T) {
	t.Parallel()

	src := &closeTracker{Reader: bytes.NewReader([]byte("abc"))}
	reg := NewRegistry()
	require.NoError(t, reg.Add("x", src))
	_, err := reg.Take("x")
	require.NoError(t, err)
	assert.Equal(t, 1, src.closed)
}

func TestTake_SeekFailureStillConsumes(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Add("x", brokenSeeker{Reader: bytes.NewReader(nil)}))

	_, err := reg.Take("x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"x"`)

	_, err = reg.Take("x")
	var unknown *UnknownFileNameError
	assert.ErrorAs(t, err, &unknown)
}

func TestAdd_Duplicate(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	require.NoError(t, reg.Add("a", bytes.NewReader(nil)))
	err := reg.Add("a", bytes.NewReader(nil))
	var dup *DuplicateNameError
	assert.ErrorAs(t, err, &dup)
}

func TestTake_ConcurrentSameName(t *testing.T) {
	t.Parallel()

	for round := 0; round < 20; round++ {
		reg := NewRegistry()
		require.NoError(t, reg.Add("shared", bytes.NewReader([]byte("once"))))

		var wins, losses atomic.Int32
		var wg sync.WaitGroup
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if _, err := reg.Take("shared"); err == nil {
					wins.Add(1)
				} else {
					losses.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
		assert.Equal(t, int32(15), losses.Load())
	}
}

func TestTake_ConcurrentDistinctNames(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	for i := 0; i < 64; i++ {
		require.NoError(t, reg.Add(fmt.Sprintf("%03d.png", i), bytes.NewReader([]byte{byte(i)})))
	}

	var wg sync.WaitGroup
	errs := make([]error, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			data, err := reg.Take(fmt.Sprintf("%03d.png", i))
			if err == nil && (len(data) != 1 || data[0] != byte(i)) {
				err = fmt.Errorf("entry %d returned %v", i, data)
			}
			errs[i] = err
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.NoError(t, err)
	}
	assert.Empty(t, reg.Names())
}

func TestFromDir(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/imgs/a.png", []byte("A"))
	mfs.WriteFile("/imgs/nested/b.png", []byte("B"))

	reg, err := FromDir(mfs, "/imgs", []string{"a.png", "nested/b.png", "missing.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png", "nested/b.png"}, reg.Names())
	assert.Zero(t, mfs.OpenCount("/imgs/a.png"), "sources must open lazily")

	data, err := reg.Take("nested/b.png")
	require.NoError(t, err)
	assert.Equal(t, "B", string(data))
	assert.Equal(t, 1, mfs.OpenCount("/imgs/nested/b.png"))

	_, err = reg.Take("missing.png")
	var unknown *UnknownFileNameError
	assert.ErrorAs(t, err, &unknown)
}

func TestFromDir_RejectsEscapingNames(t *testing.T) {
	t.Parallel()

	mfs := fsutil.NewMemoryFileSystem()
	mfs.WriteFile("/data/imgs/a.png", []byte("A"))
	mfs.WriteFile("/data/secret.png", []byte("S"))

	reg, err := FromDir(mfs, "/data/imgs", []string{"a.png", "../secret.png", "/data/secret.png"})
	require.NoError(t, err)
	assert.Equal(t, []string{"a.png"}, reg.Names())

	_, err = reg.Take("../secret.png")
	var unknown *UnknownFileNameError
	assert.ErrorAs(t, err, &unknown)
	assert.Zero(t, mfs.OpenCount("/data/secret.png"))
}
