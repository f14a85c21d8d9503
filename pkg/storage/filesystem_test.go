package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorageRoundTrip(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	name, n, err := store.SaveStream("u1/poster.pdf", strings.NewReader("pdf-bytes"), 1024)
	require.NoError(t, err)
	assert.Equal(t, int64(9), n)

	f, err := store.Open(name)
	require.NoError(t, err)
	body, _ := io.ReadAll(f)
	_ = f.Close()
	assert.Equal(t, "pdf-bytes", string(body))

	require.NoError(t, store.Delete(name))
	_, err = store.Open(name)
	assert.Error(t, err)
}

func TestLocalStorageRejectsTraversalAndOversize(t *testing.T) {
	store, err := NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("../escape.txt", []byte("x"))
	assert.Error(t, err)

	_, _, err = store.SaveStream("big.bin", strings.NewReader("0123456789"), 4)
	assert.ErrorIs(t, err, ErrTooLarge)
	_, err = store.Open("big.bin")
	assert.Error(t, err)
}
