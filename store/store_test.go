package store

import (
	"path/filepath"
	"testing"

	"github.com/matryer/is"
)

func exerciseStore(t *testing.T, st Store) {
	is := is.New(t)
	_, err := st.Load("7")
	is.Equal(err, ErrNotFound)

	is.NoErr(st.Save("7", []byte{0x01, 0x02}))
	is.NoErr(st.Save("12", []byte{0x20, 0x03, 0x40, 0x04, 0x60}))
	data, err := st.Load("7")
	is.NoErr(err)
	is.Equal(data, []byte{0x01, 0x02})

	// Saving again replaces the old contents.
	is.NoErr(st.Save("7", []byte{0x05}))
	data, err = st.Load("7")
	is.NoErr(err)
	is.Equal(data, []byte{0x05})

	keys, err := st.Keys()
	is.NoErr(err)
	is.Equal(keys, []string{"12", "7"})
	is.NoErr(st.Close())
}

func TestFileStore(t *testing.T) {
	st, err := NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, st)
}

func TestSQLiteStore(t *testing.T) {
	st, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"))
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, st)
}

func TestBadgerStore(t *testing.T) {
	st, err := NewBadgerStore("")
	if err != nil {
		t.Fatal(err)
	}
	exerciseStore(t, st)
}

func TestBadgerStoreReopen(t *testing.T) {
	is := is.New(t)
	dir := filepath.Join(t.TempDir(), "badger")
	st, err := NewBadgerStore(dir)
	is.NoErr(err)
	is.NoErr(st.Save("s4r7c6f2-9", []byte{0x03, 0x83}))
	is.NoErr(st.Close())

	st, err = NewBadgerStore(dir)
	is.NoErr(err)
	defer st.Close()
	data, err := st.Load("s4r7c6f2-9")
	is.NoErr(err)
	is.Equal(data, []byte{0x03, 0x83})
}

func TestOpen(t *testing.T) {
	is := is.New(t)
	dir := t.TempDir()
	st, err := Open(KindFile, dir)
	is.NoErr(err)
	_, ok := st.(*FileStore)
	is.True(ok)
	st, err = Open(KindSQLite, filepath.Join(dir, "x.db"))
	is.NoErr(err)
	is.NoErr(st.Close())
	st, err = Open(KindBadger, filepath.Join(dir, "kv"))
	is.NoErr(err)
	_, ok = st.(*BadgerStore)
	is.True(ok)
	is.NoErr(st.Close())
	_, err = Open("floppy", dir)
	is.True(err != nil)
}
