// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package kar_test

import (
	"bytes"
	"io/ioutil"
	"os"
	"path/filepath"
	"testing"

	"github.com/devblok/shadowmap/utility/kar"
	qt "github.com/frankban/quicktest"
)

func writeArchive(t *testing.T) string {
	data := buildArchive(t, map[string]string{
		"test/test1.txt": "this is a test",
		"test/test2.txt": "this is another test",
	}, "test/test1.txt", "test/test2.txt")

	dir, err := ioutil.TempDir("", "kar")
	if err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "opentest.kar")
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		os.RemoveAll(dir)
		t.Fatal(err)
	}
	return path
}

func TestOpenFile(t *testing.T) {
	c := qt.New(t)
	path := writeArchive(t)
	defer os.RemoveAll(filepath.Dir(path))

	ar, err := kar.OpenFile(path)
	c.Assert(err, qt.IsNil)
	defer ar.Close()

	f, err := ar.ReadAll("test/test1.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, "this is a test")

	f, err = ar.ReadAll("test/test2.txt")
	c.Assert(err, qt.IsNil)
	c.Assert(string(f), qt.Equals, "this is another test")
}

func TestOpenFromOsFile(t *testing.T) {
	c := qt.New(t)
	path := writeArchive(t)
	defer os.RemoveAll(filepath.Dir(path))

	r, err := os.Open(path)
	c.Assert(err, qt.IsNil)
	defer r.Close()

	ar, err := kar.Open(r)
	c.Assert(err, qt.IsNil)
	c.Assert(ar.Files(), qt.HasLen, 2)
	c.Assert(ar.Close(), qt.IsNil)
}

func TestMissingFile(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(t, map[string]string{"test": testString1}, "test")

	ar, err := kar.Open(bytes.NewReader(data))
	c.Assert(err, qt.IsNil)

	_, err = ar.Open("nope")
	c.Assert(err, qt.Equals, kar.ErrFileNotFound)
}

func TestNotAnArchive(t *testing.T) {
	c := qt.New(t)

	_, err := kar.Open(bytes.NewReader([]byte("this is definitely not an archive at all")))
	c.Assert(err, qt.Equals, kar.ErrFileFormat)

	_, err = kar.Open(bytes.NewReader([]byte("KAR")))
	c.Assert(err, qt.Equals, kar.ErrFileFormat)
}

func TestTruncatedHeader(t *testing.T) {
	c := qt.New(t)
	data := buildArchive(t, map[string]string{"test": testString1}, "test")

	_, err := kar.Open(bytes.NewReader(data[:kar.MagicLength+kar.HeaderSizeNumberLength+2]))
	c.Assert(err, qt.Equals, kar.ErrFileFormat)
}
