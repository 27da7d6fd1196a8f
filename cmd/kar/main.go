// Copyright (c) 2019 devblok
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"
	"time"

	"github.com/devblok/shadowmap/core"
	"github.com/devblok/shadowmap/utility/kar"
	log "github.com/sirupsen/logrus"
)

func init() {
	currentUserName = "unknown"
	if u, err := user.Current(); err == nil && u.Name != "" {
		currentUserName = u.Name
	}
}

var (
	currentUserName string
	author          = flag.String("author", "", "Set the author of the package when compressing")
	version         = flag.Int64("version", 1, "Archive version number to create it with")
	extract         = flag.String("e", "", "Extract the archive given")
	compress        = flag.String("c", "", "Compress the given folder")
	list            = flag.String("l", "", "List files of the archive given")
	shadersOnly     = flag.Bool("shaders", false, "Only pack complete shader programs when compressing")
	dstFile         = flag.String("f", "", "Destination file when compressing, directory when extracting")
	silent          = flag.Bool("s", false, "Silent")
)

func main() {
	flag.Parse()
	if *silent {
		log.SetLevel(log.WarnLevel)
	}

	ops := 0
	for _, op := range []string{*extract, *compress, *list} {
		if op != "" {
			ops++
		}
	}
	if ops > 1 {
		log.Fatal(errors.New("only one operation at a time"))
	}

	var err error
	switch {
	case *compress != "":
		dst := *dstFile
		if dst == "" {
			dst = "out.kar"
		}
		name := *author
		if name == "" {
			name = currentUserName
		}
		err = compressFiles(*compress, dst, kar.Header{
			Author:      name,
			DateCreated: time.Now().Unix(),
			Version:     *version,
		}, *shadersOnly)
	case *extract != "":
		dst := *dstFile
		if dst == "" {
			dst = "."
		}
		err = extractFiles(*extract, dst)
	case *list != "":
		err = listFiles(*list, os.Stdout)
	default:
		flag.PrintDefaults()
	}
	if err != nil {
		log.Fatal(err)
	}
}

// filesToCompress returns paths relative to dir, with forward slashes.
func filesToCompress(dir string, shadersOnly bool) ([]string, error) {
	if shadersOnly {
		programs, err := core.ListPrograms(dir)
		if err != nil {
			return nil, err
		}
		var files []string
		for _, program := range programs {
			files = append(files,
				core.ShaderFileName(program, core.VertexShaderType),
				core.ShaderFileName(program, core.FragmentShaderType))
		}
		return files, nil
	}

	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	return files, err
}

func compressFiles(dir, dstFile string, header kar.Header, shadersOnly bool) error {
	if _, err := os.Stat(dstFile); err == nil {
		return errors.New("destination file exists, will not overwrite")
	}

	files, err := filesToCompress(dir, shadersOnly)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("nothing to compress in %s", dir)
	}

	karBuilder := kar.NewBuilder(header)
	for _, name := range files {
		f, err := os.Open(filepath.Join(dir, filepath.FromSlash(name)))
		if err != nil {
			return err
		}
		err = karBuilder.Add(name, f)
		f.Close()
		if err != nil {
			return err
		}
		log.WithField("file", name).Debug("added")
	}

	dst, err := os.Create(dstFile)
	if err != nil {
		return err
	}
	written, err := karBuilder.WriteTo(dst)
	if err != nil {
		dst.Close()
		return err
	}
	log.WithFields(log.Fields{
		"files": karBuilder.Len(),
		"bytes": written,
	}).Info("archive written to " + dstFile)
	return dst.Close()
}

func extractFiles(archive, dstDir string) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return err
	}
	defer ar.Close()

	for _, name := range ar.Files() {
		path := filepath.Join(dstDir, filepath.FromSlash(name))
		if rel, err := filepath.Rel(dstDir, path); err != nil || strings.HasPrefix(rel, "..") {
			return fmt.Errorf("%s: refusing to extract outside of %s", name, dstDir)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return err
		}
		if err := extractFile(ar, name, path); err != nil {
			return err
		}
		log.WithField("file", path).Debug("extracted")
	}
	return nil
}

func extractFile(ar *kar.Archive, name, path string) error {
	r, err := ar.Open(name)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(f, r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func listFiles(archive string, w io.Writer) error {
	ar, err := kar.OpenFile(archive)
	if err != nil {
		return err
	}
	defer ar.Close()

	header := ar.Header()
	fmt.Fprintf(w, "author: %s, version: %d, created: %s\n",
		header.Author, header.Version, time.Unix(header.DateCreated, 0).UTC().Format(time.RFC3339))
	for _, entry := range header.Index {
		fmt.Fprintf(w, "%10d %10d %s\n", entry.Size, entry.CompressedSize, entry.Name)
	}
	return nil
}
