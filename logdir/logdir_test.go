// Copyright (c) 2024 BVK Chaitanya

package logdir

import (
	"log"
	"os"
	"path/filepath"
	"testing"
)

func TestLogDir(t *testing.T) {
	dir := t.TempDir()

	saved := FileSizeLimitMB
	FileSizeLimitMB = 1
	defer func() { FileSizeLimitMB = saved }()

	b, err := New(dir, "testlogdir")
	if err != nil {
		t.Fatal(err)
	}
	first := b.Name()

	log := log.New(b, "", log.Flags())
	for i := 0; i < 128*1024; i++ {
		log.Printf("hello world")
	}
	if b.Name() == first {
		t.Fatalf("want log file to be rotated after the size limit")
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}
	if _, err := b.Write([]byte("closed")); err == nil {
		t.Fatalf("want error for writes after close")
	}

	matches, err := filepath.Glob(filepath.Join(dir, "testlogdir-*.log"))
	if err != nil {
		t.Fatal(err)
	}
	if len(matches) < 2 {
		t.Fatalf("want at least 2 log files, got %d", len(matches))
	}
	for _, m := range matches {
		finfo, err := os.Stat(m)
		if err != nil {
			t.Fatal(err)
		}
		if finfo.Size() > FileSizeLimitMB*1024*1024 {
			t.Fatalf("log file %s is larger than the limit", m)
		}
	}
}
