package cliobulk

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestResolveInputs(t *testing.T) {
	dir := t.TempDir()
	manifest := filepath.Join(dir, "batch.json")
	if err := os.WriteFile(manifest, []byte(`["/a/one.jpg","/b/two.dng"]`), 0644); err != nil {
		t.Fatal(err)
	}

	cases := []struct {
		name string
		arg  string
		want []string
	}{
		{
			name: "comma list",
			arg:  "/a/one.jpg,/b/two.dng,/c/three.png",
			want: []string{"/a/one.jpg", "/b/two.dng", "/c/three.png"},
		},
		{
			name: "single path",
			arg:  "/a/one.jpg",
			want: []string{"/a/one.jpg"},
		},
		{
			name: "manifest file",
			arg:  manifest,
			want: []string{"/a/one.jpg", "/b/two.dng"},
		},
		{
			name: "json-suffixed path that does not exist is a plain input",
			arg:  "/nowhere/batch.json",
			want: []string{"/nowhere/batch.json"},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := ResolveInputs(c.arg)
			if err != nil {
				t.Fatalf("ResolveInputs: %v", err)
			}
			if !reflect.DeepEqual(got, c.want) {
				t.Errorf("paths = %v, want %v", got, c.want)
			}
		})
	}
}

func TestResolveInputsBadManifest(t *testing.T) {
	manifest := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(manifest, []byte(`{"not":"an array"}`), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := ResolveInputs(manifest); err == nil {
		t.Errorf("ResolveInputs accepted a non-array manifest")
	}
}
