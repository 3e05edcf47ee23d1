package blockmodel

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSharedParentMutation(t *testing.T) {
	// Two children resolve the same "#all" variable of one parent to
	// different textures. Resolving the first must not bake its texture into
	// the cached parent.
	dir := "assets-test-sharing/blocks"
	os.MkdirAll(dir, 0755)
	defer os.RemoveAll("assets-test-sharing")

	writeFile(filepath.Join(dir, "parent.json"), `{
		"abstract": true,
		"textures": { "dummy": "ignore" },
		"faces": { "top": "#all" }
	}`)

	writeFile(filepath.Join(dir, "child1.json"), `{
		"parent": "parent",
		"textures": { "all": "skin1" }
	}`)

	writeFile(filepath.Join(dir, "child2.json"), `{
		"parent": "parent",
		"textures": { "all": "skin2" }
	}`)

	loader := NewLoader("assets-test-sharing")

	c1, err := loader.Load("child1")
	if err != nil {
		t.Fatalf("Failed to load child1: %v", err)
	}
	if c1.Faces["top"] != "skin1" {
		t.Errorf("Child1 should have skin1, got %s", c1.Faces["top"])
	}

	c2, err := loader.Load("child2")
	if err != nil {
		t.Fatalf("Failed to load child2: %v", err)
	}
	if c2.Faces["top"] != "skin2" {
		t.Errorf("Child2 should have skin2, got %s. Likely parent pollution.", c2.Faces["top"])
	}

	parent, _ := loader.Load("parent")
	if parent.Faces["top"] != "#all" {
		t.Errorf("Parent definition in cache was mutated! Got %s", parent.Faces["top"])
	}
	if c1.Abstract {
		t.Errorf("abstract flag should not be inherited")
	}
}

func writeFile(path, content string) {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		panic(err)
	}
}
