package blockmodel

import (
	"os"
	"strings"
	"testing"
	"testing/fstest"
)

func TestLoadSimpleDefinition(t *testing.T) {
	loader := NewLoader("assets-test")
	def, err := loader.Load("test_cube")
	if err != nil {
		t.Fatalf("Failed to load definition: %v", err)
	}

	if def.Shape != "cube" {
		t.Errorf("Expected shape 'cube', got '%s'", def.Shape)
	}

	if def.Faces["all"] != "stone" {
		t.Errorf("Expected face 'all' to resolve to 'stone', got '%s'", def.Faces["all"])
	}
}

func TestLoadChildDefinition(t *testing.T) {
	loader := NewLoader("assets-test")
	def, err := loader.Load("test_child")
	if err != nil {
		t.Fatalf("Failed to load definition: %v", err)
	}

	if def.Shape != "cube" {
		t.Errorf("Expected shape to be inherited as 'cube', got '%s'", def.Shape)
	}
	if def.Transparent == nil || !*def.Transparent {
		t.Errorf("Expected child to override transparency")
	}
	if def.Collider == nil || !*def.Collider {
		t.Errorf("Expected collider to be inherited")
	}

	faces := def.FaceTextures()
	if faces["top"] != "glass_top" {
		t.Errorf("Expected top face 'glass_top', got '%s'", faces["top"])
	}
	if faces["left"] != "glass" {
		t.Errorf("Expected left face to resolve through the parent's #all to 'glass', got '%s'", faces["left"])
	}
}

func TestTextureResolve(t *testing.T) {
	loader := NewLoader("assets-test")
	def, err := loader.Load("test_texture_resolve")
	if err != nil {
		t.Fatalf("Failed to load definition: %v", err)
	}

	if got := def.Faces["north"]; got != "diamond_block" {
		t.Errorf("Expected texture to be resolved to 'diamond_block', got '%s'", got)
	}
	if got := def.Faces["south"]; got != "#nowhere" {
		t.Errorf("Expected unresolvable reference to be kept, got '%s'", got)
	}
}

func TestCache(t *testing.T) {
	loader := NewLoader("assets-test")
	if _, err := loader.Load("test_cube"); err != nil {
		t.Fatalf("Failed to load definition first time: %v", err)
	}
	if _, ok := loader.cache["test_cube"]; !ok {
		t.Fatalf("Expected definition to be cached")
	}

	def1, _ := loader.Load("test_cube")
	def1.Faces["all"] = "changed"
	def2, _ := loader.Load("test_cube")
	if def2.Faces["all"] != "stone" {
		t.Errorf("Caller mutation leaked into the cache: got '%s'", def2.Faces["all"])
	}
}

func TestParentCycle(t *testing.T) {
	fsys := fstest.MapFS{
		"blocks/a.json": {Data: []byte(`{"parent": "b"}`)},
		"blocks/b.json": {Data: []byte(`{"parent": "a"}`)},
	}
	_, err := NewFSLoader(fsys, ".").Load("a")
	if err == nil || !strings.Contains(err.Error(), "inherits from itself") {
		t.Errorf("Expected cycle error, got %v", err)
	}
}

func TestList(t *testing.T) {
	names, err := NewLoader("assets-test").List()
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"test_child", "test_cube", "test_texture_resolve"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Errorf("Expected %v, got %v", want, names)
	}
}

func TestFaceTexturesPrecedence(t *testing.T) {
	d := &Definition{Faces: map[string]string{"all": "a", "side": "s", "left": "l"}}
	faces := d.FaceTextures()
	want := map[string]string{"top": "a", "bottom": "a", "front": "s", "back": "s", "right": "s", "left": "l"}
	for k, v := range want {
		if faces[k] != v {
			t.Errorf("face %s: expected %s, got %s", k, v, faces[k])
		}
	}
}

func TestMain(m *testing.M) {
	// Create dummy files for testing
	os.MkdirAll("assets-test/blocks", 0755)

	writeTestFile("assets-test/blocks/test_cube.json", `{
		"shape": "cube",
		"collider": true,
		"textures": { "all": "stone" },
		"faces": { "all": "#all" }
	}`)

	writeTestFile("assets-test/blocks/test_child.json", `{
		"parent": "test_cube",
		"transparent": true,
		"textures": { "all": "glass", "top": "glass_top" },
		"faces": { "top": "#top" }
	}`)

	writeTestFile("assets-test/blocks/test_texture_resolve.json", `{
		"textures": { "primary": "diamond_block", "secondary": "#primary" },
		"faces": { "north": "#secondary", "south": "#nowhere" }
	}`)

	exitCode := m.Run()
	os.RemoveAll("assets-test")
	os.Exit(exitCode)
}

func writeTestFile(path, content string) {
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		panic(err)
	}
}
