package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/starford/arbor/internal/graph"
	"github.com/starford/arbor/internal/testutil"
)

func testConfig(t *testing.T, files map[string]string) *Config {
	t.Helper()
	vault := t.TempDir()
	testutil.WriteNotes(t, vault, files)
	cfg := NewDefaultConfig()
	cfg.Vault.Path = vault
	cfg.SQLite.Path = filepath.Join(t.TempDir(), "index.db")
	return cfg
}

func TestLayout_WritesPositionedGraph(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"home.md":       "# Home\n",
		"home/child.md": "---\nparent: \"[[home]]\"\n---\n# Child\n",
	})

	var buf bytes.Buffer
	if err := Layout(context.Background(), &buf, WithConfig(cfg)); err != nil {
		t.Fatalf("Layout: %v", err)
	}
	var g graph.Graph
	if err := json.Unmarshal(buf.Bytes(), &g); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(g.Nodes) != 2 || len(g.Roots) != 1 || g.Roots[0] != "home" {
		t.Errorf("graph = %d nodes, roots %v", len(g.Nodes), g.Roots)
	}
	if g.Width == 0 || g.Height == 0 {
		t.Errorf("canvas %vx%v should be sized", g.Width, g.Height)
	}
}

func TestValidate_ReportsIssues(t *testing.T) {
	cfg := testConfig(t, map[string]string{
		"ok.md":    "# Ok\n",
		"stray.md": "---\nparent: \"[[nowhere]]\"\n---\n# Stray\n",
	})

	var buf bytes.Buffer
	err := Validate(context.Background(), &buf, WithConfig(cfg))
	if !errors.Is(err, ErrHierarchyIssues) {
		t.Fatalf("err = %v, want ErrHierarchyIssues", err)
	}
	if !strings.HasPrefix(buf.String(), "stray\tdangling_parent\t") {
		t.Errorf("output = %q", buf.String())
	}
}

func TestValidate_Consistent(t *testing.T) {
	cfg := testConfig(t, map[string]string{"ok.md": "# Ok\n"})

	var buf bytes.Buffer
	if err := Validate(context.Background(), &buf, WithConfig(cfg)); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if buf.Len() != 0 {
		t.Errorf("output = %q, want none", buf.String())
	}
}

func TestRequiresConfig(t *testing.T) {
	if err := Layout(context.Background(), &bytes.Buffer{}); !errors.Is(err, errConfigRequired) {
		t.Errorf("err = %v", err)
	}
}
