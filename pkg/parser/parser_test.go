package parser

import (
	"testing"
)

func TestDetectLanguage(t *testing.T) {
	tests := []struct {
		path string
		want Language
	}{
		{"main.go", LangGo},
		{"lib.rs", LangRust},
		{"script.py", LangPython},
		{"app.ts", LangTypeScript},
		{"component.tsx", LangTSX},
		{"alu.v", LangC},
		{"design.sv", LangC},
		{"Main.java", LangJava},
		{"README.md", LangUnknown},
		{"noext", LangUnknown},
	}

	for _, tt := range tests {
		if got := DetectLanguage(tt.path); got != tt.want {
			t.Errorf("DetectLanguage(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestParseGo(t *testing.T) {
	p := New()
	defer p.Close()

	source := []byte("package main\n\nfunc main() {\n\tx := 1\n\t_ = x\n}\n")
	result, err := p.Parse(source, LangGo, "main.go")
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if result.Tree == nil {
		t.Fatal("Parse() returned nil tree")
	}
	root := result.Tree.RootNode()
	if root.Type() != "source_file" {
		t.Errorf("root type = %q, want source_file", root.Type())
	}
	if root.ChildCount() == 0 {
		t.Error("root has no children")
	}
}

func TestParseUnsupportedLanguage(t *testing.T) {
	p := New()
	defer p.Close()

	if _, err := p.Parse([]byte("hello"), LangUnknown, "x.txt"); err == nil {
		t.Error("expected error for unsupported language")
	}
}
