package sandbox

import (
	"path/filepath"

	"github.com/dkeye/CodeRoom/internal/domain"
)

// Toolchain names the binaries used per language.
type Toolchain struct {
	Python string `mapstructure:"python"`
	Node   string `mapstructure:"node"`
	Cxx    string `mapstructure:"cxx"`
	Javac  string `mapstructure:"javac"`
	Java   string `mapstructure:"java"`
}

func DefaultToolchain() Toolchain {
	return Toolchain{
		Python: "python3",
		Node:   "node",
		Cxx:    "g++",
		Javac:  "javac",
		Java:   "java",
	}
}

// plan is the source file name and the commands to run in order; the
// last command's stdout is the program output.
type plan struct {
	source string
	steps  [][]string
}

func (tc Toolchain) plan(lang domain.Language, dir string) plan {
	switch lang {
	case domain.LangPython:
		src := filepath.Join(dir, "main.py")
		return plan{source: src, steps: [][]string{{tc.Python, src}}}
	case domain.LangJavaScript:
		src := filepath.Join(dir, "main.js")
		return plan{source: src, steps: [][]string{{tc.Node, src}}}
	case domain.LangCpp:
		src := filepath.Join(dir, "main.cpp")
		bin := filepath.Join(dir, "main")
		return plan{source: src, steps: [][]string{{tc.Cxx, "-o", bin, src}, {bin}}}
	case domain.LangJava:
		// javac insists on Main.java for class Main; the per-request
		// directory keeps concurrent runs apart.
		src := filepath.Join(dir, "Main.java")
		return plan{source: src, steps: [][]string{{tc.Javac, src}, {tc.Java, "-cp", dir, "Main"}}}
	}
	return plan{}
}
