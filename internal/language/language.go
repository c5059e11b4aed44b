// Package language holds the fixed table of languages the lab can run.
//
// Adding a language means adding a Descriptor to the table below; every
// other package looks languages up here instead of keeping its own list.
package language

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupported is returned for language identifiers missing from the table
var ErrUnsupported = errors.New("unsupported language")

// ID identifies a supported language (e.g., "python", "cpp")
type ID string

const (
	C          ID = "c"
	Cpp        ID = "cpp"
	Java       ID = "java"
	CSharp     ID = "csharp"
	Go         ID = "go"
	Python     ID = "python"
	JavaScript ID = "javascript"
	PHP        ID = "php"
	Ruby       ID = "ruby"
	TypeScript ID = "typescript"
)

// Descriptor describes one language for the remote APIs and the editor
type Descriptor struct {
	// ID is the identifier sent to the remote APIs
	ID ID `json:"id"`

	// Name is the display name shown in the editor
	Name string `json:"name"`

	// Version is the runtime version requested from the fallback API
	Version string `json:"version"`

	// Extension is used to name the uploaded source file (main.<ext>)
	Extension string `json:"extension"`

	// Mode is the CodeMirror syntax mode id
	Mode string `json:"mode"`

	// Example is the starter program loaded into a fresh editor
	Example string `json:"example"`

	// Template is the canned output of the simulated executor
	Template string `json:"-"`
}

var descriptors = map[ID]Descriptor{
	C: {
		ID: C, Name: "C", Version: "10.2.0", Extension: "c", Mode: "text/x-csrc",
		Example:  "#include <stdio.h>\n\nint main() {\n    printf(\"Hello, World!\\n\");\n    return 0;\n}\n",
		Template: "Compiled C program successfully.\nOutput:\nHello, World!\n\nExecution time: 0.002s\nMemory used: 1.2MB",
	},
	Cpp: {
		ID: Cpp, Name: "C++", Version: "10.2.0", Extension: "cpp", Mode: "text/x-c++src",
		Example:  "#include <iostream>\n\nint main() {\n    std::cout << \"Hello, C++ World!\" << std::endl;\n    return 0;\n}\n",
		Template: "Compiled C++ program successfully.\nOutput:\nHello, C++ World!\n\nExecution time: 0.003s\nMemory used: 1.5MB",
	},
	Java: {
		ID: Java, Name: "Java", Version: "15.0.2", Extension: "java", Mode: "text/x-java",
		Example:  "public class Main {\n    public static void main(String[] args) {\n        System.out.println(\"Hello from Java!\");\n    }\n}\n",
		Template: "Compiled Java program successfully.\nOutput:\nHello from Java!\n\nExecution time: 0.5s\nMemory used: 50MB",
	},
	CSharp: {
		ID: CSharp, Name: "C#", Version: "5.0.201", Extension: "cs", Mode: "text/x-csharp",
		Example:  "using System;\n\nclass Program {\n    static void Main() {\n        Console.WriteLine(\"Hello, C#!\");\n    }\n}\n",
		Template: "Compiled C# program successfully.\nOutput:\nHello, C#!\n\nExecution time: 0.2s\nMemory used: 20MB",
	},
	Go: {
		ID: Go, Name: "Go", Version: "1.16.2", Extension: "go", Mode: "text/x-go",
		Example:  "package main\n\nimport \"fmt\"\n\nfunc main() {\n\tfmt.Println(\"Hello, Go!\")\n}\n",
		Template: "Compiled Go program successfully.\nOutput:\nHello, Go!\n\nExecution time: 0.1s\nMemory used: 2MB",
	},
	Python: {
		ID: Python, Name: "Python", Version: "3.10.0", Extension: "py", Mode: "text/x-python",
		Example:  "print(\"Hello, Python!\")\n",
		Template: "Python execution completed.\nOutput:\nHello, Python!\n\nExecution time: 0.05s\nMemory used: 5MB",
	},
	JavaScript: {
		ID: JavaScript, Name: "JavaScript", Version: "18.15.0", Extension: "js", Mode: "text/javascript",
		Example:  "console.log(\"Hello, JavaScript!\");\n",
		Template: "JavaScript execution completed.\nOutput:\nHello, JavaScript!\n\nExecution time: 0.01s\nMemory used: 3MB",
	},
	PHP: {
		ID: PHP, Name: "PHP", Version: "8.2.3", Extension: "php", Mode: "application/x-httpd-php",
		Example:  "<?php\necho \"Hello, PHP!\\n\";\n",
		Template: "PHP execution completed.\nOutput:\nHello, PHP!\n\nExecution time: 0.02s\nMemory used: 4MB",
	},
	Ruby: {
		ID: Ruby, Name: "Ruby", Version: "3.0.1", Extension: "rb", Mode: "text/x-ruby",
		Example:  "puts \"Hello, Ruby!\"\n",
		Template: "Ruby execution completed.\nOutput:\nHello, Ruby!\n\nExecution time: 0.03s\nMemory used: 6MB",
	},
	TypeScript: {
		ID: TypeScript, Name: "TypeScript", Version: "5.0.3", Extension: "ts", Mode: "application/typescript",
		Example:  "const greeting: string = \"Hello, TypeScript!\";\nconsole.log(greeting);\n",
		Template: "TypeScript compiled and executed.\nOutput:\nHello, TypeScript!\n\nExecution time: 0.02s\nMemory used: 3MB",
	},
}

var aliases = map[string]ID{
	"c++":     Cpp,
	"cc":      Cpp,
	"cs":      CSharp,
	"c#":      CSharp,
	"golang":  Go,
	"py":      Python,
	"python3": Python,
	"js":      JavaScript,
	"node":    JavaScript,
	"nodejs":  JavaScript,
	"rb":      Ruby,
	"ts":      TypeScript,
}

// Lookup returns the descriptor for a language id
func Lookup(id ID) (Descriptor, error) {
	if d, ok := descriptors[id]; ok {
		return d, nil
	}

	return Descriptor{}, fmt.Errorf("%w: %q", ErrUnsupported, id)
}

// IsSupported returns true if the id is in the table
func IsSupported(id ID) bool {
	_, ok := descriptors[id]
	return ok
}

// All returns every descriptor, sorted by id
func All() []Descriptor {
	all := make([]Descriptor, 0, len(descriptors))
	for _, d := range descriptors {
		all = append(all, d)
	}

	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	return all
}

// IDs returns every supported id, sorted
func IDs() []ID {
	ids := make([]ID, 0, len(descriptors))
	for _, d := range All() {
		ids = append(ids, d.ID)
	}

	return ids
}

// Extension returns the source file extension for a language, or "txt" if unknown
func Extension(id ID) string {
	if d, ok := descriptors[id]; ok {
		return d.Extension
	}

	return "txt"
}

// Normalize maps user-facing names and aliases onto a table id.
// Unknown names are returned lower-cased so that Lookup reports them.
func Normalize(name string) ID {
	name = strings.ToLower(strings.TrimSpace(name))
	if id, ok := aliases[name]; ok {
		return id
	}

	return ID(name)
}

// FromFilename detects the language of a source file from its extension
func FromFilename(path string) (ID, error) {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no file extension", ErrUnsupported, filepath.Base(path))
	}

	for _, d := range descriptors {
		if d.Extension == ext {
			return d.ID, nil
		}
	}

	if id, ok := aliases[ext]; ok {
		return id, nil
	}

	return "", fmt.Errorf("%w: no language for .%s files", ErrUnsupported, ext)
}
