package language

import (
	tree_sitter_zig "github.com/tree-sitter-grammars/tree-sitter-zig/bindings/go"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_csharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

func kindSet(kinds ...string) map[string]bool {
	set := make(map[string]bool, len(kinds))
	for _, k := range kinds {
		set[k] = true
	}
	return set
}

func setupRust() *Adapter {
	return &Adapter{
		Name: "rust",
		lang: tree_sitter.NewLanguage(tree_sitter_rust.Language()),
		acceptable: kindSet(
			"function_item", "impl_item", "struct_item", "enum_item",
			"trait_item", "mod_item", "macro_definition",
		),
		isTestBlock: rustIsTestBlock,
		fileIsTest:  rustFileIsTest,
	}
}

func setupJavaScript() *Adapter {
	return &Adapter{
		Name: "javascript",
		lang: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
		acceptable: kindSet(
			"function_declaration", "generator_function_declaration",
			"method_definition", "class_declaration",
		),
		acceptableNode: jsAcceptableNode,
		isTestBlock:    jsIsTestBlock,
		fileIsTest:     jsFileIsTest,
	}
}

func setupTypeScript() *Adapter {
	return &Adapter{
		Name: "typescript",
		lang: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTypescript()),
		acceptable: kindSet(
			"function_declaration", "generator_function_declaration",
			"method_definition", "class_declaration", "interface_declaration",
		),
		acceptableNode: jsAcceptableNode,
		isTestBlock:    jsIsTestBlock,
		fileIsTest:     jsFileIsTest,
	}
}

// .tsx needs the grammar's TSX dialect; the plain TypeScript grammar
// only error-recovers through JSX.
func setupTSX() *Adapter {
	a := setupTypeScript()
	a.lang = tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX())
	return a
}

func setupPython() *Adapter {
	return &Adapter{
		Name: "python",
		lang: tree_sitter.NewLanguage(tree_sitter_python.Language()),
		acceptable: kindSet(
			"function_definition", "class_definition", "decorated_definition",
		),
		isTestBlock: pythonIsTestBlock,
		fileIsTest:  pythonFileIsTest,
	}
}

func setupGo() *Adapter {
	return &Adapter{
		Name: "go",
		lang: tree_sitter.NewLanguage(tree_sitter_go.Language()),
		acceptable: kindSet(
			"function_declaration", "method_declaration", "type_declaration",
		),
		isTestBlock: goIsTestBlock,
		fileIsTest:  goFileIsTest,
	}
}

// C and C++ share the cpp grammar; it is a superset of C.
func setupC() *Adapter {
	a := setupCpp()
	a.Name = "c"
	return a
}

func setupCpp() *Adapter {
	return &Adapter{
		Name: "cpp",
		lang: tree_sitter.NewLanguage(tree_sitter_cpp.Language()),
		acceptable: kindSet(
			"function_definition", "struct_specifier", "class_specifier",
			"enum_specifier", "namespace_definition",
		),
		isTestBlock: cppIsTestBlock,
		fileIsTest:  cppFileIsTest,
	}
}

func setupJava() *Adapter {
	return &Adapter{
		Name: "java",
		lang: tree_sitter.NewLanguage(tree_sitter_java.Language()),
		acceptable: kindSet(
			"class_declaration", "method_declaration", "interface_declaration",
			"constructor_declaration", "enum_declaration",
		),
		isTestBlock: javaIsTestBlock,
		fileIsTest:  javaFileIsTest,
	}
}

func setupRuby() *Adapter {
	return &Adapter{
		Name: "ruby",
		lang: tree_sitter.NewLanguage(tree_sitter_ruby.Language()),
		acceptable: kindSet(
			"method", "class", "module", "singleton_method",
		),
		isTestBlock: rubyIsTestBlock,
		fileIsTest:  rubyFileIsTest,
	}
}

func setupPHP() *Adapter {
	return &Adapter{
		Name: "php",
		lang: tree_sitter.NewLanguage(tree_sitter_php.LanguagePHP()),
		acceptable: kindSet(
			"function_definition", "method_declaration", "class_declaration",
			"trait_declaration", "interface_declaration",
		),
		isTestBlock: phpIsTestBlock,
		fileIsTest:  phpFileIsTest,
	}
}

func setupCSharp() *Adapter {
	return &Adapter{
		Name: "csharp",
		lang: tree_sitter.NewLanguage(tree_sitter_csharp.Language()),
		acceptable: kindSet(
			"method_declaration", "constructor_declaration", "class_declaration",
			"interface_declaration", "struct_declaration", "record_declaration",
			"enum_declaration", "namespace_declaration",
		),
		isTestBlock: csharpIsTestBlock,
		fileIsTest:  csharpFileIsTest,
	}
}

func setupZig() *Adapter {
	return &Adapter{
		Name: "zig",
		lang: tree_sitter.NewLanguage(tree_sitter_zig.Language()),
		acceptable: kindSet(
			"function_declaration", "test_declaration", "variable_declaration",
		),
		isTestBlock: zigIsTestBlock,
		fileIsTest:  zigFileIsTest,
	}
}

func setupMarkdown() *Adapter {
	// Markdown sections are heading-delimited, not AST-shaped; extraction
	// is line-oriented (see extract package). No grammar needed.
	return &Adapter{Name: "markdown"}
}
