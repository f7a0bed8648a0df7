package language

import (
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// --- JavaScript / TypeScript ---

// jsAcceptableNode extends the kind set with structural rules:
// a variable declaration binding an arrow function (or function
// expression), and an export statement wrapping an acceptable
// declaration.
func jsAcceptableNode(node *tree_sitter.Node, source []byte) bool {
	switch node.Kind() {
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child.Kind() != "variable_declarator" {
				continue
			}
			value := child.ChildByFieldName("value")
			if value == nil {
				continue
			}
			switch value.Kind() {
			case "arrow_function", "function_expression", "generator_function":
				return true
			}
		}
	case "export_statement":
		decl := node.ChildByFieldName("declaration")
		if decl == nil {
			return false
		}
		switch decl.Kind() {
		case "function_declaration", "generator_function_declaration",
			"method_definition", "class_declaration", "interface_declaration":
			return true
		case "lexical_declaration", "variable_declaration":
			return jsAcceptableNode(decl, source)
		}
	}
	return false
}

var jsTestCallees = map[string]bool{
	"describe": true, "it": true, "test": true,
	"beforeEach": true, "afterEach": true, "beforeAll": true, "afterAll": true,
}

func jsIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	name := blockName(node, source)
	if strings.HasPrefix(strings.ToLower(name), "test") {
		return true
	}
	// Enclosing describe/it/test call.
	for cur := node; cur != nil; cur = cur.Parent() {
		if cur.Kind() != "call_expression" {
			continue
		}
		callee := fieldText(cur, "function", source)
		if dot := strings.Index(callee, "."); dot >= 0 {
			callee = callee[:dot]
		}
		if jsTestCallees[callee] {
			return true
		}
	}
	return false
}

func jsFileIsTest(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	if strings.Contains(base, ".test.") || strings.Contains(base, ".spec.") {
		return true
	}
	return pathHasComponent(path, "__tests__")
}

// --- Rust ---

func rustIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	// mod tests { ... } and anything nested inside it.
	for cur := node; cur != nil; cur = cur.Parent() {
		if cur.Kind() == "mod_item" && fieldText(cur, "name", source) == "tests" {
			return true
		}
	}
	// #[test], #[cfg(test)], #[tokio::test] attribute siblings.
	for prev := node.PrevNamedSibling(); prev != nil; prev = prev.PrevNamedSibling() {
		switch prev.Kind() {
		case "attribute_item":
			text := nodeText(prev, source)
			if strings.Contains(text, "test") {
				return true
			}
		case "line_comment", "block_comment":
			// Keep scanning past doc comments.
		default:
			return false
		}
	}
	return false
}

func rustFileIsTest(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "_test.rs") ||
		strings.HasPrefix(base, "test_") ||
		pathHasComponent(path, "tests")
}

// --- Python ---

func pythonIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	name := blockName(node, source)
	return strings.HasPrefix(name, "test_") || strings.HasPrefix(name, "Test")
}

func pythonFileIsTest(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, "test_") && strings.HasSuffix(base, ".py") ||
		strings.HasSuffix(base, "_test.py")
}

// --- Go ---

func goIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	if node.Kind() != "function_declaration" {
		return false
	}
	name := fieldText(node, "name", source)
	return strings.HasPrefix(name, "Test") ||
		strings.HasPrefix(name, "Benchmark") ||
		strings.HasPrefix(name, "Fuzz")
}

func goFileIsTest(path string) bool {
	return strings.HasSuffix(path, "_test.go")
}

// --- C / C++ ---

var cppTestMacros = []string{"TEST(", "TEST_F(", "TEST_P(", "TYPED_TEST(", "BENCHMARK("}

func cppIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	if node.Kind() != "function_definition" {
		return false
	}
	decl := fieldText(node, "declarator", source)
	for _, macro := range cppTestMacros {
		if strings.HasPrefix(decl, macro) {
			return true
		}
	}
	return strings.HasPrefix(strings.ToLower(decl), "test_")
}

func cppFileIsTest(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.HasPrefix(stem, "test_") || strings.HasSuffix(stem, "_test")
}

// --- Java ---

func javaIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	switch node.Kind() {
	case "method_declaration", "class_declaration":
		if modifiers := namedChildOfKind(node, "modifiers"); modifiers != nil {
			text := nodeText(modifiers, source)
			if strings.Contains(text, "@Test") || strings.Contains(text, "@ParameterizedTest") {
				return true
			}
		}
	}
	if node.Kind() == "class_declaration" {
		name := fieldText(node, "name", source)
		return strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests")
	}
	return false
}

func javaFileIsTest(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "Test.java") || strings.HasSuffix(base, "Tests.java")
}

// --- Ruby ---

func rubyIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	name := blockName(node, source)
	switch node.Kind() {
	case "method", "singleton_method":
		return strings.HasPrefix(name, "test_")
	case "class", "module":
		return strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Spec")
	}
	return false
}

func rubyFileIsTest(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "_test.rb") ||
		strings.HasSuffix(base, "_spec.rb") ||
		pathHasComponent(path, "spec")
}

// --- PHP ---

func phpIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	name := blockName(node, source)
	switch node.Kind() {
	case "function_definition", "method_declaration":
		return strings.HasPrefix(name, "test")
	case "class_declaration":
		return strings.HasSuffix(name, "Test")
	}
	return false
}

func phpFileIsTest(path string) bool {
	return strings.HasSuffix(filepath.Base(path), "Test.php")
}

// --- C# ---

func csharpIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "attribute_list" {
			continue
		}
		text := nodeText(child, source)
		if strings.Contains(text, "Test") || strings.Contains(text, "Fact") ||
			strings.Contains(text, "Theory") {
			return true
		}
	}
	if node.Kind() == "class_declaration" {
		name := fieldText(node, "name", source)
		return strings.HasSuffix(name, "Test") || strings.HasSuffix(name, "Tests")
	}
	return false
}

func csharpFileIsTest(path string) bool {
	base := filepath.Base(path)
	return strings.HasSuffix(base, "Test.cs") || strings.HasSuffix(base, "Tests.cs")
}

// --- Zig ---

func zigIsTestBlock(node *tree_sitter.Node, source []byte) bool {
	return node.Kind() == "test_declaration"
}

func zigFileIsTest(path string) bool {
	base := strings.ToLower(filepath.Base(path))
	return strings.Contains(base, "test")
}

// --- shared helpers ---

// blockName extracts the declared name of a definition node, looking
// through decoration wrappers.
func blockName(node *tree_sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if node.Kind() == "decorated_definition" {
		if def := node.ChildByFieldName("definition"); def != nil {
			node = def
		}
	}
	if name := fieldText(node, "name", source); name != "" {
		return name
	}
	// Arrow functions bound to a declarator take the declarator's name.
	switch node.Kind() {
	case "lexical_declaration", "variable_declaration":
		for i := uint(0); i < node.NamedChildCount(); i++ {
			child := node.NamedChild(i)
			if child.Kind() == "variable_declarator" {
				return fieldText(child, "name", source)
			}
		}
	case "export_statement":
		if decl := node.ChildByFieldName("declaration"); decl != nil {
			return blockName(decl, source)
		}
	}
	return ""
}

func namedChildOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if child := node.NamedChild(i); child.Kind() == kind {
			return child
		}
	}
	return nil
}

func pathHasComponent(path, component string) bool {
	for _, part := range strings.Split(filepath.ToSlash(path), "/") {
		if part == component {
			return true
		}
	}
	return false
}
