package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

func TestFileIsTest(t *testing.T) {
	tests := []struct {
		path string
		want bool
	}{
		{"pkg/server_test.go", true},
		{"pkg/server.go", false},
		{"src/lib_test.rs", true},
		{"tests/integration.rs", true},
		{"src/lib.rs", false},
		{"app/util.test.js", true},
		{"app/util.spec.ts", true},
		{"app/__tests__/util.js", true},
		{"app/util.js", false},
		{"test_models.py", true},
		{"models_test.py", true},
		{"models.py", false},
		{"src/FooTest.java", true},
		{"src/Foo.java", false},
		{"lib/foo_spec.rb", true},
		{"spec/foo.rb", true},
		{"lib/foo.rb", false},
		{"src/FooTest.php", true},
		{"src/Foo.php", false},
		{"src/foo_test.cpp", true},
		{"src/foo.cpp", false},
		{"src/FooTests.cs", true},
		{"src/Foo.cs", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			adapter := ForPath(tt.path)
			require.NotNil(t, adapter, "adapter for %s", tt.path)
			assert.Equal(t, tt.want, adapter.FileIsTest(tt.path))
		})
	}
}

// findNodeOfKind walks the tree depth-first for the first node of kind.
func findNodeOfKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	if node == nil {
		return nil
	}
	if node.Kind() == kind {
		return node
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		if found := findNodeOfKind(node.NamedChild(i), kind); found != nil {
			return found
		}
	}
	return nil
}

func parseAndFind(t *testing.T, ext, source, kind string) (*Adapter, *tree_sitter.Node, func()) {
	t.Helper()
	adapter := ForExtension(ext)
	require.NotNil(t, adapter)
	tree := adapter.Parse([]byte(source))
	require.NotNil(t, tree)
	node := findNodeOfKind(tree.RootNode(), kind)
	require.NotNil(t, node, "no %s node in source", kind)
	return adapter, node, func() { tree.Close() }
}

func TestGoTestFunctionDetection(t *testing.T) {
	source := "package p\n\nfunc TestThing(t *testing.T) {}\n\nfunc Process() {}\n"
	adapter, node, done := parseAndFind(t, ".go", source, "function_declaration")
	defer done()

	// First function is TestThing.
	assert.True(t, adapter.IsTestBlock(node, []byte(source)))

	next := node.NextNamedSibling()
	require.NotNil(t, next)
	assert.False(t, adapter.IsTestBlock(next, []byte(source)))
}

func TestRustTestAttributeDetection(t *testing.T) {
	source := "#[test]\nfn it_works() {}\n\nfn helper() {}\n"
	adapter, node, done := parseAndFind(t, ".rs", source, "function_item")
	defer done()

	assert.True(t, adapter.IsTestBlock(node, []byte(source)), "#[test] attribute marks the function")

	next := node.NextNamedSibling()
	require.NotNil(t, next)
	assert.Equal(t, "function_item", next.Kind())
	assert.False(t, adapter.IsTestBlock(next, []byte(source)))
}

func TestRustModTestsDetection(t *testing.T) {
	source := "mod tests {\n    fn case() {}\n}\n"
	adapter, node, done := parseAndFind(t, ".rs", source, "function_item")
	defer done()

	assert.True(t, adapter.IsTestBlock(node, []byte(source)), "anything inside mod tests is test code")
}

func TestPythonTestNameDetection(t *testing.T) {
	source := "def test_x():\n    pass\n\ndef helper():\n    return 1\n"
	adapter, node, done := parseAndFind(t, ".py", source, "function_definition")
	defer done()

	assert.True(t, adapter.IsTestBlock(node, []byte(source)))

	next := node.NextNamedSibling()
	require.NotNil(t, next)
	assert.False(t, adapter.IsTestBlock(next, []byte(source)))
}

func TestJavaScriptDescribeDetection(t *testing.T) {
	source := "describe('suite', () => {\n  function inner() {}\n});\n\nfunction outer() {}\n"
	adapter, node, done := parseAndFind(t, ".js", source, "function_declaration")
	defer done()

	assert.True(t, adapter.IsTestBlock(node, []byte(source)), "functions inside describe() are test code")
}

func TestZigTestDeclaration(t *testing.T) {
	source := "test \"adds\" {\n}\n\nfn add(a: i32) i32 {\n    return a;\n}\n"
	adapter, node, done := parseAndFind(t, ".zig", source, "test_declaration")
	defer done()

	assert.True(t, adapter.IsTestBlock(node, []byte(source)))
}
