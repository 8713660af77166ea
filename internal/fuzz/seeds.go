package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const maxSeedBytes = 64 << 10

var dartSeeds = []string{
	"",
	"void main() {}\n",
	"import 'package:foo/foo.dart';\nclass my_widget {\n  String name;\n}\n",
	"try {\n  run();\n} catch (e) {}\n",
	"dynamic x = value!;\nprint(x);\n",
	"class A {\n  final int? _count;\n  int get count => _count!;\n}\n",
}

var frameSeeds = []string{
	"",
	"Content-Length: 2\r\n\r\n{}",
	"content-length: 17\r\nContent-Type: application/vscode-jsonrpc\r\n\r\n{\"jsonrpc\":\"2.0\"}",
	"Content-Length: 5\r\n\r\nhello",
	"Content-Length: 10\r\n\r\nabc",
	"Content-Length: -1\r\n\r\n",
	"garbage\n\n",
}

func addDartSeeds(f *testing.F) {
	for _, s := range dartSeeds {
		f.Add([]byte(s))
	}
	addTestdataSeeds(f)
}

func addFrameSeeds(f *testing.F) {
	for _, s := range frameSeeds {
		f.Add([]byte(s))
	}
}

// addTestdataSeeds adds every .dart file under the repository testdata
// directory, if there is one.
func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".dart" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
