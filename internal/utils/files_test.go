package utils_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/KaramelBytes/samajhai/internal/utils"
)

func TestSafeWriteFileCreatesDirs(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "out.svg")
	if err := utils.SafeWriteFile(path, []byte("<svg/>"), 0o600); err != nil {
		t.Fatalf("SafeWriteFile: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil || string(b) != "<svg/>" {
		t.Fatalf("read back %q, %v", b, err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatalf("temp file left behind")
	}
}

func TestPrettyJSON(t *testing.T) {
	b, err := utils.PrettyJSON(map[string]int{"rows": 3})
	if err != nil || string(b) != "{\n  \"rows\": 3\n}" {
		t.Fatalf("got %q, %v", b, err)
	}
}
