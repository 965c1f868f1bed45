package testutil

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"pricepulse/internal/config"
)

// ShellInterpreter runs the shell scripts written by WriteScript
const ShellInterpreter = "sh"

// WriteScript writes a shell script at rel under dir and returns its path
func WriteScript(t *testing.T, dir, rel string, lines ...string) string {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	body := strings.Join(lines, "\n") + "\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0755))
	return path
}

// ScriptCollector returns a collector definition for a script under dir
func ScriptCollector(id, script, sheet string, outputs ...string) config.CollectorSpec {
	return config.CollectorSpec{
		ID:      id,
		Name:    id + " collector",
		Kind:    config.CollectorKindScript,
		Script:  script,
		Outputs: outputs,
		Sheet:   sheet,
	}
}

// Collector aliases the collector definition type for test tables
type Collector = config.CollectorSpec
