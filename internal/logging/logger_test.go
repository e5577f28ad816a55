package logging

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriterLoggerLevels(t *testing.T) {
	var console, file bytes.Buffer
	l := NewWriterLogger("blockstore", &console, &file, WARN, DEBUG)

	l.Trace("trace %d", 1)
	l.Debug("debug %d", 2)
	l.Warn("warn %d", 3)

	assert.NotContains(t, console.String(), "debug", "DEBUG не должен попадать в консоль")
	assert.Contains(t, console.String(), "[WARN] [blockstore] warn 3")
	assert.Contains(t, file.String(), "[DEBUG] [blockstore] debug 2")
	assert.NotContains(t, file.String(), "trace", "TRACE ниже порога файла")
}

func TestNilLoggerIsSilent(t *testing.T) {
	var l *Logger
	assert.NotPanics(t, func() { l.Error("ничего") })
	assert.NoError(t, l.Close())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{"trace": TRACE, "Debug": DEBUG, "": INFO, "warning": WARN, "ERROR": ERROR}
	for in, want := range cases {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewLoggerWritesFile(t *testing.T) {
	dir := t.TempDir()
	Configure(Options{Dir: dir, ConsoleLevel: ERROR, FileLevel: DEBUG})
	t.Cleanup(func() { Configure(Options{ConsoleLevel: INFO, FileLevel: DEBUG}) })

	l, err := NewLogger("storage")
	require.NoError(t, err)
	l.Info("сохранено %d чанков", 3)
	require.NoError(t, l.Close())

	matches, err := filepath.Glob(filepath.Join(dir, "storage_*.log"))
	require.NoError(t, err)
	require.Len(t, matches, 1)

	data, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(data), "сохранено 3 чанков")
}

func TestManagerCachesAndSetsLevels(t *testing.T) {
	lm := NewRegistry()

	a, err := lm.GetLogger("world")
	require.NoError(t, err)
	b, err := lm.GetLogger("world")
	require.NoError(t, err)
	assert.Same(t, a, b, "логгер компонента должен переиспользоваться")

	lm.SetLogLevel("world", ERROR, ERROR)
	assert.Equal(t, ERROR, a.minConsoleLevel)
	assert.Equal(t, ERROR, a.minFileLevel)

	lm.Register("server", NewWriterLogger("server", &bytes.Buffer{}, nil, INFO, INFO))
	assert.Equal(t, []string{"server", "world"}, lm.ListComponents())
	assert.NoError(t, lm.CloseAll())
	assert.Empty(t, lm.ListComponents())
}

func TestManagerAppliesLevelsBeforeCreation(t *testing.T) {
	lm := NewRegistry()
	lm.SetLogLevel("redis", WARN, ERROR)

	l, err := lm.GetLogger("redis")
	require.NoError(t, err)
	assert.Equal(t, WARN, l.minConsoleLevel)
	assert.Equal(t, ERROR, l.minFileLevel)

	var console bytes.Buffer
	lm.Register("redis", NewWriterLogger("redis", &console, nil, TRACE, TRACE))
	lm.MustGetLogger("redis").Info("скрыто")
	lm.MustGetLogger("redis").Warn("видно")
	assert.NotContains(t, console.String(), "скрыто")
	assert.Contains(t, console.String(), "видно")

	require.NoError(t, lm.CloseAll())
	again, err := lm.GetLogger("redis")
	require.NoError(t, err)
	assert.Equal(t, WARN, again.minConsoleLevel, "переопределение переживает CloseAll")
}

func TestManagerCloseAllJoinsErrors(t *testing.T) {
	dir := t.TempDir()
	f, err := os.Create(filepath.Join(dir, "closed.log"))
	require.NoError(t, err)
	require.NoError(t, f.Close())

	lm := NewRegistry()
	lm.Register("a", &Logger{component: "a", file: f})
	lm.Register("b", &Logger{component: "b", file: f})

	err = lm.CloseAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "close logger a")
	assert.Contains(t, err.Error(), "close logger b")
	assert.Empty(t, lm.ListComponents())
}

func TestHexDump(t *testing.T) {
	assert.Equal(t, "No data", HexDump(nil))
	assert.Contains(t, HexDump([]byte{0xDE, 0xAD}), "de ad")
}
