package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"go.viam.com/test"
)

func newBufferLogger(name string) (Logger, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	logger := NewBlankLogger(name)
	logger.AddAppender(NewWriterAppender(buf))
	return logger, buf
}

func splitLine(t *testing.T, buf *bytes.Buffer) []string {
	t.Helper()
	line, err := buf.ReadString('\n')
	test.That(t, err, test.ShouldBeNil)
	return strings.Split(strings.TrimSuffix(line, "\n"), "\t")
}

func TestConsoleOutput(t *testing.T) {
	logger, buf := newBufferLogger("board")

	logger.Info("channel ", 7, " written")
	parts := splitLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, len(parts[0]), test.ShouldEqual, len("2006-01-02T15:04:05.000Z"))
	test.That(t, parts[1], test.ShouldEqual, "INFO")
	test.That(t, parts[2], test.ShouldEqual, "board")
	test.That(t, parts[3], test.ShouldStartWith, "logging/impl_test.go:")
	test.That(t, parts[4], test.ShouldEqual, "channel 7 written")

	logger.Warnf("speed %d clamped to %d", 300, 255)
	parts = splitLine(t, buf)
	test.That(t, parts[1], test.ShouldEqual, "WARN")
	test.That(t, parts[4], test.ShouldEqual, "speed 300 clamped to 255")
}

func TestStructuredFields(t *testing.T) {
	logger, buf := newBufferLogger("")

	logger.Infow("channel write", "channel", 3, "off", 1606)
	parts := splitLine(t, buf)
	test.That(t, parts, test.ShouldHaveLength, 5)
	test.That(t, parts[3], test.ShouldEqual, "channel write")

	fields := make(map[string]any)
	test.That(t, json.Unmarshal([]byte(parts[4]), &fields), test.ShouldBeNil)
	test.That(t, fields["channel"], test.ShouldEqual, 3.0)
	test.That(t, fields["off"], test.ShouldEqual, 1606.0)

	logger.Infow("unpaired", "dangling")
	parts = splitLine(t, buf)
	test.That(t, parts[4], test.ShouldContainSubstring, "unpaired log key")
}

func TestLevels(t *testing.T) {
	logger, buf := newBufferLogger("lvl")
	logger.SetLevel(WARN)

	logger.Debug("hidden")
	logger.Info("hidden")
	test.That(t, buf.Len(), test.ShouldEqual, 0)

	logger.Warn("shown")
	test.That(t, splitLine(t, buf)[4], test.ShouldEqual, "shown")

	// Context scoped debug mode bypasses the level.
	logger.CDebugf(EnableDebugMode(context.Background(), ""), "traced %d", 1)
	test.That(t, splitLine(t, buf)[4], test.ShouldEqual, "traced 1")
}

func TestSublogger(t *testing.T) {
	logger, buf := newBufferLogger("mecadrive")
	sub := logger.Sublogger("pca9685")
	sub.Info("ready")
	test.That(t, splitLine(t, buf)[2], test.ShouldEqual, "mecadrive.pca9685")
}

func TestLevelFromString(t *testing.T) {
	for input, expected := range map[string]Level{
		"debug":   DEBUG,
		"Info":    INFO,
		"warning": WARN,
		"ERROR":   ERROR,
	} {
		level, err := LevelFromString(input)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, level, test.ShouldEqual, expected)
	}

	_, err := LevelFromString("loud")
	test.That(t, err, test.ShouldNotBeNil)

	var level Level
	test.That(t, json.Unmarshal([]byte(`"warn"`), &level), test.ShouldBeNil)
	test.That(t, level, test.ShouldEqual, WARN)
}

func TestObservedTestLogger(t *testing.T) {
	logger, observed := NewObservedTestLogger(t)
	logger.Warnw("brake level clamped", "level", 4095)

	entries := observed.All()
	test.That(t, entries, test.ShouldHaveLength, 1)
	test.That(t, entries[0].Message, test.ShouldEqual, "brake level clamped")
	test.That(t, entries[0].ContextMap()["level"], test.ShouldEqual, int64(4095))
	test.That(t, logger.Sync(), test.ShouldBeNil)
}
