package log

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewDebugLogger keeps all messages in memory, for use in tests.
func NewDebugLogger() DebugLogger {
	buffer := &lockedBuffer{}
	core := zapcore.NewCore(consoleEncoder(), buffer, DebugLevel)
	return &debugLogger{
		zapLogger: loggerFromZap(zap.New(core)),
		buffer:    buffer,
	}
}

type debugLogger struct {
	*zapLogger
	buffer *lockedBuffer
}

type lockedBuffer struct {
	lock    sync.Mutex
	builder strings.Builder
	mirror  io.Writer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.mirror != nil {
		_, _ = b.mirror.Write(p)
	}
	return b.builder.Write(p)
}

func (b *lockedBuffer) Sync() error {
	return nil
}

func (b *lockedBuffer) String() string {
	b.lock.Lock()
	defer b.lock.Unlock()
	return b.builder.String()
}

func (b *lockedBuffer) Reset() {
	b.lock.Lock()
	defer b.lock.Unlock()
	b.builder.Reset()
}

// ConnectTo mirrors all following messages also to the writer.
func (l *debugLogger) ConnectTo(writer io.Writer) {
	l.buffer.lock.Lock()
	defer l.buffer.lock.Unlock()
	l.buffer.mirror = writer
}

func (l *debugLogger) Truncate() {
	l.buffer.Reset()
}

func (l *debugLogger) AllMessages() string {
	return l.buffer.String()
}

func (l *debugLogger) DebugMessages() string {
	return l.messagesByLevel("DEBUG")
}

func (l *debugLogger) InfoMessages() string {
	return l.messagesByLevel("INFO")
}

func (l *debugLogger) WarnMessages() string {
	return l.messagesByLevel("WARN")
}

func (l *debugLogger) ErrorMessages() string {
	return l.messagesByLevel("ERROR")
}

func (l *debugLogger) messagesByLevel(level string) string {
	var out strings.Builder
	scanner := bufio.NewScanner(strings.NewReader(l.buffer.String()))
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, level+"\t") {
			out.WriteString(line)
			out.WriteString("\n")
		}
	}
	return out.String()
}
