package utils

import (
	"io"
	"sync"
)

// flushableWriter matches buffered writers exposing an explicit flush.
type flushableWriter interface {
	Flush() error
}

// FlushingWriter forwards writes to a delegate and flushes buffered delegates
// immediately, keeping prompts and previews visible as soon as they are written.
type FlushingWriter struct {
	delegate   io.Writer
	writeMutex sync.Mutex
}

// NewFlushingWriter wraps the writer unless it is nil or already wrapped.
func NewFlushingWriter(writer io.Writer) io.Writer {
	if writer == nil {
		return nil
	}
	if _, alreadyWrapping := writer.(*FlushingWriter); alreadyWrapping {
		return writer
	}
	return &FlushingWriter{delegate: writer}
}

// Write forwards data to the delegate and flushes it when supported.
func (flushingWriter *FlushingWriter) Write(data []byte) (int, error) {
	if flushingWriter == nil || flushingWriter.delegate == nil {
		return 0, nil
	}

	flushingWriter.writeMutex.Lock()
	defer flushingWriter.writeMutex.Unlock()

	writtenCount, writeError := flushingWriter.delegate.Write(data)
	if writeError != nil {
		return writtenCount, writeError
	}
	if bufferedDelegate, flushSupported := flushingWriter.delegate.(flushableWriter); flushSupported {
		writeError = bufferedDelegate.Flush()
	}
	return writtenCount, writeError
}
