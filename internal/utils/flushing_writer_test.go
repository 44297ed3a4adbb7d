package utils_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/smv/internal/utils"
)

type flushRecordingWriter struct {
	buffer     bytes.Buffer
	flushCount int
}

func (writer *flushRecordingWriter) Write(data []byte) (int, error) {
	return writer.buffer.Write(data)
}

func (writer *flushRecordingWriter) Flush() error {
	writer.flushCount++
	return nil
}

func TestFlushingWriterFlushesAfterEachWrite(testInstance *testing.T) {
	underlyingWriter := &flushRecordingWriter{}
	flushingWriter := utils.NewFlushingWriter(underlyingWriter)

	bytesWritten, writeError := flushingWriter.Write([]byte("first"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, 5, bytesWritten)
	require.Equal(testInstance, 1, underlyingWriter.flushCount)

	_, secondWriteError := flushingWriter.Write([]byte("second"))
	require.NoError(testInstance, secondWriteError)
	require.Equal(testInstance, 2, underlyingWriter.flushCount)
	require.Equal(testInstance, "firstsecond", underlyingWriter.buffer.String())
}

func TestFlushingWriterPassesThroughPlainWriters(testInstance *testing.T) {
	plainBuffer := &bytes.Buffer{}
	flushingWriter := utils.NewFlushingWriter(plainBuffer)

	_, writeError := flushingWriter.Write([]byte("payload"))
	require.NoError(testInstance, writeError)
	require.Equal(testInstance, "payload", plainBuffer.String())
}

func TestFlushingWriterAvoidsDoubleWrapping(testInstance *testing.T) {
	plainBuffer := &bytes.Buffer{}
	firstWrapper := utils.NewFlushingWriter(plainBuffer)
	secondWrapper := utils.NewFlushingWriter(firstWrapper)
	require.Same(testInstance, firstWrapper, secondWrapper)
}

func TestFlushingWriterNilInput(testInstance *testing.T) {
	require.Nil(testInstance, utils.NewFlushingWriter(nil))
}
