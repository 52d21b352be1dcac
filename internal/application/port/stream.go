package port

import (
	"context"
	"errors"
)

// ErrStreamClosed 对端正常关闭连接（close frame 1000/1001）
var ErrStreamClosed = errors.New("stream closed")

// StreamConn 一条已建立的双向文本流连接
type StreamConn interface {
	// ReadMessage blocks until the next text frame arrives or the connection fails
	ReadMessage() ([]byte, error)
	// WriteText sends a single raw text frame
	WriteText(text string) error
	Close() error
}

// StreamDialer 负责建立流连接
type StreamDialer interface {
	Dial(ctx context.Context, url string) (StreamConn, error)
}
