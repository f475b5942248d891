package main

import (
	"io"
	"os"

	"github.com/vmdkcore/vmdkcore/internal/sparsestream"
)

const catChunkBytes = 1 << 20

// copyContent streams content's full logical size to dst in fixed-size
// chunks.
func copyContent(dst *os.File, content sparsestream.Stream) (int64, error) {
	buf := make([]byte, catChunkBytes)
	size := content.Size()
	var written int64

	for written < size {
		chunk := buf
		if remaining := size - written; remaining < int64(len(chunk)) {
			chunk = chunk[:remaining]
		}

		n, err := content.ReadAt(chunk, written)
		if n > 0 {
			if _, wErr := dst.Write(chunk[:n]); wErr != nil {
				return written, wErr
			}
			written += int64(n)
		}
		if err != nil && err != io.EOF {
			return written, err
		}
		if n == 0 && err == nil {
			break
		}
	}

	return written, nil
}
