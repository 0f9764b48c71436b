// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package resources

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// ChunkPrefix is the file name prefix of split chunks.
const ChunkPrefix = "chunk"

// DefaultChunkSize is the chunk size used when none is given.
const DefaultChunkSize = 10_000_000

var (
	// ErrNoChunks is returned when a directory holds no chunk files.
	ErrNoChunks = errors.New("no chunk files found")

	// ErrInvalidChunkSize is returned for non-positive chunk sizes.
	ErrInvalidChunkSize = errors.New("chunk size must be greater than 0")
)

// Split copies src into dir as chunk0, chunk1, ... each at most chunkSize bytes.
// It returns the number of chunks written.
func Split(src, dir string, chunkSize int64) (int, error) {
	if chunkSize <= 0 {
		return 0, ErrInvalidChunkSize
	}
	f, err := os.Open(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer f.Close()

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return 0, fmt.Errorf("failed to create %s: %w", dir, err)
	}

	count := 0
	for {
		name := filepath.Join(dir, ChunkPrefix+strconv.Itoa(count))
		written, err := writeChunk(name, io.LimitReader(f, chunkSize))
		if err != nil {
			return count, err
		}
		if written == 0 {
			os.Remove(name)
			break
		}
		count++
		if written < chunkSize {
			break
		}
	}
	return count, nil
}

func writeChunk(name string, r io.Reader) (int64, error) {
	out, err := os.Create(name)
	if err != nil {
		return 0, fmt.Errorf("failed to create chunk %s: %w", name, err)
	}
	written, err := io.Copy(out, r)
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return written, fmt.Errorf("failed to write chunk %s: %w", name, err)
	}
	return written, nil
}

// ChunkFiles lists the chunk files in dir in numeric order. Files that do not
// follow the chunk naming scheme are ignored.
func ChunkFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	type chunk struct {
		num  int
		path string
	}
	var chunks []chunk
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), ChunkPrefix) {
			continue
		}
		num, err := strconv.Atoi(strings.TrimPrefix(entry.Name(), ChunkPrefix))
		if err != nil || num < 0 {
			continue
		}
		chunks = append(chunks, chunk{num: num, path: filepath.Join(dir, entry.Name())})
	}
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoChunks, dir)
	}

	sort.Slice(chunks, func(i, j int) bool { return chunks[i].num < chunks[j].num })
	for i, c := range chunks {
		if c.num != i {
			return nil, fmt.Errorf("missing chunk %d in %s", i, dir)
		}
	}

	paths := make([]string, len(chunks))
	for i, c := range chunks {
		paths[i] = c.path
	}
	return paths, nil
}

// Join streams the chunks in dir to w in numeric order.
func Join(dir string, w io.Writer) (int64, error) {
	paths, err := ChunkFiles(dir)
	if err != nil {
		return 0, err
	}

	var total int64
	for _, path := range paths {
		n, err := appendFile(w, path)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func appendFile(w io.Writer, path string) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return io.Copy(w, f)
}

// JoinFile joins the chunks in dir into dst atomically.
func JoinFile(dir, dst string) (int64, error) {
	var total int64
	err := writeAtomic(dst, func(w io.Writer) error {
		n, err := Join(dir, w)
		total = n
		return err
	})
	return total, err
}

// ReadPath returns the contents of path. A directory is treated as a set of
// chunks and joined in memory.
func ReadPath(path string) ([]byte, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return os.ReadFile(path)
	}

	var buf bytes.Buffer
	if _, err := Join(path, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
