package tools

import (
	"context"
	"io"
	"os"

	apperrors "reviewkit/internal/errors"
)

// ReadRequest asks for the content of one file.
type ReadRequest struct {
	Path     string
	Encoding string
	// MaxBytes is the largest file size accepted. Zero selects the default.
	MaxBytes int64
}

// ReadResult is the decoded content of a file.
type ReadResult struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}

// Read returns the decoded content of a regular file inside the root. The
// size is checked before any content is loaded.
func (r *Registry) Read(ctx context.Context, req ReadRequest) (ReadResult, error) {
	enc, err := lookupEncoding(req.Encoding)
	if err != nil {
		return ReadResult{}, err
	}
	maxBytes, err := r.limits.readBytes(req.MaxBytes)
	if err != nil {
		return ReadResult{}, err
	}
	if err := ctx.Err(); err != nil {
		return ReadResult{}, err
	}

	f, rel, size, err := r.openRegular(req.Path)
	if err != nil {
		return ReadResult{}, err
	}
	defer f.Close()

	if size > maxBytes {
		return ReadResult{}, apperrors.SizeLimit(rel, maxBytes, size)
	}
	data, err := io.ReadAll(io.LimitReader(f, maxBytes+1))
	if err != nil {
		return ReadResult{}, apperrors.FromFS(rel, err)
	}
	if int64(len(data)) > maxBytes {
		return ReadResult{}, apperrors.SizeLimit(rel, maxBytes, int64(len(data)))
	}
	content, err := enc.decode(data)
	if err != nil {
		return ReadResult{}, apperrors.Wrap(apperrors.CodeInvalidEncoding, "failed to decode "+rel+" as "+enc.name, err)
	}

	r.logger.Debug().Str("tool", "read").Str("path", rel).Int("bytes", len(data)).Str("encoding", enc.name).Msg("file read")
	return ReadResult{Path: rel, Content: content}, nil
}

// openRegular resolves candidate inside the root and opens it. The path must
// not traverse a symlink and must name a regular file.
func (r *Registry) openRegular(candidate string) (*os.File, string, int64, error) {
	abs, err := r.sandbox.Resolve(candidate)
	if err != nil {
		return nil, "", 0, err
	}
	rel := r.sandbox.Rel(abs)
	if err := r.sandbox.CheckNoSymlinks(abs); err != nil {
		return nil, rel, 0, err
	}
	f, err := openNoFollow(abs, rel)
	if err != nil {
		return nil, rel, 0, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, rel, 0, apperrors.FromFS(rel, err)
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, rel, 0, apperrors.Newf(apperrors.CodeNotAFile, "%s is not a regular file", rel)
	}
	return f, rel, info.Size(), nil
}
