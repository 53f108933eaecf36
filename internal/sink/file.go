package sink

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mimecast/dfilter/internal/errors"
)

// Stdout is the route FileWriter maps to its Out writer.
const Stdout = "-"

// FileWriter writes every body into a file named by the route inside Dir.
// The route Stdout, or an empty Dir, writes to Out instead. The token is
// ignored.
type FileWriter struct {
	Dir string
	Out io.Writer
}

// Write implements Writer. A partially written file is removed.
func (fw *FileWriter) Write(ctx context.Context, route, token string, body io.Reader) error {
	if fw.Dir == "" || route == Stdout {
		out := fw.Out
		if out == nil {
			out = os.Stdout
		}
		_, err := io.Copy(out, body)
		return err
	}

	name := filepath.Base(filepath.Clean("/" + route))
	if name == "/" || name == "." {
		return errors.Wrapf(errors.ErrInvalidArgument, "route '%s' names no file", route)
	}
	path := filepath.Join(fw.Dir, name)

	fd, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := io.Copy(fd, body); err != nil {
		fd.Close()
		os.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	if err := fd.Close(); err != nil {
		os.Remove(path)
		return err
	}
	return nil
}
