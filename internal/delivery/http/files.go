package http

import (
	"io/fs"
	"net/http"
)

// regularFiles serves only regular files from the wrapped file system.
// Directories are reported as missing so no listing is ever rendered.
type regularFiles struct {
	http.FileSystem
}

func (r regularFiles) Open(name string) (http.File, error) {
	f, err := r.FileSystem.Open(name)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, fs.ErrNotExist
	}
	return f, nil
}

// uploadsHandler serves stored uploads under /files/.
func uploadsHandler(dir string) http.Handler {
	return http.StripPrefix("/files/", http.FileServer(regularFiles{http.Dir(dir)}))
}
