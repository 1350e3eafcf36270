package fs

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/charlievieth/fastwalk"

	"github.com/justyntemme/deskshell/internal/debug"
)

type OpType int

const (
	FetchDir OpType = iota
	MoveInto
)

type Request struct {
	Op           OpType
	Path         string   // Box folder to list, or move target
	Paths        []string // Sources for MoveInto
	ShowDotfiles bool
	Gen          int64 // Generation counter to track stale requests
}

type Entry struct {
	Name    string
	Path    string
	IsDir   bool
	Size    int64
	ModTime time.Time
}

type Response struct {
	Op      OpType
	Path    string
	Entries []Entry
	Moved   []string // Destination paths created by MoveInto
	Err     error
	Gen     int64 // Generation counter from request
}

type System struct {
	RequestChan  chan Request
	ResponseChan chan Response
}

func NewSystem() *System {
	return &System{
		RequestChan:  make(chan Request, 10),
		ResponseChan: make(chan Response, 10),
	}
}

// Start serves requests until RequestChan is closed
func (s *System) Start() {
	for req := range s.RequestChan {
		debug.Log(debug.FS, "Request: op=%d path=%q paths=%d gen=%d", req.Op, req.Path, len(req.Paths), req.Gen)

		var resp Response
		switch req.Op {
		case FetchDir:
			resp = FetchEntries(req.Path, req.ShowDotfiles)
		case MoveInto:
			resp = MoveEntries(req.Paths, req.Path)
		default:
			continue
		}
		resp.Gen = req.Gen
		s.ResponseChan <- resp
	}
}

// FetchEntries lists the direct children of path, directories first.
func FetchEntries(path string, showDotfiles bool) Response {
	debug.Log(debug.FS, "fetchDir: reading %q", path)

	var result []Entry
	var mu sync.Mutex

	// Follow symlinks to get target info
	conf := &fastwalk.Config{Follow: true}

	pathLen := len(path)

	err := fastwalk.Walk(conf, path, func(fullPath string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}

		// Skip the root directory itself
		if fullPath == path {
			return nil
		}

		// Only direct children: the remainder after path has no separator
		relStart := pathLen
		if relStart < len(fullPath) && (fullPath[relStart] == '/' || fullPath[relStart] == '\\') {
			relStart++
		}
		if strings.ContainsAny(fullPath[relStart:], "/\\") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if !showDotfiles && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			// Broken symlinks still show up
			info, err = os.Lstat(fullPath)
			if err != nil {
				return nil
			}
		}

		mu.Lock()
		result = append(result, Entry{
			Name:    d.Name(),
			Path:    fullPath,
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
		mu.Unlock()

		if d.IsDir() {
			return fastwalk.SkipDir
		}
		return nil
	})

	if err != nil {
		debug.Log(debug.FS, "fetchDir: walk error: %v", err)
		return Response{Op: FetchDir, Path: path, Err: err}
	}

	SortEntries(result)
	debug.Log(debug.FS, "fetchDir: returning %d entries", len(result))
	return Response{Op: FetchDir, Path: path, Entries: result}
}

// SortEntries orders directories before files, then by case-insensitive name.
func SortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})
}

// TotalSize sums the sizes of the regular files in entries.
func TotalSize(entries []Entry) int64 {
	var n int64
	for _, e := range entries {
		if !e.IsDir {
			n += e.Size
		}
	}
	return n
}

// MoveEntries moves every source into targetDir. Sources already in targetDir
// are left alone; name clashes get a "_copyN" suffix. The first failure stops
// the batch and is returned alongside the moves that succeeded.
func MoveEntries(sources []string, targetDir string) Response {
	resp := Response{Op: MoveInto, Path: targetDir}
	for _, src := range sources {
		if filepath.Dir(src) == filepath.Clean(targetDir) {
			continue
		}
		if strings.HasPrefix(filepath.Clean(targetDir)+string(filepath.Separator), filepath.Clean(src)+string(filepath.Separator)) {
			resp.Err = fmt.Errorf("cannot move %s into itself", src)
			break
		}
		dst := uniqueName(filepath.Join(targetDir, filepath.Base(src)))
		if err := Move(src, dst); err != nil {
			resp.Err = err
			break
		}
		debug.Log(debug.FS, "moved %q -> %q", src, dst)
		resp.Moved = append(resp.Moved, dst)
	}
	return resp
}

func pathExists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// uniqueName returns path, or the first free "name_copyN.ext" beside it.
func uniqueName(path string) string {
	if !pathExists(path) {
		return path
	}
	dir, name := filepath.Split(path)
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := filepath.Join(dir, base+"_copy"+strconv.Itoa(i)+ext)
		if !pathExists(candidate) {
			return candidate
		}
	}
}

// Move renames src to dst, falling back to copy and delete when a rename is
// not possible, such as across volumes.
func Move(src, dst string) error {
	err := os.Rename(src, dst)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || pathExists(dst) {
		return err
	}

	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		err = copyDir(src, dst)
	} else {
		err = copyFile(src, dst)
	}
	if err != nil {
		os.RemoveAll(dst)
		return err
	}
	return os.RemoveAll(src)
}

func copyFile(src, dst string) error {
	srcFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer srcFile.Close()

	info, err := srcFile.Stat()
	if err != nil {
		return err
	}

	dstFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := copyAndClose(dstFile, srcFile); err != nil {
		return err
	}
	return os.Chmod(dst, info.Mode())
}

// copyAndClose copies src into dst and closes dst. A failed close is reported
// since it can carry the final write error.
func copyAndClose(dst io.WriteCloser, src io.Reader) error {
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

// copyDir copies a directory tree, creating parents before children.
func copyDir(src, dst string) error {
	type copyItem struct {
		srcPath string
		dstPath string
		isDir   bool
		mode    fs.FileMode
	}
	var items []copyItem
	var itemsMu sync.Mutex

	conf := &fastwalk.Config{Follow: true}
	srcLen := len(src)

	err := fastwalk.Walk(conf, src, func(fullPath string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		relPath := fullPath[srcLen:]
		if len(relPath) > 0 && (relPath[0] == '/' || relPath[0] == '\\') {
			relPath = relPath[1:]
		}
		if relPath == "" {
			return nil
		}
		info, err := fastwalk.StatDirEntry(fullPath, d)
		if err != nil {
			return err
		}
		itemsMu.Lock()
		items = append(items, copyItem{
			srcPath: fullPath,
			dstPath: filepath.Join(dst, relPath),
			isDir:   info.IsDir(),
			mode:    info.Mode(),
		})
		itemsMu.Unlock()
		return nil
	})
	if err != nil {
		return err
	}

	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	// Directories first, shorter paths first so parents exist
	sort.Slice(items, func(i, j int) bool {
		if items[i].isDir != items[j].isDir {
			return items[i].isDir
		}
		return len(items[i].dstPath) < len(items[j].dstPath)
	})

	for _, item := range items {
		if item.isDir {
			if err := os.MkdirAll(item.dstPath, item.mode.Perm()|0o700); err != nil {
				return err
			}
			continue
		}
		if err := copyFile(item.srcPath, item.dstPath); err != nil {
			return err
		}
	}
	return nil
}
