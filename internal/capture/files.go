package capture

import (
	"path/filepath"
	"sync"

	"roomchat/internal/models"
	"roomchat/pkg/media"
)

// QueuedFile is one selected attachment awaiting dispatch. A file that fails
// validation stays in the queue with Err set so the caller can surface it.
type QueuedFile struct {
	Path    string
	Name    string
	Kind    models.MessageKind
	Caption string
	Err     error
}

// FileQueue accumulates selected files between the picker and dispatch.
// Dispatch itself happens per file at the session layer; Drain empties the
// queue once every entry has been attempted.
type FileQueue struct {
	validator *media.Validator

	mu    sync.Mutex
	files []QueuedFile
}

func NewFileQueue(validator *media.Validator) *FileQueue {
	return &FileQueue{validator: validator}
}

// Add validates each path and enqueues it. Invalid files are enqueued with a
// per-file error rather than rejected, so one oversized file does not block
// the rest of the selection.
func (q *FileQueue) Add(paths ...string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for _, path := range paths {
		entry := QueuedFile{Path: path, Name: filepath.Base(path)}
		kind, err := q.validator.ValidateFile(path)
		if err != nil {
			entry.Err = err
		} else {
			entry.Kind = kind
		}
		q.files = append(q.files, entry)
	}
}

// SetCaption attaches a caption to a queued file.
func (q *FileQueue) SetCaption(path, caption string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.files {
		if q.files[i].Path == path {
			q.files[i].Caption = caption
			return
		}
	}
}

// Remove drops a single entry before dispatch.
func (q *FileQueue) Remove(path string) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i := range q.files {
		if q.files[i].Path == path {
			q.files = append(q.files[:i], q.files[i+1:]...)
			return
		}
	}
}

// Files returns a copy of the queue in selection order.
func (q *FileQueue) Files() []QueuedFile {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]QueuedFile, len(q.files))
	copy(out, q.files)
	return out
}

// Drain empties the queue and returns only the entries that validated,
// preserving selection order.
func (q *FileQueue) Drain() []QueuedFile {
	q.mu.Lock()
	defer q.mu.Unlock()

	valid := make([]QueuedFile, 0, len(q.files))
	for _, f := range q.files {
		if f.Err == nil {
			valid = append(valid, f)
		}
	}
	q.files = nil
	return valid
}

// Clear empties the queue without dispatching.
func (q *FileQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.files = nil
}

// Len returns the number of queued entries, valid or not.
func (q *FileQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.files)
}
