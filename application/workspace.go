package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lk2023060901/treedoc-garden-go/pkg/log"
	"github.com/lk2023060901/treedoc-garden-go/pkg/serialization"
	"github.com/lk2023060901/treedoc-garden-go/pkg/util/serr"
)

// workspaceKey is the element name of a workspace root object.
const workspaceKey = "Workspace"

// WorkspaceStore persists object graphs as tree-document files under a
// single directory. One file per workspace, the root object serialized
// under the "Workspace" element.
type WorkspaceStore struct {
	log.Binder

	dir string
	// concurrency bounds the directory loader; <=0 means unbounded.
	concurrency int
	opts        []serialization.SerializerOption
}

// WorkspaceOption configures a WorkspaceStore.
type WorkspaceOption func(*WorkspaceStore)

// WithLoadConcurrency bounds how many files LoadDir reads in parallel.
func WithLoadConcurrency(n int) WorkspaceOption {
	return func(w *WorkspaceStore) {
		w.concurrency = n
	}
}

// WithSerializerOptions forwards options to every Save pass,
// e.g. serialization.WithZstdCompression() or a JSON format.
func WithSerializerOptions(opts ...serialization.SerializerOption) WorkspaceOption {
	return func(w *WorkspaceStore) {
		w.opts = append(w.opts, opts...)
	}
}

// NewWorkspaceStore creates a store rooted at dir. The directory is
// created lazily on the first Save.
func NewWorkspaceStore(dir string, opts ...WorkspaceOption) *WorkspaceStore {
	w := &WorkspaceStore{dir: dir}
	for _, opt := range opts {
		opt(w)
	}
	w.SetLogger(log.With(zap.String("dir", dir)))
	return w
}

// Dir returns the store's root directory.
func (w *WorkspaceStore) Dir() string {
	return w.dir
}

// Path returns the absolute file path a workspace name maps to.
func (w *WorkspaceStore) Path(name string) string {
	return filepath.Join(w.dir, name)
}

// Save serializes root into the named workspace file atomically.
func (w *WorkspaceStore) Save(ctx context.Context, name string, root serialization.Serializable) error {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return serr.WrapErrDocumentWrite(w.dir, err)
	}

	s, err := serialization.NewSerializer(w.Path(name), w.opts...)
	if err != nil {
		return err
	}
	if err := s.Serialize(workspaceKey, root); err != nil {
		return err
	}
	if err := s.WriteFile(ctx); err != nil {
		return err
	}

	w.Logger().Info("workspace saved", zap.String("name", name))
	return nil
}

// Load reads the named workspace file into root and resolves references.
func (w *WorkspaceStore) Load(name string, root serialization.Serializable) error {
	d, err := serialization.NewDeserializer(w.Path(name))
	if err != nil {
		return err
	}
	if err := d.Deserialize(workspaceKey, root); err != nil {
		return err
	}
	if err := d.ResolveReferences(); err != nil {
		return err
	}

	w.Logger().Info("workspace loaded",
		zap.String("name", name),
		log.FieldVersion(d.Version().String()))
	return nil
}

// List returns the workspace file names present in the store,
// in directory order.
func (w *WorkspaceStore) List() ([]string, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, serr.WrapErrDocumentRead(w.dir, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !isWorkspaceFile(entry.Name()) {
			continue
		}
		names = append(names, entry.Name())
	}
	return names, nil
}

// LoadDir loads every workspace file in the store concurrently.
// construct builds a fresh root object for each file name; results are
// keyed by file name. The first failure cancels the remaining loads.
func (w *WorkspaceStore) LoadDir(ctx context.Context, construct func(name string) serialization.Serializable) (map[string]serialization.Serializable, error) {
	names, err := w.List()
	if err != nil {
		return nil, err
	}

	var mu sync.Mutex
	loaded := make(map[string]serialization.Serializable, len(names))

	g, ctx := errgroup.WithContext(ctx)
	if w.concurrency > 0 {
		g.SetLimit(w.concurrency)
	}
	for _, name := range names {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			root := construct(name)
			if err := w.Load(name, root); err != nil {
				return err
			}
			mu.Lock()
			loaded[name] = root
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return loaded, nil
}

func isWorkspaceFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".xml", ".json", ".zst":
		return true
	default:
		return false
	}
}
