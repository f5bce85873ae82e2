package repository

import (
	"context"
	"encoding/json"
	"errors"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/ghaggin/fluidbalance/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	errStoreFileIsDir = errors.New("store file is dir")
)

type Data struct {
	Items map[string]string `json:"items"`
}

type jsonRepo struct {
	path string
	log  *zap.Logger

	mu   sync.Mutex
	data *Data
}

type jsonParams struct {
	fx.In

	Config *config.Config
	Log    *zap.Logger
}

func NewJSON(p jsonParams) (Repository, error) {
	return OpenJSON(p.Config.Session.StoragePath, p.Log)
}

// OpenJSON loads path if it exists. A missing or unreadable file leaves the
// store empty; it is recreated on the first write.
func OpenJSON(path string, log *zap.Logger) (Repository, error) {
	r := &jsonRepo{
		path: path,
		log:  log,
		data: &Data{Items: map[string]string{}},
	}

	err := r.readfile()
	if errors.Is(err, errStoreFileIsDir) {
		return nil, err
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		// only log, storage starts empty and is overwritten on the next write
		r.log.Warn("failed reading json store file", zap.String("path", path), zap.Error(err))
	}

	return r, nil
}

func (r *jsonRepo) readfile() error {
	finfo, err := os.Stat(r.path)
	if err != nil {
		return err
	}

	if finfo.IsDir() {
		return errStoreFileIsDir
	}

	f, err := os.Open(r.path)
	if err != nil {
		return err
	}
	defer f.Close()

	data := &Data{}
	if err := json.NewDecoder(f).Decode(data); err != nil {
		return err
	}
	if data.Items == nil {
		data.Items = map[string]string{}
	}
	r.data = data
	return nil
}

// writefile replaces the store file with data atomically.
func (r *jsonRepo) writefile(data *Data) error {
	if err := os.MkdirAll(filepath.Dir(r.path), 0o700); err != nil {
		return err
	}

	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(r.path), ".store-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.path)
}

func (r *jsonRepo) Get(_ context.Context, key string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	v, ok := r.data.Items[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

func (r *jsonRepo) Set(_ context.Context, key, value string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	next := r.copyItems()
	next.Items[key] = value
	return r.commit(next)
}

func (r *jsonRepo) Remove(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.data.Items[key]; !ok {
		return nil
	}
	next := r.copyItems()
	delete(next.Items, key)
	return r.commit(next)
}

func (r *jsonRepo) copyItems() *Data {
	return &Data{Items: maps.Clone(r.data.Items)}
}

// commit swaps next in only once it is on disk, so memory never runs ahead
// of the file.
func (r *jsonRepo) commit(next *Data) error {
	if err := r.writefile(next); err != nil {
		return err
	}
	r.data = next
	return nil
}
