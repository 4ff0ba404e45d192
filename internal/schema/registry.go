package schema

import (
	"bytes"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"tradewatch/internal/logger"
	"tradewatch/internal/types"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// FileConfig 映射 schema 文件。
type FileConfig struct {
	Schemas map[string]definition `yaml:"schemas"`
}

// Snapshot 是某一时刻的 schema 集合；一次运行只使用一个快照，
// 保证同一类别的所有标的使用同一份约定。
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Schemas  map[types.Category]*OutputSchema
}

// For returns the schema for a category.
func (s Snapshot) For(c types.Category) (*OutputSchema, error) {
	out, ok := s.Schemas[c]
	if !ok || out == nil {
		return nil, fmt.Errorf("no output schema for category %s", c)
	}
	return out, nil
}

// ChangeListener 在 registry 重载时触发。
type ChangeListener func(Snapshot)

// Registry 管理各类别的输出 schema，可选监听文件变化。
type Registry struct {
	path string

	mu        sync.RWMutex
	snapshot  Snapshot
	listeners []ChangeListener
}

// NewRegistry 加载内置默认值，并用 path（可为空）覆盖。watch 为 true 时热加载。
func NewRegistry(path string, watch bool) (*Registry, error) {
	r := &Registry{path: strings.TrimSpace(path)}
	if err := r.reload(); err != nil {
		return nil, err
	}
	if r.path != "" && watch {
		v := viper.New()
		v.SetConfigFile(r.path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read schema config failed: %w", err)
		}
		v.OnConfigChange(func(evt fsnotify.Event) {
			if err := r.reload(); err != nil {
				// 保留旧快照
				logger.Errorf("schema reload failed (%s): %v", evt.Name, err)
				return
			}
			r.notifyListeners()
		})
		v.WatchConfig()
	}
	return r, nil
}

// Snapshot 返回当前 schema 集。
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return cloneSnapshot(r.snapshot)
}

func (r *Registry) OnChange(fn ChangeListener) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	r.listeners = append(r.listeners, fn)
	r.mu.Unlock()
}

func (r *Registry) reload() error {
	defs, err := decodeFile(defaultsYAML)
	if err != nil {
		return fmt.Errorf("parse built-in schemas failed: %w", err)
	}
	if r.path != "" {
		raw, err := os.ReadFile(r.path)
		if err != nil {
			return fmt.Errorf("read schema config failed: %w", err)
		}
		override, err := decodeFile(raw)
		if err != nil {
			return fmt.Errorf("parse schema config failed: %w", err)
		}
		for name, def := range override.Schemas {
			defs.Schemas[name] = def
		}
	}
	schemas := make(map[types.Category]*OutputSchema, len(defs.Schemas))
	for name, def := range defs.Schemas {
		cat, err := types.ParseCategory(name)
		if err != nil {
			return fmt.Errorf("schemas.%s: %w", name, err)
		}
		built, err := build(cat, def)
		if err != nil {
			return err
		}
		schemas[cat] = built
	}
	r.mu.Lock()
	r.snapshot = Snapshot{
		Version:  r.snapshot.Version + 1,
		LoadedAt: time.Now(),
		Schemas:  schemas,
	}
	r.mu.Unlock()
	source := "built-in"
	if r.path != "" {
		source = filepath.Base(r.path)
	}
	logger.Infof("schema registry loaded %d categories from %s", len(schemas), source)
	return nil
}

func (r *Registry) notifyListeners() {
	r.mu.RLock()
	snap := cloneSnapshot(r.snapshot)
	listeners := append([]ChangeListener(nil), r.listeners...)
	r.mu.RUnlock()
	for _, fn := range listeners {
		go func(cb ChangeListener) {
			defer safeRecover("schema listener")
			cb(snap)
		}(fn)
	}
}

func cloneSnapshot(src Snapshot) Snapshot {
	dst := Snapshot{
		Version:  src.Version,
		LoadedAt: src.LoadedAt,
		Schemas:  make(map[types.Category]*OutputSchema, len(src.Schemas)),
	}
	for c, s := range src.Schemas {
		dst.Schemas[c] = s
	}
	return dst
}

func safeRecover(tag string) {
	if r := recover(); r != nil {
		logger.Errorf("%s panic: %v", tag, r)
	}
}

func decodeFile(raw []byte) (FileConfig, error) {
	var cfg FileConfig
	dec := yaml.NewDecoder(bytes.NewReader(raw))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return FileConfig{}, err
	}
	if cfg.Schemas == nil {
		cfg.Schemas = make(map[string]definition)
	}
	return cfg, nil
}
