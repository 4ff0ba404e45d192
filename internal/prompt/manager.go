package prompt

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Manager 从目录加载提示词模板（.tmpl / .txt），按文件名（不含扩展名）索引。
type Manager struct {
	dir string

	mu    sync.RWMutex
	cache map[string]string
}

func NewManager(dir string) *Manager { return &Manager{dir: dir, cache: make(map[string]string)} }

// Load 扫描目录；目录不存在时视为没有覆盖模板。
func (m *Manager) Load() error {
	cache := make(map[string]string)
	if strings.TrimSpace(m.dir) != "" {
		entries, err := os.ReadDir(m.dir)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return fmt.Errorf("读取提示词目录失败: %w", err)
		default:
			for _, e := range entries {
				if e.IsDir() {
					continue
				}
				ext := strings.ToLower(filepath.Ext(e.Name()))
				if ext != ".txt" && ext != ".tmpl" {
					continue
				}
				path := filepath.Join(m.dir, e.Name())
				b, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("读取模板失败 %s: %w", path, err)
				}
				cache[strings.TrimSuffix(e.Name(), filepath.Ext(e.Name()))] = string(b)
			}
		}
	}
	m.mu.Lock()
	m.cache = cache
	m.mu.Unlock()
	return nil
}

// Get 获取模板内容；空白模板视为不存在。
func (m *Manager) Get(name string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.cache[name]
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}

// Names 返回已加载的模板名（已排序）。
func (m *Manager) Names() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.cache))
	for k := range m.cache {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
