package ml

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/fsnotify/fsnotify"

	"fauxpas/logger"
)

// ArtifactWatcher 监听模型文件变更，只告警不重新加载
type ArtifactWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func(op fsnotify.Op)
	debounce time.Duration

	mu      sync.Mutex
	timer   *time.Timer
	pending fsnotify.Op
	done    chan struct{}
	once    sync.Once
}

// NewArtifactWatcher 监听path所在目录，原地写入和重命名替换都能捕获
func NewArtifactWatcher(path string, onChange func(op fsnotify.Op)) (*ArtifactWatcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve %s", path)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "create fsnotify watcher")
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		w.Close()
		return nil, errors.Wrapf(err, "watch %s", filepath.Dir(abs))
	}
	return &ArtifactWatcher{
		path:     abs,
		watcher:  w,
		onChange: onChange,
		debounce: 250 * time.Millisecond,
		done:     make(chan struct{}),
	}, nil
}

// Start 处理事件直到Close
func (aw *ArtifactWatcher) Start() {
	go aw.loop()
}

func (aw *ArtifactWatcher) loop() {
	log := logger.Named("artifact-watcher")
	for {
		select {
		case event, ok := <-aw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != aw.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			aw.schedule(event.Op)
		case err, ok := <-aw.watcher.Errors:
			if !ok {
				return
			}
			log.Warnw("artifact watcher error", logger.FieldError, err)
		case <-aw.done:
			return
		}
	}
}

// schedule 合并短时间内的连续事件
func (aw *ArtifactWatcher) schedule(op fsnotify.Op) {
	aw.mu.Lock()
	defer aw.mu.Unlock()
	aw.pending |= op
	if aw.timer != nil {
		aw.timer.Stop()
	}
	aw.timer = time.AfterFunc(aw.debounce, aw.fire)
}

func (aw *ArtifactWatcher) fire() {
	aw.mu.Lock()
	op := aw.pending
	aw.pending = 0
	aw.mu.Unlock()

	select {
	case <-aw.done:
		return
	default:
	}

	logger.Named("artifact-watcher").Warnw("model bundle changed on disk; restart to serve it",
		logger.FieldFile, aw.path, "op", op.String())
	if aw.onChange != nil {
		aw.onChange(op)
	}
}

// Close 停止监听，可重复调用
func (aw *ArtifactWatcher) Close() error {
	var err error
	aw.once.Do(func() {
		close(aw.done)
		aw.mu.Lock()
		if aw.timer != nil {
			aw.timer.Stop()
		}
		aw.mu.Unlock()
		err = aw.watcher.Close()
	})
	return err
}
