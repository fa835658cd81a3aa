// Package db 提供SQLite预测历史存储
package db

import (
	"database/sql"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	_ "github.com/mattn/go-sqlite3"

	"fauxpas/pipeline"
	"fauxpas/vocab"
)

var (
	database *sql.DB
	mu       sync.RWMutex
)

// ErrNotInitialized 历史未启用
var ErrNotInitialized = errors.New("database not initialized")

// PredictionRecord 一条预测记录
type PredictionRecord struct {
	ID            int64           `json:"id"`
	Selection     vocab.Selection `json:"selection"`
	Class         string          `json:"class"`
	Confidence    float64         `json:"confidence"`
	LowConfidence bool            `json:"low_confidence"`
	Label         string          `json:"label"`
	CreatedAt     time.Time       `json:"created_at"`
}

// InitDB 初始化SQLite数据库
func InitDB(path string) error {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return errors.Wrapf(err, "open history %s", path)
	}
	// 单连接写入，避免SQLITE_BUSY
	conn.SetMaxOpenConns(1)

	query := `
    CREATE TABLE IF NOT EXISTS predictions (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        odor TEXT NOT NULL,
        cap_shape TEXT NOT NULL,
        cap_color TEXT NOT NULL,
        gill_size TEXT NOT NULL,
        gill_color TEXT NOT NULL,
        habitat TEXT NOT NULL,
        bruises TEXT NOT NULL,
        class TEXT NOT NULL,
        confidence REAL NOT NULL,
        low_confidence INTEGER NOT NULL DEFAULT 0,
        label TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );
    CREATE INDEX IF NOT EXISTS idx_predictions_created_at ON predictions(created_at);
    `
	if _, err := conn.Exec(query); err != nil {
		conn.Close()
		return errors.Wrapf(err, "create history schema in %s", path)
	}

	mu.Lock()
	defer mu.Unlock()
	if database != nil {
		database.Close()
	}
	database = conn
	return nil
}

// Enabled 是否已初始化
func Enabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return database != nil
}

// Close 关闭数据库，之后历史功能不可用
func Close() error {
	mu.Lock()
	defer mu.Unlock()
	if database == nil {
		return nil
	}
	err := database.Close()
	database = nil
	return err
}

// SavePrediction 保存预测结果
func SavePrediction(pred *pipeline.Prediction) error {
	mu.RLock()
	defer mu.RUnlock()
	if database == nil {
		return ErrNotInitialized
	}
	if pred == nil {
		return errors.New("nil prediction")
	}
	s := pred.Selection
	_, err := database.Exec(`
        INSERT INTO predictions (
            odor, cap_shape, cap_color, gill_size, gill_color, habitat, bruises,
            class, confidence, low_confidence, label, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.Odor, s.CapShape, s.CapColor, s.GillSize, s.GillColor, s.Habitat, s.Bruises,
		pred.Class.String(), pred.Confidence, pred.LowConfidence, pred.Label, time.Now().UTC(),
	)
	return errors.Wrap(err, "insert prediction")
}

// History 以包级数据库实现预测记录接口
type History struct{}

// SavePrediction 保存预测结果
func (History) SavePrediction(pred *pipeline.Prediction) error {
	return SavePrediction(pred)
}

// QueryPredictions 查询最近的预测，按时间倒序
func QueryPredictions(limit int) ([]PredictionRecord, error) {
	mu.RLock()
	defer mu.RUnlock()
	if database == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 {
		limit = 50
	}
	rows, err := database.Query(`
        SELECT id, odor, cap_shape, cap_color, gill_size, gill_color, habitat, bruises,
               class, confidence, low_confidence, label, created_at
        FROM predictions
        ORDER BY id DESC
        LIMIT ?`, limit)
	if err != nil {
		return nil, errors.Wrap(err, "query predictions")
	}
	defer rows.Close()

	records := make([]PredictionRecord, 0)
	for rows.Next() {
		var r PredictionRecord
		s := &r.Selection
		if err := rows.Scan(&r.ID, &s.Odor, &s.CapShape, &s.CapColor, &s.GillSize, &s.GillColor, &s.Habitat, &s.Bruises,
			&r.Class, &r.Confidence, &r.LowConfidence, &r.Label, &r.CreatedAt); err != nil {
			return nil, errors.Wrap(err, "scan prediction")
		}
		records = append(records, r)
	}
	return records, errors.Wrap(rows.Err(), "iterate predictions")
}
