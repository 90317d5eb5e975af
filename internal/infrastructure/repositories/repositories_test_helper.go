package repositories

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared", t.Name(), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err, "open sqlite")
	return db
}

func mustExec(t *testing.T, db *gorm.DB, q string, args ...interface{}) {
	t.Helper()
	require.NoError(t, db.Exec(q, args...).Error, "exec failed: query=%s", q)
}

func createIssueTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE issues (
		id TEXT PRIMARY KEY,
		provider TEXT NOT NULL,
		repository_id INTEGER NOT NULL,
		number INTEGER NOT NULL,
		title TEXT NOT NULL,
		body TEXT,
		prizes TEXT,
		labels TEXT,
		assignee TEXT,
		assigned_at DATETIME,
		challenge_id TEXT,
		status TEXT NOT NULL,
		retry_count INTEGER DEFAULT 0,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
	mustExec(t, db, `CREATE UNIQUE INDEX idx_issue_key ON issues(provider, repository_id, number);`)
}

func createCopilotPaymentTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE copilot_payments (
		id TEXT PRIMARY KEY,
		project_id TEXT NOT NULL,
		username TEXT NOT NULL,
		amount INTEGER NOT NULL,
		description TEXT,
		challenge_id TEXT,
		closed BOOLEAN DEFAULT 0,
		status TEXT NOT NULL,
		created_at DATETIME,
		updated_at DATETIME,
		deleted_at DATETIME
	);`)
}

func createProjectTable(t *testing.T, db *gorm.DB) {
	mustExec(t, db, `CREATE TABLE projects (
		id TEXT PRIMARY KEY,
		repo_url TEXT NOT NULL UNIQUE,
		tc_direct_id INTEGER NOT NULL,
		copilot TEXT,
		owner TEXT,
		title TEXT,
		create_copilot_payments BOOLEAN DEFAULT 0,
		tags TEXT
	);`)
}
