package store

// Schema statements, mirrored from the original Postgres layout. SQLite
// has no native UUID or JSONB types; identifiers and plan payloads are
// TEXT, check constraints keep the enums honest.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		created_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS goals (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		priority INTEGER NOT NULL CHECK (priority BETWEEN 1 AND 5),
		priority_reasoning TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'active'
			CHECK (status IN ('active', 'completed', 'paused')),
		target_date TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_goals_user_status ON goals(user_id, status)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		priority INTEGER NOT NULL CHECK (priority BETWEEN 1 AND 5),
		priority_reasoning TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending'
			CHECK (status IN ('pending', 'in_progress', 'completed', 'cancelled')),
		estimated_duration INTEGER,
		actual_duration INTEGER,
		due_date TEXT,
		completed_at TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user_status ON tasks(user_id, status)`,

	`CREATE TABLE IF NOT EXISTS goal_tasks (
		goal_id TEXT NOT NULL REFERENCES goals(id) ON DELETE CASCADE,
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		PRIMARY KEY (goal_id, task_id)
	)`,

	`CREATE TABLE IF NOT EXISTS calendar_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		title TEXT NOT NULL,
		description TEXT,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		event_type TEXT NOT NULL DEFAULT 'internal'
			CHECK (event_type IN ('internal', 'external', 'task', 'social')),
		is_blocking INTEGER NOT NULL DEFAULT 1,
		external_id TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_events_user_start ON calendar_events(user_id, start_time)`,

	`CREATE TABLE IF NOT EXISTS relationships (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		name TEXT NOT NULL,
		relationship_type TEXT NOT NULL
			CHECK (relationship_type IN ('partner', 'friend', 'family', 'other')),
		priority INTEGER NOT NULL CHECK (priority BETWEEN 1 AND 5),
		time_budget_hours REAL,
		last_interaction TEXT,
		notes TEXT,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	)`,

	`CREATE TABLE IF NOT EXISTS daily_plans (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		plan_date TEXT NOT NULL,
		plan_json TEXT NOT NULL,
		reasoning TEXT NOT NULL,
		generated_at TEXT NOT NULL,
		modified_at TEXT NOT NULL,
		is_override INTEGER NOT NULL DEFAULT 0,
		UNIQUE (user_id, plan_date)
	)`,

	`CREATE TABLE IF NOT EXISTS override_log (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		plan_id TEXT NOT NULL REFERENCES daily_plans(id) ON DELETE CASCADE,
		override_type TEXT NOT NULL,
		override_reason TEXT,
		override_timestamp TEXT NOT NULL,
		week_number INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_override_user_week ON override_log(user_id, week_number)`,
}

func (s *Store) migrate() error {
	for _, stmt := range schemaStatements {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}
