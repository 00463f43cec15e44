package database

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"campingrate/internal/config"
	"campingrate/internal/middleware"
	"campingrate/internal/models"

	"gorm.io/gorm"
)

// Schema modes selected by DB_SCHEMA_MODE.
const (
	SchemaModeHybrid = "hybrid"
	SchemaModeSQL    = "sql"
	SchemaModeAuto   = "auto"
)

// UsernameIndex keeps usernames unique regardless of case. The SQL migrations
// create it too; AutoMigrate cannot express an expression index from struct tags.
const UsernameIndex = "idx_users_username_lower"

// expressionIndex is an index gorm tags cannot declare.
type expressionIndex struct {
	Name  string
	Model interface{}
	DDL   string
}

var expressionIndexes = []expressionIndex{
	{
		Name:  UsernameIndex,
		Model: &models.User{},
		DDL:   "CREATE UNIQUE INDEX IF NOT EXISTS " + UsernameIndex + " ON users (LOWER(username))",
	},
}

// SchemaStatus describes what ApplySchema would do, which migrations are
// pending and which integrity indexes are absent.
type SchemaStatus struct {
	Mode               string
	Environment        string
	WillRunSQL         bool
	WillRunAutoMigrate bool
	AppliedVersions    []int
	PendingMigrations  []Migration
	MissingIndexes     []string
}

// schemaPlan is what DB_SCHEMA_MODE resolves to for an environment.
type schemaPlan struct {
	mode    string
	runSQL  bool
	runAuto bool
}

func isProdLikeEnv(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "staging", "stage":
		return true
	}
	return false
}

func planSchema(cfg *config.Config) (schemaPlan, error) {
	plan := schemaPlan{mode: strings.ToLower(strings.TrimSpace(cfg.DBSchemaMode))}
	if plan.mode == "" {
		plan.mode = SchemaModeHybrid
	}
	prodLike := isProdLikeEnv(cfg.Env)

	switch plan.mode {
	case SchemaModeSQL:
		plan.runSQL = true
	case SchemaModeAuto:
		if prodLike && !cfg.DBAutoMigrateAllowDestructive {
			return plan, fmt.Errorf("refusing DB_SCHEMA_MODE=auto in %q without DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true", cfg.Env)
		}
		plan.runAuto = true
	case SchemaModeHybrid:
		plan.runSQL = true
		plan.runAuto = !prodLike
	default:
		return plan, fmt.Errorf("unsupported DB_SCHEMA_MODE %q", plan.mode)
	}
	return plan, nil
}

// AutoMigrate creates or updates the campground tables and then the indexes
// the struct tags cannot describe.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(PersistentModels()...); err != nil {
		return err
	}
	for _, idx := range expressionIndexes {
		if err := db.Exec(idx.DDL).Error; err != nil {
			return fmt.Errorf("create index %s: %w", idx.Name, err)
		}
	}
	return nil
}

// missingIndexes lists the expression indexes absent from the database.
func missingIndexes(db *gorm.DB) []string {
	var missing []string
	for _, idx := range expressionIndexes {
		if !db.Migrator().HasIndex(idx.Model, idx.Name) {
			missing = append(missing, idx.Name)
		}
	}
	return missing
}

// ApplySchema runs SQL migrations and/or AutoMigrate according to DB_SCHEMA_MODE and APP_ENV.
func ApplySchema(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	plan, err := planSchema(cfg)
	if err != nil {
		return err
	}

	if plan.runSQL {
		if err := RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("run sql migrations: %w", err)
		}
	}

	if plan.runAuto {
		if plan.mode == SchemaModeAuto && cfg.DBAutoMigrateAllowDestructive {
			middleware.Logger.Warn("DB_AUTOMIGRATE_ALLOW_DESTRUCTIVE=true set for DB_SCHEMA_MODE=auto; review schema diffs before production deployment")
		}
		middleware.Logger.Info("Running GORM AutoMigrate", slog.String("mode", plan.mode), slog.String("env", cfg.Env))
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return fmt.Errorf("auto-migrate: %w", err)
		}
	}

	if missing := missingIndexes(db.WithContext(ctx)); len(missing) > 0 {
		middleware.Logger.Warn("Schema is missing integrity indexes", slog.Any("indexes", missing))
	}
	return nil
}

// GetSchemaStatus reports the schema plan, applied and pending migrations for
// SQL modes, and any missing integrity indexes once the users table exists.
func GetSchemaStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) (*SchemaStatus, error) {
	plan, err := planSchema(cfg)
	if err != nil {
		return nil, err
	}

	status := &SchemaStatus{
		Mode:               plan.mode,
		Environment:        cfg.Env,
		WillRunSQL:         plan.runSQL,
		WillRunAutoMigrate: plan.runAuto,
	}

	if db.Migrator().HasTable(&models.User{}) {
		status.MissingIndexes = missingIndexes(db.WithContext(ctx))
	}

	if plan.runSQL {
		applied, err := NewMigrationStore(db).GetAppliedMigrations(ctx)
		if err != nil {
			return nil, err
		}
		status.AppliedVersions = applied
		status.PendingMigrations = pendingMigrations(applied, GetMigrations())
	}
	return status, nil
}

func pendingMigrations(applied []int, registered []Migration) []Migration {
	done := make(map[int]struct{}, len(applied))
	for _, version := range applied {
		done[version] = struct{}{}
	}
	var pending []Migration
	for _, m := range registered {
		if _, ok := done[m.Version]; !ok {
			pending = append(pending, m)
		}
	}
	return pending
}
