package repository

import (
	"context"
	"time"

	"github.com/mbeoliero/kit/log"
	"github.com/qy-8/gamechat-app/internal/config"
	"github.com/qy-8/gamechat-app/internal/entity"
	"github.com/redis/go-redis/v9"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Repositories holds all repositories
type Repositories struct {
	DB           *gorm.DB
	Redis        *redis.Client
	User         *UserRepo
	Conversation *ConversationRepo
	Message      *MessageRepo
	Friendship   *FriendshipRepo
	Group        *GroupRepo
}

// NewRepositories creates all repositories
func NewRepositories(cfg *config.Config) (*Repositories, error) {
	// Initialize MySQL
	db, err := initMySQL(cfg)
	if err != nil {
		return nil, err
	}

	// Initialize Redis
	rdb := initRedis(cfg)

	return NewWithDB(db, rdb), nil
}

// NewWithDB creates all repositories on existing connections.
// rdb may be nil; repositories degrade to DB-only behavior.
func NewWithDB(db *gorm.DB, rdb *redis.Client) *Repositories {
	repos := &Repositories{
		DB:    db,
		Redis: rdb,
	}

	repos.User = NewUserRepo(db, rdb)
	repos.Conversation = NewConversationRepo(db, rdb)
	repos.Message = NewMessageRepo(db, rdb)
	repos.Friendship = NewFriendshipRepo(db, rdb)
	repos.Group = NewGroupRepo(db, rdb)

	return repos
}

// initMySQL initializes MySQL connection
func initMySQL(cfg *config.Config) (*gorm.DB, error) {
	var logLevel logger.LogLevel
	if cfg.Server.Mode == "debug" {
		logLevel = logger.Info
	} else {
		logLevel = logger.Warn
	}

	db, err := gorm.Open(mysql.Open(cfg.MySQL.DSN()), &gorm.Config{
		Logger:         logger.Default.LogMode(logLevel),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Hour)

	return db, nil
}

// initRedis initializes Redis connection
func initRedis(cfg *config.Config) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

// Migrate creates or updates all tables
func (r *Repositories) Migrate(ctx context.Context) error {
	err := r.DB.WithContext(ctx).AutoMigrate(
		&entity.User{},
		&entity.UserMute{},
		&entity.Conversation{},
		&entity.Message{},
		&entity.Friendship{},
		&entity.Group{},
		&entity.GroupMember{},
		&entity.GroupInvitation{},
	)
	if err != nil {
		return err
	}

	// FULLTEXT index for message search, MySQL only. AutoMigrate cannot
	// express it, and re-creating an existing index is a harmless error.
	if r.DB.Dialector.Name() == "mysql" {
		createIdx := "CREATE FULLTEXT INDEX idx_messages_content ON messages(content)"
		if err := r.DB.WithContext(ctx).Exec(createIdx).Error; err != nil {
			log.CtxWarn(ctx, "create fulltext index: %v", err)
		}
	}

	return nil
}

// Close closes all connections
func (r *Repositories) Close() error {
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.Close(); err != nil {
		return err
	}
	if r.Redis != nil {
		return r.Redis.Close()
	}
	return nil
}

// Transaction executes fn in a transaction
func (r *Repositories) Transaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return r.DB.WithContext(ctx).Transaction(fn)
}

// CheckConnection checks if database and redis connections are alive
func (r *Repositories) CheckConnection(ctx context.Context) error {
	// Check MySQL
	sqlDB, err := r.DB.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		log.CtxError(ctx, "mysql ping failed: %v", err)
		return err
	}

	// Check Redis
	if r.Redis != nil {
		if err := r.Redis.Ping(ctx).Err(); err != nil {
			log.CtxError(ctx, "redis ping failed: %v", err)
			return err
		}
	}

	return nil
}
