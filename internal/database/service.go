package database

import (
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"bma/internal/config"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Service encapsula o acesso ao SQLite via GORM
type Service struct {
	db *gorm.DB
}

// NewService cria e inicializa o serviço de banco de dados
func NewService() (*Service, error) {
	dbPath, db, err := openWritableDatabase()
	if err != nil {
		return nil, err
	}

	// Auto-migrate todos os models
	if err := db.AutoMigrate(
		&UserConfig{},
		&CachedProfile{},
		&AuthAudit{},
	); err != nil {
		return nil, fmt.Errorf("failed to auto-migrate: %w", err)
	}

	svc := &Service{db: db}
	if err := svc.ensureDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to ensure default config: %w", err)
	}

	// Definir permissão 0600 no arquivo do banco
	os.Chmod(dbPath, 0600)

	log.Printf("[DB] Database initialized at %s", dbPath)
	return svc, nil
}

func openWritableDatabase() (string, *gorm.DB, error) {
	candidates := make([]string, 0, 3)
	if override := strings.TrimSpace(os.Getenv("BMA_DB_PATH")); override != "" {
		candidates = append(candidates, override)
	}
	candidates = append(candidates, config.DBPath())

	if cwd, err := os.Getwd(); err == nil && strings.TrimSpace(cwd) != "" {
		candidates = append(candidates, filepath.Join(cwd, ".bma", config.DBFileName))
	}
	candidates = append(candidates, filepath.Join(os.TempDir(), "BMA", config.DBFileName))

	var lastErr error
	for _, candidate := range candidates {
		path := strings.TrimSpace(candidate)
		if path == "" {
			continue
		}

		if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
			lastErr = err
			continue
		}

		db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err != nil {
			lastErr = err
			continue
		}

		sqlDB, err := db.DB()
		if err != nil {
			lastErr = err
			continue
		}

		sqlDB.Exec("PRAGMA journal_mode=WAL")
		sqlDB.Exec("PRAGMA busy_timeout=5000")
		sqlDB.Exec("PRAGMA synchronous=NORMAL")
		sqlDB.Exec("PRAGMA foreign_keys=ON")

		// Probe de escrita para evitar abrir DB readonly em ambientes sandbox.
		probeErr := db.Exec("CREATE TABLE IF NOT EXISTS _bma_write_probe (id INTEGER PRIMARY KEY AUTOINCREMENT)").Error
		if probeErr == nil {
			probeErr = db.Exec("INSERT INTO _bma_write_probe DEFAULT VALUES").Error
		}
		if probeErr == nil {
			_ = db.Exec("DELETE FROM _bma_write_probe WHERE id = (SELECT MAX(id) FROM _bma_write_probe)").Error
		}

		if probeErr != nil {
			lastErr = probeErr
			_ = sqlDB.Close()
			continue
		}

		return path, db, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no database path candidates available")
	}

	return "", nil, fmt.Errorf("failed to open writable database: %w", lastErr)
}

// Close fecha a conexão com o banco
func (s *Service) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Service) ensureDefaultConfig() error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&UserConfig{}).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return nil
		}

		defaultConfig := &UserConfig{
			UserID:   "local",
			DeviceID: uuid.NewString(),
			Theme:    "system",
			Language: "en-US",
		}
		return tx.Create(defaultConfig).Error
	})
}

// === UserConfig CRUD ===

// GetConfig retorna a configuração do usuário (ou cria uma padrão)
func (s *Service) GetConfig() (*UserConfig, error) {
	var cfg UserConfig
	result := s.db.First(&cfg)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			cfg = UserConfig{
				UserID:   "local",
				DeviceID: uuid.NewString(),
				Theme:    "system",
				Language: "en-US",
			}
			s.db.Create(&cfg)
			return &cfg, nil
		}
		return nil, result.Error
	}
	return &cfg, nil
}

// UpdateConfig atualiza configurações do usuário
func (s *Service) UpdateConfig(cfg *UserConfig) error {
	if cfg == nil {
		return fmt.Errorf("config cannot be nil")
	}
	return s.db.Save(cfg).Error
}

// === CachedProfile CRUD ===

// UpsertCachedProfile cria/atualiza o perfil cacheado do usuário autenticado
func (s *Service) UpsertCachedProfile(profile *CachedProfile) error {
	if profile == nil {
		return fmt.Errorf("profile cannot be nil")
	}
	if strings.TrimSpace(profile.UserID) == "" {
		return fmt.Errorf("profile userID is required")
	}

	profile.LastSeenAt = time.Now()

	var existing CachedProfile
	err := s.db.Where("user_id = ?", profile.UserID).First(&existing).Error
	if err == nil {
		updates := map[string]interface{}{
			"email":        profile.Email,
			"name":         profile.Name,
			"avatar":       profile.Avatar,
			"provider":     profile.Provider,
			"last_seen_at": profile.LastSeenAt,
		}
		return s.db.Model(&CachedProfile{}).Where("user_id = ?", profile.UserID).Updates(updates).Error
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	return s.db.Create(profile).Error
}

// GetCachedProfile retorna o perfil cacheado mais recente, se houver
func (s *Service) GetCachedProfile() (*CachedProfile, error) {
	var profile CachedProfile
	err := s.db.Order("last_seen_at DESC, id DESC").First(&profile).Error
	if err != nil {
		return nil, err
	}
	return &profile, nil
}

// ClearCachedProfiles remove perfis cacheados (logout)
func (s *Service) ClearCachedProfiles() error {
	return s.db.Where("1 = 1").Delete(&CachedProfile{}).Error
}

// === AuthAudit CRUD ===

// SaveAuthAudit salva um evento de auth e aplica retenção das últimas 1000 entradas.
func (s *Service) SaveAuthAudit(event *AuthAudit) error {
	if event == nil {
		return fmt.Errorf("audit event is nil")
	}
	if event.EventID == "" {
		event.EventID = uuid.NewString()
	}

	return s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(event).Error; err != nil {
			return err
		}

		// Mantém apenas os 1000 eventos mais recentes.
		return tx.Exec(`
			DELETE FROM auth_audits
			WHERE id NOT IN (
				SELECT id
				FROM auth_audits
				ORDER BY created_at DESC, id DESC
				LIMIT 1000
			)
		`).Error
	})
}

// ListAuthAudits lista eventos de auth em ordem decrescente
func (s *Service) ListAuthAudits(limit int) ([]AuthAudit, error) {
	if limit <= 0 {
		limit = 100
	}

	var events []AuthAudit
	err := s.db.Order("created_at DESC, id DESC").Limit(limit).Find(&events).Error
	return events, err
}
