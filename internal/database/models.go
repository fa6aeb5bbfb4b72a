package database

import "time"

// UserConfig armazena preferências locais do usuário
type UserConfig struct {
	ID                  uint      `gorm:"primaryKey" json:"id"`
	UserID              string    `gorm:"uniqueIndex;not null" json:"userId"`
	DeviceID            string    `gorm:"uniqueIndex;not null" json:"deviceId"`
	Theme               string    `gorm:"default:system" json:"theme"`
	Language            string    `gorm:"default:en-US" json:"language"`
	OnboardingCompleted bool      `gorm:"default:false" json:"onboardingCompleted"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

// CachedProfile guarda o último perfil autenticado para pintura imediata
// da UI antes do bootstrap de sessão terminar
type CachedProfile struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	UserID     string    `gorm:"uniqueIndex;not null" json:"userId"`
	Email      string    `gorm:"not null" json:"email"`
	Name       string    `json:"name,omitempty"`
	Avatar     string    `json:"avatar,omitempty"`
	Provider   string    `json:"provider,omitempty"`
	LastSeenAt time.Time `json:"lastSeenAt"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// AuthAudit registra a trilha local de eventos de autenticação.
// Detail já chega sanitizado — nunca contém tokens.
type AuthAudit struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	EventID   string    `gorm:"index;not null" json:"eventId"`
	Kind      string    `gorm:"not null" json:"kind"`
	Detail    string    `gorm:"type:text" json:"detail,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
