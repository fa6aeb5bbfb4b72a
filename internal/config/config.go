package config

import (
	"os"
	"path/filepath"
)

const (
	// AppName é o nome do aplicativo
	AppName = "BMA 2026"

	// AppVersion é a versão atual
	AppVersion = "1.0.0"

	// AppBundleID é o bundle identifier macOS
	AppBundleID = "com.bma2026.app"

	// DeepLinkScheme é o scheme para deep links (bma2026://)
	DeepLinkScheme = "bma2026"

	// DBFileName é o nome do arquivo SQLite
	DBFileName = "bma_data.db"

	// EnvFileName é o nome do arquivo de configuração local
	EnvFileName = ".env"

	// DefaultCallbackPort é a porta preferencial do servidor local de callback OAuth
	DefaultCallbackPort = 9877
)

// DataDir retorna o diretório raiz de dados do app
// ~/Library/Application Support/BMA 2026/
func DataDir() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "Library", "Application Support", AppName)
}

// DBPath retorna o caminho do arquivo SQLite
func DBPath() string {
	return filepath.Join(DataDir(), DBFileName)
}

// LogDir retorna o diretório de logs
func LogDir() string {
	return filepath.Join(DataDir(), "logs")
}

// EnvFilePath retorna o caminho do arquivo .env gerenciado pelo app
func EnvFilePath() string {
	return filepath.Join(DataDir(), EnvFileName)
}

// EnsureDataDirs cria os diretórios necessários se não existirem
func EnsureDataDirs() error {
	dirs := []string{
		DataDir(),
		LogDir(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return err
		}
	}
	return nil
}
