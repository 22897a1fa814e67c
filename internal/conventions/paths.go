package conventions

import "path/filepath"

const (
	// DefaultDataDir is the default legalflow data directory name (relative to home).
	DefaultDataDir = ".legalflow"
	// VaultDBFile is the SQLite file of the local document vault.
	VaultDBFile = "vault.db"
	// ConfigFile is the optional client configuration profile.
	ConfigFile = "config.yaml"
	// EnvFile is the optional dotenv file loaded from the working directory.
	EnvFile = ".env"

	// DefaultBaseURL is the backend used when none is configured.
	DefaultBaseURL = "http://127.0.0.1:5000"
	// DefaultDevServerAddress is where the development backend listens.
	DefaultDevServerAddress = "127.0.0.1:5000"
	// DefaultExportFile is the redline export file when the backend doesn't name it.
	DefaultExportFile = "redline.pdf"
)

// VaultDBPath returns the path of the vault database inside a data directory.
func VaultDBPath(dataDir string) string {
	return filepath.Join(dataDir, VaultDBFile)
}

// ConfigPath returns the path of the client configuration profile inside a data directory.
func ConfigPath(dataDir string) string {
	return filepath.Join(dataDir, ConfigFile)
}
