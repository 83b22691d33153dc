package config

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Environment overrides
const (
	EnvYtDlpPath     = "MEDIADL_YTDLP"
	EnvFFmpegPath    = "MEDIADL_FFMPEG"
	EnvDataDir       = "MEDIADL_DATA_DIR"
	EnvDeveloperMode = "MEDIADL_DEV"
	EnvProxy         = "MEDIADL_PROXY"
	EnvDownloadDir   = "MEDIADL_DOWNLOAD_DIR"
)

// DataDirName is the folder created under the user config dir
const DataDirName = "mediadl"

// LoadEnv loads .env files into the process environment. A missing file is not an error.
func LoadEnv(files ...string) {
	if err := godotenv.Load(files...); err != nil {
		log.Println("No .env file found, using process environment")
	}
}

// ApplyEnv overlays environment overrides on a settings snapshot
func ApplyEnv(a AppSettings) AppSettings {
	if v := os.Getenv(EnvYtDlpPath); v != "" {
		a.BinaryPathYtDlp = v
	}
	if v := os.Getenv(EnvFFmpegPath); v != "" {
		a.BinaryPathFFmpeg = v
	}
	if v := os.Getenv(EnvProxy); v != "" {
		a.Proxy = strings.TrimSpace(v)
	}
	if v := os.Getenv(EnvDownloadDir); v != "" {
		a.DownloadPath = v
	}
	if v := os.Getenv(EnvDeveloperMode); v != "" {
		if dev, err := strconv.ParseBool(v); err == nil {
			a.DeveloperMode = dev
		}
	}
	return a
}

// DataDir returns the directory for the task database
func DataDir() (string, error) {
	if v := os.Getenv(EnvDataDir); v != "" {
		return v, nil
	}
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	return filepath.Join(base, DataDirName), nil
}
