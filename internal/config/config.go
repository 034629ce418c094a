package config

import (
	"errors"
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

const (
	DefaultConfigFileName = "config.toml"
	DefaultDBName         = "tasks.db"
	DefaultPrefsName      = "preferences.toml"
	DefaultLogName        = "haru.log"
)

type Keymap struct {
	Quit            string `toml:"quit"`
	Up              string `toml:"up"`
	Down            string `toml:"down"`
	Add             string `toml:"add"`
	Toggle          string `toml:"toggle"`
	Delete          string `toml:"delete"`
	Undo            string `toml:"undo"`
	Edit            string `toml:"edit"`
	Search          string `toml:"search"`
	SortByName      string `toml:"sort_by_name"`
	SortByDate      string `toml:"sort_by_date"`
	HideCompleted   string `toml:"hide_completed"`
	DeleteCompleted string `toml:"delete_completed"`
	Important       string `toml:"important"`
	Confirm         string `toml:"confirm"`
	Cancel          string `toml:"cancel"`
}

type Config struct {
	DBPath    string `toml:"db_path"`
	PrefsPath string `toml:"prefs_path"`
	LogPath   string `toml:"log_path"`
	Keys      Keymap `toml:"keys"`
}

// ResolveConfigPath places the config under the user config dir,
// falling back to the working directory when that is unavailable.
func ResolveConfigPath() string {
	base, err := os.UserConfigDir()
	if err != nil {
		return DefaultConfigFileName
	}
	return filepath.Join(base, "haru", DefaultConfigFileName)
}

func LoadOrCreate(path string) (Config, error) {
	cfg := defaultConfig(filepath.Dir(path))
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		if err := write(path, cfg); err != nil {
			return cfg, err
		}
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	if cfg.DBPath == "" {
		cfg.DBPath = filepath.Join(filepath.Dir(path), DefaultDBName)
	}
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = filepath.Join(filepath.Dir(path), DefaultPrefsName)
	}
	return cfg, nil
}

func write(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil && !errors.Is(err, os.ErrExist) {
		return err
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

func defaultConfig(dir string) Config {
	return Config{
		DBPath:    filepath.Join(dir, DefaultDBName),
		PrefsPath: filepath.Join(dir, DefaultPrefsName),
		LogPath:   filepath.Join(dir, DefaultLogName),
		Keys: Keymap{
			Quit:            "q",
			Up:              "k",
			Down:            "j",
			Add:             "a",
			Toggle:          " ",
			Delete:          "d",
			Undo:            "u",
			Edit:            "enter",
			Search:          "/",
			SortByName:      "n",
			SortByDate:      "t",
			HideCompleted:   "h",
			DeleteCompleted: "D",
			Important:       "tab",
			Confirm:         "enter",
			Cancel:          "esc",
		},
	}
}
