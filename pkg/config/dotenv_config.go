package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/apex/log"
	"github.com/mitchellh/go-homedir"
	"github.com/subosito/gotenv"
)

type DotenvConfig struct {
	DotenvPath string
}

func NewDotenvConfig(path string) *DotenvConfig {
	return &DotenvConfig{DotenvPath: path}
}

// MustLoadFromDotenv loads configuration for the zenodo-relay daemons. It
// checks ZR_DOTENV first, then ~/.zenodo-relay/dotenv, and finally .env in
// the current directory. If none of these can be loaded it calls
// log.Fatalf and exits.
func MustLoadFromDotenv() *DotenvConfig {
	if path := os.Getenv("ZR_DOTENV"); path != "" {
		c := NewDotenvConfig(path)
		if err := c.Load(); err != nil {
			log.Fatalf("Unable to load dotenv %q: %s", path, err)
		}
		return c
	}

	home, err := homedir.Dir()
	if err == nil {
		path := filepath.Join(home, ".zenodo-relay", "dotenv")
		if _, err := os.Stat(path); err == nil {
			c := NewDotenvConfig(path)
			if err := c.Load(); err != nil {
				log.Fatalf("Unable to load dotenv %q: %s", path, err)
			}
			return c
		}
	}

	c := NewDotenvConfig(".env")
	if err := c.Load(); err != nil {
		log.Fatalf("Unable to load dotenv: %s", err)
	}

	return c
}

func (c *DotenvConfig) LoadFromPath(path string) error {
	c.DotenvPath = path
	return gotenv.Load(c.DotenvPath)
}

func (c *DotenvConfig) Load() error {
	return gotenv.Load(c.DotenvPath)
}

func (c *DotenvConfig) GetKey(key string) string {
	return os.Getenv(key)
}

func (c *DotenvConfig) MustGetKey(key string) string {
	val := c.GetKey(key)
	if val == "" {
		log.Fatalf("No such required config key: '%s'", key)
	}

	return val
}

func (c *DotenvConfig) GetKeyWithDefault(key, defaultValue string) string {
	val := c.GetKey(key)
	if val == "" {
		return defaultValue
	}

	return val
}

func (c *DotenvConfig) GetIntKey(key string) int {
	val := c.GetKey(key)
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return 0
	}

	return intVal
}

func (c *DotenvConfig) MustGetIntKey(key string) int {
	val := c.GetKey(key)
	intVal, err := strconv.Atoi(val)
	if err != nil {
		log.Fatalf("Required config key either doesn't exist or isn't an int: '%s': %s", key, err)
	}

	return intVal
}

func (c *DotenvConfig) GetIntKeyWithDefault(key string, defaultValue int) int {
	val := c.GetKey(key)
	intVal, err := strconv.Atoi(val)
	if err != nil {
		return defaultValue
	}

	return intVal
}
