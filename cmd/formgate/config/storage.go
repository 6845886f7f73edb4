package config

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"github.com/formgate/formgate/storage"
	"github.com/formgate/formgate/storage/model"
)

type storageConf struct {
	Driver  storage.DriverType `yaml:"driver"`
	DataDir string             `yaml:"data_dir"`
	DSN     string             `yaml:"dsn"`

	storage.DSNConf `yaml:",inline"`

	Debug bool `yaml:"debug"`
}

func (c *storageConf) validate() error {
	if c.Driver == storage.DriverSQLite {
		if c.DataDir == "" && c.DSN == "" {
			return errors.New("error in storage conf: data_dir must be specified")
		}
		return nil
	}
	var err error
	if c.DSN == "" {
		c.DSN, err = storage.DSN(c.Driver, c.DSNConf)
	}
	return err
}

// StorageConfig returns the storage.Config for this configuration
func (c storageConf) StorageConfig() storage.Config {
	return storage.Config{
		Driver:  c.Driver,
		DSN:     c.DSN,
		DataDir: c.DataDir,
		Debug:   c.Debug,
	}
}

var defaultStorageConf = storageConf{
	Driver:  storage.DriverSQLite,
	DataDir: ".",
	DSNConf: storage.DSNConf{
		User: "formgate",
		Host: "localhost",
		DB:   "formgate",
	},
	Debug: false,
}

// LoadStorageBackends opens the database for the passed config and returns
// the storage together with its backends
func LoadStorageBackends(c storageConf) (*storage.Storage, model.Backends, error) {
	store, backs, err := storage.LoadStorageBackends(c.StorageConfig())
	if err != nil {
		return nil, model.Backends{}, err
	}
	log.WithField("driver", c.Driver).Info("Loaded storage backend")
	return store, backs, nil
}
