package main

import (
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/formgate/formgate/cmd/formgate/config"
	"github.com/formgate/formgate/internal/credential"
	"github.com/formgate/formgate/storage"
	"github.com/formgate/formgate/storage/model"
)

var rootCmd = &cobra.Command{
	Use:               "fgctl",
	Short:             "fgctl can help you manage your formgate instance",
	Long:              "fgctl can help you manage your formgate instance",
	PersistentPreRunE: loadConfig,
	PersistentPostRunE: func(*cobra.Command, []string) error {
		if store == nil {
			return nil
		}
		return store.Close()
	},
	SilenceUsage: true,
}

var configFile string
var store *storage.Storage
var backends model.Backends
var credentials *credential.Manager

func loadConfig(*cobra.Command, []string) error {
	config.Load(configFile)
	log.Debug("Loaded Config")
	c := config.Get()

	var err error
	store, backends, err = config.LoadStorageBackends(c.Storage)
	if err != nil {
		return err
	}
	credentials = credential.NewManager(backends.Users, backends.APIKeys)
	return nil
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "the config file to use")
	rootCmd.AddCommand(migrateCmd, registerCmd, keysCmd, planCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
