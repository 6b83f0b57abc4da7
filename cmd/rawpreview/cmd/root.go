// Copyright 2024 Bjørn Erik Pedersen
// SPDX-License-Identifier: MIT

package cmd

import (
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/bep/rawpreview"
	"github.com/mitchellh/go-homedir"
	"github.com/paulmatencio/s3c/gLog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	config   string
	loglevel int

	missingInput = "Missing input - please provide one or more RAW files (" + fmt.Sprint(rawpreview.Extensions) + ")"

	// RootCmd is the base command when called without any subcommands.
	RootCmd = &cobra.Command{
		Use:              "rawpreview",
		Short:            "Extract the embedded JPEG preview from camera RAW files",
		Long:             ``,
		TraverseChildren: true,
	}
)

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the RootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	RootCmd.PersistentFlags().IntVarP(&loglevel, "loglevel", "l", 0, "Output level of logs (1: error, 2: Warning, 3: Info, 4: Trace)")
	RootCmd.PersistentFlags().StringVarP(&config, "config", "c", "", "Full path of the config file; default $HOME/.rawpreview/config.yaml")
	RootCmd.PersistentFlags().Int64("max-file-size", 0, "Skip files larger than this many bytes (default 100 MiB)")
	RootCmd.PersistentFlags().Int("limit-directories", 0, "Maximum number of IFDs to visit per file (default depends on the format)")
	RootCmd.PersistentFlags().Int("limit-boxes", 0, "Maximum number of top-level CR3 boxes to visit (default 6)")

	// bind flags to viper keys; the config file and RAWPREVIEW_* env vars may set them too.
	viper.BindPFlag("loglevel", RootCmd.PersistentFlags().Lookup("loglevel"))
	viper.BindPFlag("max_file_size", RootCmd.PersistentFlags().Lookup("max-file-size"))
	viper.BindPFlag("limit_directories", RootCmd.PersistentFlags().Lookup("limit-directories"))
	viper.BindPFlag("limit_boxes", RootCmd.PersistentFlags().Lookup("limit-boxes"))
	viper.SetDefault("log_output", "terminal")

	cobra.OnInitialize(initConfig)
}

// initConfig reads in the config file and ENV variables if set.
func initConfig() {
	if config != "" {
		viper.SetConfigFile(config)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			log.Fatalln(err)
		}
		viper.AddConfigPath(filepath.Join(home, ".rawpreview"))
		viper.AddConfigPath(".")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	viper.SetEnvPrefix("rawpreview")
	viper.AutomaticEnv()

	configErr := viper.ReadInConfig()

	gLog.InitLog(RootCmd.Name(), viper.GetInt("loglevel"), viper.GetString("log_output"))

	if configErr == nil {
		gLog.Trace.Printf("Using config file: %s", viper.ConfigFileUsed())
	} else if config != "" {
		gLog.Error.Printf("Error %v reading config file %s", configErr, config)
	}
}

// newOptions creates the extraction options from flags, env and config.
func newOptions() rawpreview.Options {
	return rawpreview.Options{
		Warnf:            gLog.Warning.Printf,
		MaxFileSize:      viper.GetInt64("max_file_size"),
		LimitDirectories: viper.GetInt("limit_directories"),
		LimitBoxes:       viper.GetInt("limit_boxes"),
		Resize:           viper.GetInt("resize"),
	}
}
