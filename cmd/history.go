/*
Copyright © 2020 NAME HERE <EMAIL ADDRESS>

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/notargets/goice/history"
)

// HistoryCmd represents the history command
var HistoryCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded solves, newest first",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")
		path := viper.GetString("history")
		if len(path) == 0 {
			return fmt.Errorf("no history database configured, use --history or a config file")
		}
		store, err := history.Open(path)
		if err != nil {
			return err
		}
		defer store.Close()
		return store.Print(limit)
	},
}

func init() {
	rootCmd.AddCommand(HistoryCmd)
	HistoryCmd.Flags().IntP("limit", "n", 20, "number of runs to list, zero lists all")
}
