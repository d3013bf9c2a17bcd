package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "calendar-api",
	Short: "オーナー単位で重複しない予約を管理するAPIサーバー",
	Long: `calendar-api はオーナーごとに時間帯が重ならない予約を作成・参照するHTTP APIです。

サブコマンドを省略した場合は serve を実行します。`,
	SilenceUsage: true,
	RunE:         runServe,
}

// Execute はルートコマンドを実行する
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	registerServeFlags(rootCmd)
}
