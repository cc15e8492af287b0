package main

import (
	"github.com/spf13/cobra"
)

func main() {
	var root = &cobra.Command{Use: "wayfarer"}

	root.AddCommand(serveCMD(), migrateCMD(), purgeCMD())
	_ = root.Execute()
}
