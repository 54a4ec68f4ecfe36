package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "omnipos",
	Short: "OmniPOS back-office service",
	Long: `omnipos runs the merchant back-office: catalog, inventory, orders,
purchasing, stock takes, returns, discounts, loyalty and account OTP flows.`,
	SilenceUsage: true,
}

func main() {
	rootCmd.AddCommand(serveCmd, migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
