/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "arxivbot",
	Short: "Chat bot that answers arXiv links with paper summaries",
	Long: `arxivbot watches chat channels for direct mentions that carry arXiv links,
fetches each paper's metadata from the arXiv API and replies with the title,
authors, a summarized abstract and the PDF link.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}
