package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"
)

// newExploreCmd runs a REPL that resolves a declaration name typed at the
// prompt and prints its realized type against the loaded demo program,
// reusing internal/checker (SPEC_FULL "Supplemented from domain stack").
func newExploreCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "explore",
		Short: "interactively resolve names against the loaded program",
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := loadConfig(*configPath)
			c, module := runDemoCheck(opts)

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			fmt.Println("velac explore — type a declaration name, or :q to quit")
			for {
				input, err := line.Prompt("velac> ")
				if err == io.EOF || err == liner.ErrPromptAborted {
					return nil
				}
				if err != nil {
					return err
				}
				input = strings.TrimSpace(input)
				if input == "" {
					continue
				}
				if input == ":q" {
					return nil
				}
				line.AppendHistory(input)

				found := false
				for _, d := range module.Decls {
					if nameOf(d) == input {
						t := c.Realize(d.ID())
						fmt.Println(t.String())
						found = true
						break
					}
				}
				if !found {
					fmt.Println("undefined name:", input)
				}
			}
		},
	}
}
