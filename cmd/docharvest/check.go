// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docharvest/internal/pdfdoc"
	"github.com/pdiddy/docharvest/internal/repair"
	"github.com/pdiddy/docharvest/internal/validate"
	"github.com/pdiddy/docharvest/pkg/types"
)

const repairedPrefix = "repaired_"

var checkCmd = &cobra.Command{
	Use:   "check [files...]",
	Short: "Validate local PDF files, optionally repairing damaged ones",
	Long: `Check runs the structural validation used by harvest on local files.
With --repair, each corrupt file gets one repair attempt; a repaired copy
that passes validation is written next to the original with a "repaired_"
prefix. The original is never modified.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().Bool("repair", false, "attempt to repair corrupt files")
	checkCmd.Flags().String("temp-dir", "", "directory for repair staging files (default: system temp)")
	rootCmd.AddCommand(checkCmd)
}

func runCheck(cmd *cobra.Command, args []string) error {
	doRepair, _ := cmd.Flags().GetBool("repair")
	tempDir, _ := cmd.Flags().GetString("temp-dir")
	r := repair.New(tempDir)

	failed := 0
	for _, path := range args {
		if !checkFile(cmd.OutOrStdout(), r, path, doRepair) {
			failed++
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d file(s) are not valid PDFs", failed)
	}
	return nil
}

// checkFile prints one status line for path and reports whether it ended
// up with a valid document.
func checkFile(w io.Writer, r *repair.Repairer, path string, doRepair bool) bool {
	name := filepath.Base(path)
	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return false
	}

	v := validate.Validate(data)
	switch {
	case v.IsValid():
		fmt.Fprintf(w, "valid:   %s\n", name)
		return true
	case v.Status != types.Corrupt || !doRepair:
		fmt.Fprintf(w, "%-8s %s (%s)\n", v.Status+":", name, v.Reason)
		return false
	}

	fixed, err := r.Repair(data)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return false
	}
	if again := validate.Validate(fixed); !again.IsValid() {
		fmt.Fprintf(w, "failed:  %s (still invalid after repair: %s)\n", name, again)
		return false
	}
	dest := pdfdoc.PrefixedPath(path, repairedPrefix)
	if err := pdfdoc.WriteFileAtomic(dest, fixed); err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return false
	}
	logger.Debug().Str("file", path).Str("reason", v.Reason).Msg("repaired")
	fmt.Fprintf(w, "repaired: %s -> %s\n", name, dest)
	return true
}
