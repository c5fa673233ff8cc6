package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version and build information",
	Annotations: map[string]string{skipServices: "true"},
	Run: func(cmd *cobra.Command, _ []string) {
		cmd.Printf("ssai version %s\n", version)
		cmd.Printf("  go:       %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		if rev := vcsRevision(); rev != "" {
			cmd.Printf("  revision: %s\n", rev)
		}
	},
}

// vcsRevision returns the short commit the binary was built from, if stamped.
func vcsRevision() string {
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return ""
	}
	var rev, dirty string
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			if s.Value == "true" {
				dirty = "-dirty"
			}
		}
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if rev == "" {
		return ""
	}
	return rev + dirty
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
