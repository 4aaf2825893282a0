package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/Kgotso-Koete/camstop/internal/procs"
	"github.com/Kgotso-Koete/camstop/internal/reaper"
)

type listResult struct {
	Matches []procs.Process            `json:"matches" yaml:"matches"`
	Holders map[string][]procs.Process `json:"holders,omitempty" yaml:"holders,omitempty"`
}

func newListCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List matching processes and device holders without signalling",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			r := reaper.New(procs.NewSystemLister())
			res := listResult{
				Matches: r.Matches(cfg.Patterns),
				Holders: r.HoldersOf(cfg.DeviceGlobs),
			}

			switch format {
			case "json":
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			case "yaml":
				enc := yaml.NewEncoder(os.Stdout)
				defer enc.Close()
				return enc.Encode(res)
			case "text":
				printListResult(res)
				return nil
			default:
				return fmt.Errorf("invalid --format %q: must be text, json or yaml", format)
			}
		},
	}

	cmd.Flags().StringVar(&format, "format", "text", "output format: text, json or yaml")
	return cmd
}

func printListResult(res listResult) {
	if len(res.Matches) == 0 {
		fmt.Println(render(okStyle, "no processes match the configured patterns"))
	} else {
		fmt.Printf("%d process(es) matching:\n", len(res.Matches))
		for _, p := range res.Matches {
			fmt.Printf("  %6d  %s\n", p.PID, p.Cmdline)
		}
	}

	if len(res.Holders) == 0 {
		fmt.Println(render(okStyle, "no camera device holders"))
		return
	}
	for path, holders := range res.Holders {
		fmt.Printf("holders of %s:\n", path)
		for _, p := range holders {
			fmt.Printf("  %6d  %s\n", p.PID, p.Cmdline)
		}
	}
}
